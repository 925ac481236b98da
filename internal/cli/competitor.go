package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/competition-console/internal/api/response"
)

// errAborted is returned when the operator declines a confirmation
var errAborted = errors.New("aborted")

func newCompetitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "competitor",
		Aliases: []string{"competitors", "c"},
		Short:   "Competitor registry commands",
	}

	cmd.AddCommand(newCompetitorListCmd())
	cmd.AddCommand(newCompetitorGetCmd())
	cmd.AddCommand(newCompetitorAddCmd())
	cmd.AddCommand(newCompetitorUpdateCmd())
	cmd.AddCommand(newCompetitorDeleteCmd())

	return cmd
}

func newCompetitorListCmd() *cobra.Command {
	var order, language string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered competitors",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if order != "" {
				query.Set("order", order)
			}
			if language != "" {
				query.Set("language", language)
			}
			path := "/api/v1/competitors"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			var result response.CompetitorList
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&order, "order", "", "Sort order: created, number")
	cmd.Flags().StringVar(&language, "language", "", "Only list competitors of this language: english, french")

	return cmd
}

func newCompetitorGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one competitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Competitor
			if err := client.Get("/api/v1/competitors/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

// competitorFlags are the editable fields shared by add and update
type competitorFlags struct {
	firstName string
	lastName  string
	language  string
	country   string
}

func (f *competitorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "First name (required)")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "Last name (required)")
	cmd.Flags().StringVar(&f.language, "language", "english", "Language: english, french")
	cmd.Flags().StringVar(&f.country, "country", "", "ISO 3166 country code, e.g. FR")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
}

func (f *competitorFlags) body() map[string]string {
	return map[string]string{
		"first_name": f.firstName,
		"last_name":  f.lastName,
		"language":   f.language,
		"country":    f.country,
	}
}

func newCompetitorAddCmd() *cobra.Command {
	var flags competitorFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a competitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Competitor
			if err := client.Post("/api/v1/competitors", flags.body(), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func newCompetitorUpdateCmd() *cobra.Command {
	var flags competitorFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a competitor's details (the competitor number is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Competitor
			if err := client.Put("/api/v1/competitors/"+url.PathEscape(args[0]), flags.body(), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func newCompetitorDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a competitor",
		Long: `Delete a competitor from the registry.

Their competitor number is not reused: the remaining numbers keep a gap
until the numbers are drawn again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/competitors/" + url.PathEscape(args[0])

			if !yes {
				var c response.Competitor
				if err := client.Get(path, &c); err != nil {
					return err
				}
				if !confirm(cmd, fmt.Sprintf("Delete %s %s?", c.FirstName, c.LastName)) {
					return errAborted
				}
			}

			if err := client.Delete(path); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Competitor deleted")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
