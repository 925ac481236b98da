package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/competition-console/internal/api/response"
)

func newNumbersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "numbers",
		Short: "Competitor number draw commands",
	}

	cmd.AddCommand(newNumbersStatusCmd())
	cmd.AddCommand(newNumbersAssignCmd())

	return cmd
}

func newNumbersStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether numbers are assigned and any gaps",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.NumberStatus
			if err := client.Get("/api/v1/numbers", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newNumbersAssignCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Draw a random competitor number for every competitor",
		Long: `Shuffle the numbers 1..N and hand one to each registered competitor.

When numbers were already drawn this replaces all of them, so the command
asks for confirmation first unless --yes is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var status response.NumberStatus
			if err := client.Get("/api/v1/numbers", &status); err != nil {
				return err
			}

			if status.Locked && !yes {
				if !confirm(cmd, "Numbers are already assigned. Draw new numbers for everyone?") {
					return errAborted
				}
			}

			var result response.AssignNumbersResponse
			req := map[string]bool{"confirm": status.Locked}
			if err := client.Post("/api/v1/numbers/assign", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Replace existing numbers without asking")

	return cmd
}
