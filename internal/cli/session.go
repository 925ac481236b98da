package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/competition-console/internal/api/response"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions", "s"},
		Short:   "Session timer commands",
	}

	cmd.AddCommand(newSessionBoardCmd())
	cmd.AddCommand(newSessionActiveCmd())
	cmd.AddCommand(newSessionGetCmd())
	cmd.AddCommand(newSessionTransitionCmd("start", "Start a competitor's session timer", "/api/v1/sessions/start"))
	cmd.AddCommand(newSessionTransitionCmd("stop", "Stop a competitor's session timer", "/api/v1/sessions/stop"))

	return cmd
}

func newSessionBoardCmd() *cobra.Command {
	var day int

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show every competitor's session times for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Board
			if err := client.Get(fmt.Sprintf("/api/v1/sessions?day=%d", day), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&day, "day", 1, "Competition day")

	return cmd
}

func newSessionActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show the running session, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.ActiveSession
			if err := client.Get("/api/v1/sessions/active", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newSessionGetCmd() *cobra.Command {
	var day int
	var module string

	cmd := &cobra.Command{
		Use:   "get <competitor-id>",
		Short: "Show one competitor's session for a day and module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/competitors/%s/sessions/%d/%s",
				url.PathEscape(args[0]), day, url.PathEscape(module))

			var result response.Session
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&day, "day", 1, "Competition day")
	cmd.Flags().StringVar(&module, "module", "morning", "Module: morning, evening")

	return cmd
}

func newSessionTransitionCmd(use, short, path string) *cobra.Command {
	var day int
	var module string

	cmd := &cobra.Command{
		Use:   use + " <competitor-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"competitor_id": args[0],
				"day":           day,
				"module":        module,
			}
			var result response.Session
			if err := client.Post(path, req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&day, "day", 1, "Competition day")
	cmd.Flags().StringVar(&module, "module", "morning", "Module: morning, evening")

	return cmd
}
