// Command create-admin provisions an admin account directly in the configured storage.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mcoot/competition-console/internal/config"
	"github.com/mcoot/competition-console/internal/dependencies/clock"
	"github.com/mcoot/competition-console/internal/factory"
	"github.com/mcoot/competition-console/internal/services/auth"
)

const (
	emailEnv    = config.EnvPrefix + "ADMIN_EMAIL"
	passwordEnv = config.EnvPrefix + "ADMIN_PASSWORD"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account for the competition console",
		Long: `Create an admin account in the storage backend the server is configured with.

The email and password may also be given as ` + emailEnv + ` and
` + passwordEnv + `, which is preferable to passing a password on the
command line.`,
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = os.Getenv(emailEnv)
			}
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if email == "" || password == "" {
				return fmt.Errorf("email and password are required (--email/--password or %s/%s)", emailEnv, passwordEnv)
			}

			cfg, err := config.Load(os.Getenv(config.PathEnv))
			if err != nil {
				return err
			}
			return createAdmin(cmd.Context(), cmd, *cfg, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")

	return cmd
}

func createAdmin(ctx context.Context, cmd *cobra.Command, cfg config.Config, email, password string) error {
	if cfg.Storage.Type == config.StorageMemory {
		return fmt.Errorf("storage type %q does not outlive this command; configure redis, sqlite or postgres", cfg.Storage.Type)
	}
	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())

	store, err := factory.OpenStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := auth.New(store, clock.New(), logger, auth.DefaultConfig())
	admin, err := svc.CreateAdmin(ctx, email, password)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", admin.Email, admin.ID)
	return nil
}
