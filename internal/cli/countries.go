package cli

import (
	"github.com/spf13/cobra"
)

func newCountriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List the country codes competitors can be registered with",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result CountryList
			if err := client.Get("/api/v1/countries", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
