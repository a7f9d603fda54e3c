package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/ferroscope/internal/config"
)

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the ferroscope configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Prints the configuration after applying, in order: built-in defaults, the
config file, FERROSCOPE_* environment variables and command line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(opts)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "# Config file: %s\n%s", path, data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, err := loadConfig(opts)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", path)
			return err
		},
	})

	return cmd
}
