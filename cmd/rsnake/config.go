package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration rsnake would run with, after the config file
and global flags are applied. Redirect it to a file to start customizing:

  rsnake config > ~/.rsnake/config.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, source, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "# source: %s\n", source)
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}
