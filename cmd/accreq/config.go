package main

import (
	"github.com/aretw0/accreq/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Prints the configuration after defaults, the config file and ACCREQ_* environment overrides are applied. Secrets are masked.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return config.Dump(cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
