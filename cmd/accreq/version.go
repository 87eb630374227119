package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/accreq"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of accreq",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "accreq version %s\n", strings.TrimSpace(accreq.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
