package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	billagent "github.com/aaasjp/travel-bill-agent"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of the agent",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("travel-bill-agent version %s\n", strings.TrimSpace(billagent.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
