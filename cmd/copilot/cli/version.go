package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the copilot version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("copilot %s\n", version)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
