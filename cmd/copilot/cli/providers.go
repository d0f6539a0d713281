package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported AI providers",
	Run: func(cmd *cobra.Command, args []string) {
		r, err := buildRegistry()
		if err != nil {
			fmt.Printf("Failed to load providers: %v\n", err)
			os.Exit(1)
		}

		for _, p := range r.List() {
			caps := make([]string, 0, len(p.Capabilities))
			for _, c := range p.Capabilities {
				caps = append(caps, string(c))
			}
			free := ""
			if p.Free {
				free = " (free tier)"
			}
			fmt.Printf("%s - %s%s\n", p.ID, p.Name, free)
			fmt.Printf("  model:        %s\n", p.DefaultModel)
			if p.ImageModel != "" {
				fmt.Printf("  image model:  %s\n", p.ImageModel)
			}
			fmt.Printf("  capabilities: %s\n", strings.Join(caps, ", "))
			fmt.Printf("  key prefix:   %s (env %s)\n", p.KeyPrefix, envVarFor(p.ID))
		}
	},
}

func init() {
	RootCmd.AddCommand(providersCmd)
}
