package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/affiliateai/copilot/internal/credential"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]

		s := getStore()
		defer s.Close()

		if err := s.SetConfig(key, value); err != nil {
			fmt.Printf("Failed to set config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration saved: %s\n", key)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		s := getStore()
		defer s.Close()

		val, err := s.GetConfig(key)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if val == "" {
			fmt.Println("(not set)")
		} else {
			fmt.Println(val)
		}
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [provider] [api-key]",
	Short: "Store a provider API key, encrypted at rest",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		key := args[1]

		r, err := buildRegistry()
		if err != nil {
			fmt.Printf("Failed to load providers: %v\n", err)
			os.Exit(1)
		}
		p, err := r.Lookup(id)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if !credential.MatchesHint(key, p.KeyPrefix) {
			fmt.Printf("Warning: %s keys usually start with %q\n", p.Name, p.KeyPrefix)
		}

		s := getStore()
		defer s.Close()

		if err := s.SetSecret(id, key); err != nil {
			fmt.Printf("Failed to store key: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("API key saved for %s\n", id)
	},
}

var configGetKeyCmd = &cobra.Command{
	Use:   "get-key [provider]",
	Short: "Show a stored provider API key, masked",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := getStore()
		defer s.Close()

		key, err := s.GetSecret(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if key == "" {
			fmt.Println("(not set)")
			return
		}
		fmt.Println(credential.MaskSecret(key))
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configGetKeyCmd)
}
