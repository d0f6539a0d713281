package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	jsonOutput bool
	providerID string
	modelName  string
	tierName   string
	apiKey     string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "copilot",
	Short: "AI copilot for affiliate marketing",
	Long: `Copilot drives niche research, content generation, keyword research and
email sequences through hosted AI providers. Bring your own API key;
keys are read per invocation and never sent anywhere except the
provider you chose.`,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	RootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "JSON log output, non-interactive")
	RootCmd.PersistentFlags().StringVarP(&providerID, "provider", "p", "", "AI provider (groq, anthropic, google)")
	RootCmd.PersistentFlags().StringVarP(&modelName, "model", "m", "", "Model name (default depends on provider)")
	RootCmd.PersistentFlags().StringVar(&tierName, "tier", "", "Model tier (fast, balanced, powerful)")
	RootCmd.PersistentFlags().StringVarP(&apiKey, "key", "k", "", "Provider API key (overrides stored and env keys)")
}
