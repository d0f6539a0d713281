package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/affiliateai/copilot/internal/adapter"
	"github.com/affiliateai/copilot/internal/registry"
	"github.com/affiliateai/copilot/internal/ui"
	"github.com/affiliateai/copilot/internal/ui/tui"
)

var (
	chatModule     string
	chatExperience string
	chatTUI        bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk to the marketing copilot",
	Long: `Chat starts a conversation with the copilot. With a message argument it
sends a single turn and prints the reply; without one it opens an
interactive session. The last ten turns are carried as context.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runChat(strings.Join(args, " "))
	},
}

func init() {
	RootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatModule, "module", "", "Dashboard module context (niche_discovery, product_research, content_creation, seo)")
	chatCmd.Flags().StringVar(&chatExperience, "experience", "", "Experience level woven into the persona (beginner, intermediate, advanced)")
	chatCmd.Flags().BoolVar(&chatTUI, "tui", false, "Open the full-screen chat interface")
}

func runChat(message string) {
	obs := newObserver()
	defer obs.Close()

	assistant, _, err := newAssistant(obs)
	if err != nil {
		fatal(obs, err, "Failed to init assistant")
	}

	s := getStore()
	defer s.Close()
	key := resolveCredential(s, providerID)

	chatCtx := adapter.ChatContext{
		Module:          chatModule,
		ExperienceLevel: chatExperience,
	}

	send := func(ctx context.Context, text string) (string, error) {
		return assistant.Chat(ctx, text, chatCtx, key, providerID)
	}

	if message != "" {
		reply, err := send(context.Background(), message)
		if err != nil {
			fatal(obs, err, "Chat failed")
		}
		fmt.Println(reply)
		return
	}

	if chatTUI {
		name := providerID
		if name == "" {
			name = registry.DefaultTextProvider
		}
		model := tui.NewModel(name, chatModule, ui.SilentUI{}, send)
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			fmt.Printf("Alas, there's been an error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	repl(send, ui.NewConsole(os.Stdout))
}

func repl(send func(context.Context, string) (string, error), u ui.UI) {
	fmt.Println("Interactive chat. Type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}

		u.SetStatus("thinking")
		reply, err := send(context.Background(), line)
		if err != nil {
			u.Log(fmt.Sprintf("Error: %v", err))
			continue
		}
		u.AddMessage("copilot", reply)
	}
}
