package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/affiliateai/copilot/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the copilot REST API",
	Long: `Serve exposes the copilot over HTTP. Callers pass their provider API
key in the ` + server.CredentialHeader + ` header on each request; the server
never stores keys.`,
	Run: func(cmd *cobra.Command, args []string) {
		obs := newObserver()
		defer obs.Close()

		assistant, reg, err := newAssistant(obs)
		if err != nil {
			fatal(obs, err, "Failed to init assistant")
		}

		s := getStore()
		defer s.Close()

		srv, err := server.New(serveAddr, assistant, reg, s, obs)
		if err != nil {
			fatal(obs, err, "Failed to init server")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			fatal(obs, err, "Server failed")
		}
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
}
