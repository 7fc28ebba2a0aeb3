package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hermes-agent/hermesctl/internal"
	"github.com/hermes-agent/hermesctl/internal/chatui"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat [session-id]",
	Short: "Open the interactive chat console",
	Long: `Open the full-screen interactive chat console.

The console keeps a live connection to the backend's chat stream and
reconnects automatically when the connection drops. Responses stream in
token by token; tool invocations and their results are shown inline.

Keys:
  enter        send the message
  ctrl+l       toggle the session list (enter select, n new, d delete)
  ctrl+c, esc  quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isatty.IsTerminal(os.Stdout.Fd()) {
			return fmt.Errorf("chat requires an interactive terminal")
		}
		if len(args) > 0 {
			chatSessionID = args[0]
		}

		client, _, err := newAuthedClient()
		if err != nil {
			return err
		}

		transport := internal.NewTransport(internal.TransportConfig{
			ServerURL: client.BaseURL(),
			Token:     client.Token(),
		})

		if err := chatui.Run(client, transport, chatSessionID); err != nil {
			return wrapAuthError(fmt.Errorf("chat console failed: %w", err))
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatSessionID, "session", "s", "", "Session to open (default: most recent)")
	rootCmd.AddCommand(chatCmd)
}
