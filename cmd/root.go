package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hermes-agent/hermesctl/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	serverURL  string
	configDir  string
	reqTimeout time.Duration
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hermesctl",
	Short: "Administrative console for a Hermes Agent backend",
	Long: `hermesctl is the terminal console for a Hermes Agent backend.

It talks to the backend's REST API and streaming chat channel and covers
the full admin surface: chatting with the agent, managing sessions, the
skill registry, scheduled jobs, agent memory, configuration, logs, and
the messaging gateway status.

Quick Start:
  hermesctl login                       # Authenticate against the backend
  hermesctl chat                        # Open the interactive chat
  hermesctl sessions list               # List conversation sessions
  hermesctl logs --level ERROR          # Tail backend errors

The backend URL is taken from --server, $HERMES_SERVER_URL, or
~/.config/hermesctl/config.yaml, in that order.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Backend base URL (overrides config and $HERMES_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory for client config and token (default ~/.config/hermesctl)")
	rootCmd.PersistentFlags().DurationVar(&reqTimeout, "timeout", 0, "REST request timeout (default 15s)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// resolveConfigDir returns the directory holding client config and token.
func resolveConfigDir() (string, error) {
	if configDir != "" {
		if err := os.MkdirAll(configDir, 0o700); err != nil {
			return "", fmt.Errorf("failed to create config directory: %w", err)
		}
		return configDir, nil
	}
	return internal.DefaultConfigDir()
}

// newClient builds the REST client from config, flags and the stored token.
// Commands that require authentication should use newAuthedClient instead.
func newClient() (*internal.Client, *internal.ClientConfig, error) {
	dir, err := resolveConfigDir()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := internal.LoadClientConfig(dir, serverURL)
	if err != nil {
		return nil, nil, err
	}
	return internal.NewClient(cfg.ServerURL, internal.LoadToken(dir), requestTimeout(cfg)), cfg, nil
}

// requestTimeout resolves the per-request deadline: flag > config > default.
// Command contexts are built from this, so it is never zero.
func requestTimeout(cfg *internal.ClientConfig) time.Duration {
	if reqTimeout > 0 {
		return reqTimeout
	}
	return cfg.RequestTimeout()
}

// newAuthedClient is newClient plus a login check: commands fail early with a
// clear message instead of a bare 401.
func newAuthedClient() (*internal.Client, *internal.ClientConfig, error) {
	client, cfg, err := newClient()
	if err != nil {
		return nil, nil, err
	}
	if client.Token() == "" {
		return nil, nil, fmt.Errorf("not logged in; run `hermesctl login` first")
	}
	return client, cfg, nil
}

// wrapAuthError converts a 401 into a logout: the stored token is cleared so
// the next command prompts for a fresh login.
func wrapAuthError(err error) error {
	var authErr *internal.AuthError
	if !errors.As(err, &authErr) {
		return err
	}
	if dir, dirErr := resolveConfigDir(); dirErr == nil {
		if clearErr := internal.ClearToken(dir); clearErr != nil {
			internal.LogWarn("failed to clear stored token: %v", clearErr)
		}
	}
	return fmt.Errorf("session expired, run `hermesctl login` again: %w", err)
}
