package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hermes-agent/hermesctl/internal"
)

var (
	configProvider string
	configModel    string
	configBaseURL  string
	configLogLevel string
	configAPIKeys  []string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change the agent configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current agent configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		agentCfg, err := client.GetConfig(ctx)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to load config: %w", err))
		}

		displayConfig(agentCfg)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update agent configuration fields",
	Long: `Update one or more agent configuration fields.

Only the flags you pass are changed; everything else keeps its value.
API keys are write-only: the backend reports them masked and never
returns the stored value.

Examples:
  hermesctl config set --provider openrouter --model qwen/qwen3-coder
  hermesctl config set --api-key openrouter=sk-or-...
  hermesctl config set --log-level DEBUG`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		upd := internal.AgentConfigUpdate{}
		if cmd.Flags().Changed("provider") {
			upd.Provider = &configProvider
		}
		if cmd.Flags().Changed("model") {
			upd.Model = &configModel
		}
		if cmd.Flags().Changed("base-url") {
			upd.BaseURL = &configBaseURL
		}
		if cmd.Flags().Changed("log-level") {
			upd.LogLevel = &configLogLevel
		}
		for _, kv := range configAPIKeys {
			name, key, found := strings.Cut(kv, "=")
			if !found || name == "" {
				return fmt.Errorf("invalid --api-key %q, expected provider=key", kv)
			}
			if upd.APIKeys == nil {
				upd.APIKeys = make(map[string]string)
			}
			upd.APIKeys[name] = key
		}
		if upd.Provider == nil && upd.Model == nil && upd.BaseURL == nil && upd.LogLevel == nil && upd.APIKeys == nil {
			return fmt.Errorf("nothing to update, pass at least one flag")
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		agentCfg, err := client.UpdateConfig(ctx, upd)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to update config: %w", err))
		}

		fmt.Println(headerStyle.Render("Configuration updated"))
		displayConfig(agentCfg)
		return nil
	},
}

var configProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the available LLM providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		providers, err := client.Providers(ctx)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to list providers: %w", err))
		}

		w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("API Key")+"\t"+titleStyle.Render("Streaming")+"\t")
		for _, p := range providers {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", p.ID, p.Name, yesNo(p.RequiresAPIKey), yesNo(p.SupportsStreaming))
		}
		_ = w.Flush()
		return nil
	},
}

var configTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the configured LLM connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		ok, message, err := client.TestConnection(ctx)
		if err != nil {
			return wrapAuthError(fmt.Errorf("connection test failed: %w", err))
		}
		if !ok {
			return fmt.Errorf("connection test failed: %s", message)
		}
		fmt.Println(loginOKStyle.Render("✓ " + message))
		return nil
	},
}

func displayConfig(cfg *internal.AgentConfig) {
	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "%s\t%s\n", titleStyle.Render("Provider"), cfg.Provider)
	_, _ = fmt.Fprintf(w, "%s\t%s\n", titleStyle.Render("Model"), cfg.Model)
	if cfg.BaseURL != "" {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", titleStyle.Render("Base URL"), cfg.BaseURL)
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\n", titleStyle.Render("Log level"), cfg.LogLevel)
	for name, masked := range cfg.APIKeys {
		v := "(not set)"
		if masked != nil {
			v = *masked
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", titleStyle.Render("Key "+name), idStyle.Render(v))
	}
	_ = w.Flush()
}

func yesNo(b bool) string {
	if b {
		return countStyle.Render("yes")
	}
	return dateStyle.Render("no")
}

func init() {
	configSetCmd.Flags().StringVar(&configProvider, "provider", "", "LLM provider id")
	configSetCmd.Flags().StringVar(&configModel, "model", "", "Model name")
	configSetCmd.Flags().StringVar(&configBaseURL, "base-url", "", "Custom API base URL")
	configSetCmd.Flags().StringVar(&configLogLevel, "log-level", "", "Backend log level (DEBUG, INFO, WARNING, ERROR)")
	configSetCmd.Flags().StringArrayVar(&configAPIKeys, "api-key", nil, "API key as provider=key (repeatable)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configProvidersCmd)
	configCmd.AddCommand(configTestCmd)
	rootCmd.AddCommand(configCmd)
}
