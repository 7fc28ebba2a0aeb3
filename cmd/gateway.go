package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Show messaging gateway status",
	Long: `Show the status of the messaging platform bridges.

A platform is configured when its credentials are present in the agent
config, and connected when the bridge currently holds a live session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		platforms, err := client.GatewayStatus(ctx)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to fetch gateway status: %w", err))
		}

		if len(platforms) == 0 {
			fmt.Println(headerStyle.Render("No gateway platforms"))
			return nil
		}

		w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("Platform")+"\t"+titleStyle.Render("Configured")+"\t"+titleStyle.Render("Connected")+"\t")
		for _, p := range platforms {
			name := p.Name
			if p.Icon != "" {
				name = p.Icon + " " + name
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n", name, yesNo(p.Configured), yesNo(p.Connected))
		}
		_ = w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}
