package cmd

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the agent's tool catalog",
	Long:  `List the tools the agent can invoke, grouped by category.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		tools, err := client.ListTools(ctx)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to list tools: %w", err))
		}

		if len(tools) == 0 {
			fmt.Println(headerStyle.Render("No tools available"))
			return nil
		}

		byCategory := make(map[string][]int)
		for i, t := range tools {
			byCategory[t.Category] = append(byCategory[t.Category], i)
		}
		categories := make([]string, 0, len(byCategory))
		for c := range byCategory {
			categories = append(categories, c)
		}
		sort.Strings(categories)

		for _, category := range categories {
			fmt.Println(headerStyle.Render(category))
			w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)
			for _, i := range byCategory[category] {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", titleStyle.Render(tools[i].Name), tools[i].Description)
			}
			_ = w.Flush()
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
