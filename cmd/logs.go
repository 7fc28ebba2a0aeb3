package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	logsLevel  string
	logsLimit  int
	logsOffset int
)

var levelStyles = map[string]lipgloss.Style{
	"DEBUG":   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	"INFO":    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	"WARNING": lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	"ERROR":   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show backend logs",
	Long: `Show the backend's recent log records, newest last.

Use --level to restrict by severity and --offset/--limit to page back
through history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		level := strings.ToUpper(logsLevel)
		if level != "" {
			if _, ok := levelStyles[level]; !ok {
				return fmt.Errorf("unknown level %q (expected DEBUG, INFO, WARNING or ERROR)", logsLevel)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		page, err := client.GetLogs(ctx, level, logsLimit, logsOffset)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to fetch logs: %w", err))
		}

		if len(page.Logs) == 0 {
			fmt.Println(headerStyle.Render("No log records"))
			return nil
		}

		// Oldest first so the terminal reads like a tail.
		for i := len(page.Logs) - 1; i >= 0; i-- {
			entry := page.Logs[i]
			style, ok := levelStyles[entry.Level]
			if !ok {
				style = levelStyles["INFO"]
			}
			fmt.Printf("%s %s %s %s\n",
				dateStyle.Render(entry.CreatedAt.Format("2006-01-02 15:04:05")),
				style.Render(fmt.Sprintf("%-7s", entry.Level)),
				idStyle.Render(entry.Logger),
				entry.Message)
		}

		shown := logsOffset + len(page.Logs)
		if shown < page.Total {
			fmt.Println()
			fmt.Println(dateStyle.Render(fmt.Sprintf("Showing %d-%d of %d, use --offset %d for older records",
				logsOffset+1, shown, page.Total, shown)))
		}
		return nil
	},
}

var logsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all backend log records",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		if err := client.ClearLogs(ctx); err != nil {
			return wrapAuthError(fmt.Errorf("failed to clear logs: %w", err))
		}

		fmt.Println("Logs cleared")
		return nil
	},
}

func init() {
	logsCmd.Flags().StringVarP(&logsLevel, "level", "l", "", "Only show records at this level (DEBUG, INFO, WARNING, ERROR)")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 100, "Maximum records to fetch")
	logsCmd.Flags().IntVar(&logsOffset, "offset", 0, "Records to skip from the newest")

	logsCmd.AddCommand(logsClearCmd)
	rootCmd.AddCommand(logsCmd)
}
