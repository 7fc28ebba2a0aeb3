package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hermes-agent/hermesctl/internal"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	roleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("135"))
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation sessions",
	Long:  `List, inspect, create, delete, export and archive conversation sessions.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		sessions, err := client.ListSessions(ctx)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to list sessions: %w", err))
		}

		displaySessions(sessions)
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's message history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		detail, err := client.GetSession(ctx, args[0])
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to load session: %w", err))
		}

		displaySessionDetail(detail)
		return nil
	},
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		session, err := client.CreateSession(ctx)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to create session: %w", err))
		}

		fmt.Printf("Created session %s\n", titleStyle.Render(session.ID))
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		if err := client.DeleteSession(ctx, args[0]); err != nil {
			return wrapAuthError(fmt.Errorf("failed to delete session: %w", err))
		}

		fmt.Printf("Deleted session %s\n", args[0])
		return nil
	},
}

func displaySessions(sessions []internal.Session) {
	if len(sessions) == 0 {
		fmt.Println(headerStyle.Render("No sessions found"))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Found %d session(s)", len(sessions))))
	fmt.Println()

	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)

	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = "Untitled"
		}
		if len(title) > 50 {
			title = title[:47] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID(s.ID)),
			title,
			countStyle.Render(strconv.Itoa(s.MessageCount)),
			dateStyle.Render(relativeTime(s.UpdatedAt)))
	}

	_ = w.Flush()
	fmt.Println()
	fmt.Println(idStyle.Render("Tip: use the full ID with `hermesctl sessions show <id>`"))
}

func displaySessionDetail(detail *internal.SessionDetail) {
	title := detail.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Println(headerStyle.Render(title))
	fmt.Println(idStyle.Render(detail.ID) + "  " + dateStyle.Render(detail.CreatedAt.Format("2006-01-02 15:04")))
	fmt.Println()

	for _, msg := range detail.Messages {
		label := msg.Role
		switch msg.Role {
		case internal.RoleUser:
			label = "You"
		case internal.RoleAssistant:
			label = "Agent"
		}
		fmt.Println(roleStyle.Render(label) + dateStyle.Render("  "+msg.CreatedAt.Format("15:04:05")))
		fmt.Println(msg.Content)
		for _, tc := range msg.ToolCalls {
			fmt.Println(idStyle.Render(fmt.Sprintf("  tool %s(%s)", tc.Name, tc.Arguments)))
		}
		fmt.Println()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsNewCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}
