package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/hermes-agent/hermesctl/internal"
	"github.com/spf13/cobra"
)

var loginPasswordStdin bool

var loginOKStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("42"))

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the backend",
	Long: `Authenticate against the backend and store the access token locally.

The password is read from the terminal (hidden), or from stdin when
--password-stdin is set. The token is written to the config directory with
owner-only permissions and is used by every other command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		password, err := readPassword()
		if err != nil {
			return err
		}
		if password == "" {
			return fmt.Errorf("empty password")
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		token, err := client.Login(ctx, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		dir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		if err := internal.SaveToken(dir, token); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}

		fmt.Println(loginOKStyle.Render("✓ Logged in to " + cfg.ServerURL))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		if err := internal.ClearToken(dir); err != nil {
			return fmt.Errorf("failed to clear token: %w", err)
		}
		fmt.Println("Logged out")
		return nil
	},
}

func readPassword() (string, error) {
	if loginPasswordStdin || !isatty.IsTerminal(os.Stdin.Fd()) {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func init() {
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin instead of the terminal")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
