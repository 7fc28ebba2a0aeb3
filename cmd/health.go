package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend health",
	Long:  `Check the backend's health endpoint. No authentication required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		health, err := client.GetHealth(ctx)
		if err != nil {
			return fmt.Errorf("backend unreachable at %s: %w", cfg.ServerURL, err)
		}

		fmt.Println(loginOKStyle.Render("✓ " + cfg.ServerURL + " is " + health.Status))
		fmt.Printf("  Version:   %s\n", health.Version)
		fmt.Printf("  Agent:     %s\n", yesNo(health.AgentInitialized))
		fmt.Printf("  Database:  %s\n", yesNo(health.DatabaseConnected))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
