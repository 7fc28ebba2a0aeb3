package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var memoryFromFile string

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and edit the agent's memory files",
	Long: `Inspect and edit the agent's persistent memory files.

Memory files are plain text documents the agent reads at the start of
every conversation. Writing a file replaces its content wholesale.`,
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List memory files",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		files, err := client.ListMemory(ctx)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to list memory files: %w", err))
		}

		if len(files) == 0 {
			fmt.Println(headerStyle.Render("No memory files"))
			return nil
		}

		w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("File")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Updated")+"\t"+titleStyle.Render("Description")+"\t")
		for _, f := range files {
			updated := "—"
			if f.UpdatedAt > 0 {
				updated = time.Unix(int64(f.UpdatedAt), 0).Format("2006-01-02 15:04")
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", idStyle.Render(f.Filename), f.Name, dateStyle.Render(updated), f.Description)
		}
		_ = w.Flush()
		return nil
	},
}

var memoryShowCmd = &cobra.Command{
	Use:   "show <filename>",
	Short: "Print a memory file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		file, err := client.GetMemory(ctx, args[0])
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to load memory file: %w", err))
		}

		fmt.Print(file.Content)
		if len(file.Content) > 0 && file.Content[len(file.Content)-1] != '\n' {
			fmt.Println()
		}
		return nil
	},
}

var memoryEditCmd = &cobra.Command{
	Use:   "edit <filename>",
	Short: "Replace a memory file's content",
	Long: `Replace a memory file's content.

The new content is read from --file, or from stdin when --file is omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		var content string
		if memoryFromFile != "" {
			data, readErr := os.ReadFile(memoryFromFile)
			if readErr != nil {
				return fmt.Errorf("failed to read input file: %w", readErr)
			}
			content = string(data)
		} else {
			content, err = readAllStdin()
			if err != nil {
				return err
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		if err := client.PutMemory(ctx, args[0], content); err != nil {
			return wrapAuthError(fmt.Errorf("failed to write memory file: %w", err))
		}

		fmt.Printf("Wrote %d byte(s) to %s\n", len(content), args[0])
		return nil
	},
}

func init() {
	memoryEditCmd.Flags().StringVarP(&memoryFromFile, "file", "f", "", "Read the new content from this file (default stdin)")

	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryShowCmd)
	memoryCmd.AddCommand(memoryEditCmd)
	rootCmd.AddCommand(memoryCmd)
}
