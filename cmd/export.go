package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hermes-agent/hermesctl/internal"
	"github.com/hermes-agent/hermesctl/internal/export"
)

var (
	exportFormat string
	exportOutput string
)

var sessionsExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session to a file",
	Long: `Export a session's full message history to a file.

Supported formats: json, jsonl, md, yaml. The output filename defaults to
the session id plus the format's extension; use - to write to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		detail, err := client.GetSession(ctx, args[0])
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to load session: %w", err))
		}

		if exportOutput == "-" {
			return exporter.Export(detail, os.Stdout)
		}

		outPath := exportOutput
		if outPath == "" {
			outPath = detail.ID + "." + exporter.Extension()
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil && filepath.Dir(outPath) != "." {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()

		if err := exporter.Export(detail, f); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported %d message(s) to %s\n", len(detail.Messages), outPath)
		return nil
	},
}

var (
	archiveDBPath string
	archiveList   bool
)

var sessionsArchiveCmd = &cobra.Command{
	Use:   "archive [session-id...]",
	Short: "Snapshot sessions into a local database",
	Long: `Snapshot sessions into a local SQLite database.

Without arguments every session is archived. Re-archiving a session
replaces its previous snapshot. The archive is a plain SQLite file and can
be inspected with any SQLite client; --list shows what it holds without
touching the backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := archiveDBPath
		if dbPath == "" {
			dir, dirErr := resolveConfigDir()
			if dirErr != nil {
				return dirErr
			}
			dbPath = filepath.Join(dir, "archive.db")
		}

		archive, err := internal.OpenArchive(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archive.Close()

		if archiveList {
			sessions, listErr := archive.ListSessions()
			if listErr != nil {
				return fmt.Errorf("failed to read archive: %w", listErr)
			}
			displaySessions(sessions)
			return nil
		}

		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ids := args
		if len(ids) == 0 {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
			sessions, listErr := client.ListSessions(ctx)
			cancel()
			if listErr != nil {
				return wrapAuthError(fmt.Errorf("failed to list sessions: %w", listErr))
			}
			for _, s := range sessions {
				ids = append(ids, s.ID)
			}
		}

		archived := 0
		for _, id := range ids {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
			detail, getErr := client.GetSession(ctx, id)
			cancel()
			if getErr != nil {
				internal.LogWarn("skipping session %s: %v", id, getErr)
				continue
			}
			if err := archive.SaveSession(detail); err != nil {
				return fmt.Errorf("failed to archive session %s: %w", id, err)
			}
			archived++
		}

		fmt.Printf("Archived %d session(s) to %s\n", archived, dbPath)
		return nil
	},
}

func init() {
	sessionsExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Export format (json, jsonl, md, yaml)")
	sessionsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default <session-id>.<ext>, - for stdout)")
	sessionsArchiveCmd.Flags().StringVar(&archiveDBPath, "db", "", "Archive database path (default <config-dir>/archive.db)")
	sessionsArchiveCmd.Flags().BoolVar(&archiveList, "list", false, "List the archive's contents instead of archiving")
	sessionsCmd.AddCommand(sessionsExportCmd)
	sessionsCmd.AddCommand(sessionsArchiveCmd)
}
