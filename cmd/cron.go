package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/adhocore/gronx"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var cronDisabled bool

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Manage scheduled jobs",
	Long: `Manage the backend's scheduled jobs.

Schedules use standard five-field cron syntax plus the usual @hourly,
@daily and @weekly shorthands. Expressions are validated locally before
the job is sent to the backend.`,
}

var cronListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		jobs, err := client.ListCronJobs(ctx)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to list cron jobs: %w", err))
		}

		if len(jobs) == 0 {
			fmt.Println(headerStyle.Render("No scheduled jobs"))
			return nil
		}

		w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Schedule")+"\t"+titleStyle.Render("Enabled")+"\t"+titleStyle.Render("Next run")+"\t")
		for _, j := range jobs {
			next := j.NextRun
			if next == "" {
				if t, tickErr := gronx.NextTick(j.Schedule, false); tickErr == nil {
					next = t.Format("2006-01-02 15:04")
				}
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
				idStyle.Render(shortID(j.ID)), j.Name, j.Schedule, yesNo(j.Enabled), dateStyle.Render(next))
		}
		_ = w.Flush()
		return nil
	},
}

var cronAddCmd = &cobra.Command{
	Use:   "add <name> <schedule> <command>",
	Short: "Create a scheduled job",
	Long: `Create a scheduled job.

The command is a natural-language instruction the agent runs on schedule.

Examples:
  hermesctl cron add digest "0 9 * * 1" "Summarize last week's sessions"
  hermesctl cron add cleanup @daily "Prune stale memory entries"`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, schedule, command := args[0], args[1], args[2]

		if !gronx.New().IsValid(schedule) {
			return fmt.Errorf("invalid cron expression %q", schedule)
		}

		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		job, err := client.CreateCronJob(ctx, name, schedule, command, !cronDisabled)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to create cron job: %w", err))
		}

		fmt.Printf("Created job %s (%s)\n", titleStyle.Render(job.Name), idStyle.Render(job.ID))
		if next, tickErr := gronx.NextTickAfter(schedule, time.Now(), false); tickErr == nil {
			fmt.Println(dateStyle.Render("Next run: " + next.Format("2006-01-02 15:04")))
		}
		return nil
	},
}

var cronDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a scheduled job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		if err := client.DeleteCronJob(ctx, args[0]); err != nil {
			return wrapAuthError(fmt.Errorf("failed to delete cron job: %w", err))
		}

		fmt.Printf("Deleted job %s\n", args[0])
		return nil
	},
}

func init() {
	cronAddCmd.Flags().BoolVar(&cronDisabled, "disabled", false, "Create the job disabled")

	cronCmd.AddCommand(cronListCmd)
	cronCmd.AddCommand(cronAddCmd)
	cronCmd.AddCommand(cronDeleteCmd)
	rootCmd.AddCommand(cronCmd)
}
