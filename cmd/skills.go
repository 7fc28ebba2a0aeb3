package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hermes-agent/hermesctl/internal"
)

var (
	skillDescription string
	skillFile        string
	skillDisabled    bool
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Manage the agent's skill registry",
	Long: `Manage the agent's skill registry.

A skill is a named markdown document the agent consults while working.
Disabled skills stay in the registry but are invisible to the agent.`,
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered skills",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		skills, err := client.ListSkills(ctx)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to list skills: %w", err))
		}

		if len(skills) == 0 {
			fmt.Println(headerStyle.Render("No skills registered"))
			return nil
		}

		w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Enabled")+"\t"+titleStyle.Render("Description")+"\t")
		for _, s := range skills {
			desc := s.Description
			if len(desc) > 60 {
				desc = desc[:57] + "..."
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", idStyle.Render(shortID(s.ID)), s.Name, yesNo(s.Enabled), desc)
		}
		_ = w.Flush()
		return nil
	},
}

var skillsShowCmd = &cobra.Command{
	Use:   "show <skill-id>",
	Short: "Show a skill's full content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		skill, err := client.GetSkill(ctx, args[0])
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to load skill: %w", err))
		}

		fmt.Println(headerStyle.Render(skill.Name))
		if skill.Description != "" {
			fmt.Println(dateStyle.Render(skill.Description))
		}
		fmt.Println()
		fmt.Println(skill.Content)
		return nil
	},
}

var skillsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a new skill",
	Long: `Register a new skill.

The skill body is read from --file, or from stdin when --file is omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		content, err := readSkillContent()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		skill, err := client.CreateSkill(ctx, args[0], skillDescription, content, !skillDisabled)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to create skill: %w", err))
		}

		fmt.Printf("Registered skill %s (%s)\n", titleStyle.Render(skill.Name), idStyle.Render(skill.ID))
		return nil
	},
}

var skillsEditCmd = &cobra.Command{
	Use:   "edit <skill-id>",
	Short: "Edit a skill's description or body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		upd := internal.SkillUpdate{}
		if cmd.Flags().Changed("description") {
			upd.Description = &skillDescription
		}
		if skillFile != "" {
			content, readErr := readSkillContent()
			if readErr != nil {
				return readErr
			}
			upd.Content = &content
		}
		if upd.Description == nil && upd.Content == nil {
			return fmt.Errorf("nothing to edit, pass --description or --file")
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		skill, err := client.UpdateSkill(ctx, args[0], upd)
		if err != nil {
			return wrapAuthError(fmt.Errorf("failed to edit skill: %w", err))
		}

		fmt.Printf("Updated skill %s\n", titleStyle.Render(skill.Name))
		return nil
	},
}

var skillsEnableCmd = &cobra.Command{
	Use:   "enable <skill-id>",
	Short: "Enable a skill",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSkillEnabled(args[0], true)
	},
}

var skillsDisableCmd = &cobra.Command{
	Use:   "disable <skill-id>",
	Short: "Disable a skill without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSkillEnabled(args[0], false)
	},
}

func setSkillEnabled(id string, enabled bool) error {
	client, cfg, err := newAuthedClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	skill, err := client.UpdateSkill(ctx, id, internal.SkillUpdate{Enabled: &enabled})
	if err != nil {
		return wrapAuthError(fmt.Errorf("failed to update skill: %w", err))
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("Skill %s %s\n", titleStyle.Render(skill.Name), state)
	return nil
}

var skillsDeleteCmd = &cobra.Command{
	Use:   "delete <skill-id>",
	Short: "Delete a skill",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAuthedClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		if err := client.DeleteSkill(ctx, args[0]); err != nil {
			return wrapAuthError(fmt.Errorf("failed to delete skill: %w", err))
		}

		fmt.Printf("Deleted skill %s\n", args[0])
		return nil
	},
}

func readSkillContent() (string, error) {
	if skillFile != "" {
		data, err := os.ReadFile(skillFile)
		if err != nil {
			return "", fmt.Errorf("failed to read skill file: %w", err)
		}
		return string(data), nil
	}
	data, err := readAllStdin()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(data) == "" {
		return "", fmt.Errorf("empty skill content, pass --file or pipe the body on stdin")
	}
	return data, nil
}

func readAllStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func init() {
	skillsAddCmd.Flags().StringVarP(&skillDescription, "description", "d", "", "Skill description")
	skillsAddCmd.Flags().StringVarP(&skillFile, "file", "f", "", "Markdown file holding the skill body (default stdin)")
	skillsAddCmd.Flags().BoolVar(&skillDisabled, "disabled", false, "Register the skill disabled")

	skillsEditCmd.Flags().StringVarP(&skillDescription, "description", "d", "", "New description")
	skillsEditCmd.Flags().StringVarP(&skillFile, "file", "f", "", "Markdown file holding the new body")

	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsShowCmd)
	skillsCmd.AddCommand(skillsAddCmd)
	skillsCmd.AddCommand(skillsEditCmd)
	skillsCmd.AddCommand(skillsEnableCmd)
	skillsCmd.AddCommand(skillsDisableCmd)
	skillsCmd.AddCommand(skillsDeleteCmd)
	rootCmd.AddCommand(skillsCmd)
}
