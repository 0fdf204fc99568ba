package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/revuhq/revu/internal/git"
	"github.com/revuhq/revu/internal/llm"
	"github.com/revuhq/revu/internal/models"
	"github.com/revuhq/revu/internal/review"
)

var (
	ticketTeam       string
	ticketFromRecord int
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Draft and file tracker tickets",
}

var ticketNewCmd = &cobra.Command{
	Use:   "new [notes...]",
	Short: "Draft a ticket from notes and file it in Linear",
	Long: `Draft a ticket: the model turns free-form notes into a title and
description, which you can accept, revise with further instructions, or
abort. Accepted tickets are filed in Linear under the configured team.

With --from-record, the notes are built from the skipped findings of a
prior review of the given PR, so deferred review feedback becomes
trackable work.

Requires ANTHROPIC_API_KEY and LINEAR_API_KEY.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketNewRun(strings.Join(args, " "))
	},
}

var ticketTeamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "List Linear teams (for linear.team_id)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketTeamsRun()
	},
}

func init() {
	ticketNewCmd.Flags().StringVar(&ticketTeam, "team", "", "Linear team id (default linear.team_id from config)")
	ticketNewCmd.Flags().IntVar(&ticketFromRecord, "from-record", 0, "Build notes from the skipped findings of this PR's review record")
	ticketCmd.AddCommand(ticketNewCmd)
	ticketCmd.AddCommand(ticketTeamsCmd)
	rootCmd.AddCommand(ticketCmd)
}

func ticketNewRun(notes string) error {
	client, err := llmClient()
	if err != nil {
		return err
	}
	lc, err := linearClient()
	if err != nil {
		return err
	}

	teamID := ticketTeam
	if teamID == "" {
		teamID = viper.GetString("linear.team_id")
	}
	if teamID == "" {
		return fmt.Errorf("no team: pass --team or set linear.team_id (see 'revu ticket teams')")
	}

	if ticketFromRecord > 0 {
		notes, err = notesFromRecord(ticketFromRecord)
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(notes) == "" {
		return fmt.Errorf("nothing to draft from: give notes or --from-record")
	}

	ctx := context.Background()
	ui.Info("Drafting ticket...")
	raw, err := client.DraftTicket(ctx, notes)
	if err != nil {
		return fmt.Errorf("draft ticket: %w", err)
	}
	ticket, err := llm.ParseTicket(raw)
	if err != nil {
		return err
	}

	for {
		fmt.Fprintln(ui.Out)
		fmt.Fprintf(ui.Out, "%s\n\n%s\n\n", ticket.Title, ticket.Description)

		answer, err := ui.Prompt("[c]reate / [r]evise / [a]bort:")
		if err != nil {
			return err
		}
		switch answer {
		case "c", "create":
			issue, err := lc.CreateIssue(ctx, teamID, ticket.Title, ticket.Description)
			if err != nil {
				return fmt.Errorf("create issue: %w", err)
			}
			ui.Success("Created %s: %s", issue.Identifier, issue.URL)
			return nil
		case "r", "revise":
			instruction, err := ui.Prompt("Revision instruction:")
			if err != nil {
				return err
			}
			if instruction == "" {
				continue
			}
			raw, err := client.ReviseTicket(ctx, ticket.Title, ticket.Description, instruction)
			if err != nil {
				return fmt.Errorf("revise ticket: %w", err)
			}
			revised, err := llm.ParseTicket(raw)
			if err != nil {
				return err
			}
			ticket = revised
		case "a", "abort":
			ui.Info("Aborted; no ticket created.")
			return nil
		default:
			ui.Warning("Answer c, r, or a")
		}
	}
}

// notesFromRecord builds draft notes from a review record's skipped
// findings: feedback the operator chose not to post but may still want
// tracked.
func notesFromRecord(prNumber int) (string, error) {
	gh := git.NewGitHubClient()
	repo, err := gh.CurrentRepo()
	if err != nil {
		return "", fmt.Errorf("identify repository: %w", err)
	}

	cfg := review.DefaultConfig()
	rec, err := review.LoadRecord(cfg.RecordsDir, repo, prNumber)
	if err != nil {
		return "", err
	}

	var skipped []models.Finding
	for _, f := range rec.Findings {
		if f.Approved != nil && !*f.Approved {
			skipped = append(skipped, f)
		}
	}
	if len(skipped) == 0 {
		return "", fmt.Errorf("record for %s#%d has no skipped findings", repo, prNumber)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Follow-up work from the review of %s#%d:\n\n", repo, prNumber)
	for _, f := range skipped {
		fmt.Fprintf(&sb, "- [%s] %s (%s:%d): %s\n", f.Severity, f.Title, f.File, f.Line, f.Why)
	}
	return sb.String(), nil
}

func ticketTeamsRun() error {
	lc, err := linearClient()
	if err != nil {
		return err
	}

	teams, err := lc.Teams(context.Background())
	if err != nil {
		return err
	}
	if len(teams) == 0 {
		ui.Info("No teams found.")
		return nil
	}

	table := ui.Table([]string{"Key", "Name", "ID"})
	for _, team := range teams {
		_ = table.Append([]string{team.Key, team.Name, team.ID})
	}
	_ = table.Render()
	return nil
}
