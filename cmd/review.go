package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/revuhq/revu/internal/git"
	"github.com/revuhq/revu/internal/review"
)

var reviewPost bool

var reviewCmd = &cobra.Command{
	Use:   "review [pr]",
	Short: "Review a pull request with AI assistance",
	Long: `Review a pull request: fetch its diff, analyze it against the repo's
review guidelines, and print the findings sorted by severity.

The PR may be given as a number or URL. Without an argument, revu tries
the current branch's PR and falls back to picking from the open-PR list.

With --post, each finding goes through an interactive approve/skip/edit
pass and the approved subset is posted to GitHub as a review with inline
comments (falling back to flat comments when anchors are rejected).

Requires ANTHROPIC_API_KEY and an authenticated gh CLI.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		return reviewRun(ref)
	},
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewPost, "post", false, "Approve findings interactively and post them to the PR")
	rootCmd.AddCommand(reviewCmd)
}

func reviewRun(ref string) error {
	client, err := llmClient()
	if err != nil {
		return err
	}

	cfg := review.DefaultConfig()
	cfg.Post = reviewPost

	o := review.NewOrchestrator(ui, git.NewGitHubClient(), client, cfg)
	return o.Run(context.Background(), ref)
}
