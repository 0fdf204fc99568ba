package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/revuhq/revu/internal/git"
	"github.com/revuhq/revu/internal/mcp"
	"github.com/revuhq/revu/internal/output"
	"github.com/revuhq/revu/internal/review"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This re-exposes revu's operations as tools an agent can call. Configure
in Claude Code with:

  {
    "mcpServers": {
      "revu": { "command": "revu", "args": ["mcp"] }
    }
  }

Available tools: revu_list_prs, revu_review_pr, revu_post_review,
revu_create_ticket. Reviews over MCP are analyze-only; revu_post_review
only posts findings approved in a prior interactive 'revu review --post'
run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpRun() error {
	client, err := llmClient()
	if err != nil {
		return err
	}

	// stdout carries the protocol; all human-readable output goes to stderr.
	serverUI := output.New()
	serverUI.Out = os.Stderr

	var tracker mcp.Tracker
	if lc, err := linearClient(); err == nil {
		tracker = lc
	}

	server := mcp.NewServer(
		git.NewGitHubClient(),
		client,
		tracker,
		serverUI,
		review.DefaultConfig(),
		viper.GetString("linear.team_id"),
	)
	return server.ServeStdio(context.Background())
}
