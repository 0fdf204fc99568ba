package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/revuhq/revu/internal/git"
	"github.com/revuhq/revu/internal/linear"
	"github.com/revuhq/revu/internal/llm"
	"github.com/revuhq/revu/internal/models"
	"github.com/revuhq/revu/internal/output"
	"github.com/revuhq/revu/internal/review"
)

// Generator is the model capability the MCP tools need.
type Generator interface {
	ReviewDiff(ctx context.Context, guidelines, diff, changedFiles string) (string, error)
	DraftTicket(ctx context.Context, content string) (string, error)
}

// Tracker files tickets in the issue tracker.
type Tracker interface {
	CreateIssue(ctx context.Context, teamID, title, description string) (*linear.Issue, error)
}

// Server re-exposes revu's review and ticket operations as MCP tools.
// Tools never run interactive prompts: reviews are analyze-only, and
// posting draws approvals from a record written by a prior interactive run.
type Server struct {
	gh      git.GitHubClient
	gen     Generator
	tracker Tracker
	ui      *output.UI
	cfg     review.Config
	teamID  string
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(gh git.GitHubClient, gen Generator, tracker Tracker, ui *output.UI, cfg review.Config, teamID string) *Server {
	return &Server{gh: gh, gen: gen, tracker: tracker, ui: ui, cfg: cfg, teamID: teamID}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("revu", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listPRsTool())
	srv.AddTool(s.reviewPRTool())
	srv.AddTool(s.postReviewTool())
	srv.AddTool(s.createTicketTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// revu_list_prs
func (s *Server) listPRsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("revu_list_prs",
		mcp.WithDescription("List open pull requests in the current repository. Returns a JSON array with number, title, branch, and url."),
		mcp.WithNumber("limit", mcp.Description("Maximum PRs to return (default 15)")),
	)
	return tool, s.handleListPRs
}

func (s *Server) handleListPRs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", s.cfg.PRListLimit)
	prs, err := s.gh.OpenPRs(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list PRs: %v", err)), nil
	}
	return jsonResult(prs)
}

// revu_review_pr
func (s *Server) reviewPRTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("revu_review_pr",
		mcp.WithDescription("Analyze a pull request's diff against the repo's review guidelines. Returns a JSON review with sorted findings. Never posts anything."),
		mcp.WithNumber("pr", mcp.Required(), mcp.Description("Pull request number")),
	)
	return tool, s.handleReviewPR
}

func (s *Server) handleReviewPR(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	number, err := request.RequireInt("pr")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: pr"), nil
	}

	repo, err := s.gh.CurrentRepo()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("identify repository: %v", err)), nil
	}
	details, err := s.gh.PRDetails(number)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve PR #%d: %v", number, err)), nil
	}

	diff, err := s.gh.Diff(number)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetch diff: %v", err)), nil
	}

	out := map[string]any{
		"pr":       details.Number,
		"repo":     repo,
		"summary":  "nothing to review",
		"findings": []models.Finding{},
	}
	if strings.TrimSpace(diff) == "" {
		return jsonResult(out)
	}

	changed, err := s.gh.ChangedFiles(number)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetch changed files: %v", err)), nil
	}
	guidelines, _ := review.LoadGuidelines(s.cfg.WorkDir)

	raw, err := s.gen.ReviewDiff(ctx, guidelines, diff, changed)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analyze diff: %v", err)), nil
	}
	findings, err := llm.ParseFindings(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	models.SortFindings(findings)

	out["summary"] = models.Summarize(findings)
	out["findings"] = findings
	return jsonResult(out)
}

// revu_post_review
func (s *Server) postReviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("revu_post_review",
		mcp.WithDescription("Post the approved findings from an existing review record to the pull request. Approvals come from a prior interactive 'revu review --post' run; this tool never approves findings itself."),
		mcp.WithNumber("pr", mcp.Required(), mcp.Description("Pull request number with an existing review record")),
	)
	return tool, s.handlePostReview
}

func (s *Server) handlePostReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	number, err := request.RequireInt("pr")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: pr"), nil
	}

	repo, err := s.gh.CurrentRepo()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("identify repository: %v", err)), nil
	}
	rec, err := review.LoadRecord(s.cfg.RecordsDir, repo, number)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no review record for %s#%d: %v", repo, number, err)), nil
	}
	approved := rec.ApprovedFindings()
	if len(approved) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("record for %s#%d has no approved findings", repo, number)), nil
	}

	deliverer := review.NewDeliverer(s.gh, s.ui)
	deliverErr := deliverer.Deliver(rec)
	if _, err := review.WriteRecord(s.cfg.RecordsDir, rec); err != nil {
		s.ui.Warning("Could not update review record: %v", err)
	}
	if deliverErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delivery failed: %v", deliverErr)), nil
	}

	posted := 0
	for i := range rec.Findings {
		if rec.Findings[i].Posted {
			posted++
		}
	}
	return jsonResult(map[string]any{
		"pr":       number,
		"repo":     repo,
		"approved": len(approved),
		"posted":   posted,
	})
}

// revu_create_ticket
func (s *Server) createTicketTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("revu_create_ticket",
		mcp.WithDescription("Draft a ticket from free-form notes and file it in the issue tracker. Returns the created issue's identifier and url."),
		mcp.WithString("notes", mcp.Required(), mcp.Description("Free-form notes describing the work")),
		mcp.WithString("team_id", mcp.Description("Tracker team id (defaults to the configured team)")),
	)
	return tool, s.handleCreateTicket
}

func (s *Server) handleCreateTicket(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.tracker == nil {
		return mcp.NewToolResultError("linear.api_key not configured"), nil
	}
	notes, err := request.RequireString("notes")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: notes"), nil
	}
	teamID := request.GetString("team_id", s.teamID)
	if teamID == "" {
		return mcp.NewToolResultError("no team_id given and linear.team_id not configured"), nil
	}

	raw, err := s.gen.DraftTicket(ctx, notes)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("draft ticket: %v", err)), nil
	}
	ticket, err := llm.ParseTicket(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	issue, err := s.tracker.CreateIssue(ctx, teamID, ticket.Title, ticket.Description)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create issue: %v", err)), nil
	}
	return jsonResult(issue)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
