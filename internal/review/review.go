package review

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/revuhq/revu/internal/git"
	"github.com/revuhq/revu/internal/llm"
	"github.com/revuhq/revu/internal/models"
	"github.com/revuhq/revu/internal/output"
)

// Phase is one step of the review workflow. Phases advance strictly in
// order; there is no re-entry.
type Phase string

const (
	PhaseResolvingPR      Phase = "resolving_pr"
	PhaseGatheringContext Phase = "gathering_context"
	PhaseAnalyzing        Phase = "analyzing"
	PhaseReporting        Phase = "reporting"
	PhaseApprovalPending  Phase = "approval_pending"
	PhasePosting          Phase = "posting"
	PhaseDone             Phase = "done"
)

// Generator is the single request/response generation capability the
// orchestrator analyzes diffs with.
type Generator interface {
	ReviewDiff(ctx context.Context, guidelines, diff, changedFiles string) (string, error)
}

// Config holds review workflow configuration.
type Config struct {
	Post         bool
	PRListLimit  int
	MaxDiffChars int
	RecordsDir   string
	WorkDir      string
}

// DefaultConfig returns the review config, reading from viper when available.
func DefaultConfig() Config {
	limit := viper.GetInt("github.pr_list_limit")
	if limit <= 0 {
		limit = 15
	}
	maxChars := viper.GetInt("review.max_diff_chars")
	if maxChars <= 0 {
		maxChars = 100000
	}
	recordsDir := viper.GetString("review.records_dir")
	if recordsDir == "" {
		home, _ := os.UserHomeDir()
		recordsDir = filepath.Join(home, ".config", "revu", "reviews")
	}

	// Guidelines live at the repo root, which may not be the invocation dir.
	wd, _ := os.Getwd()
	if root, err := git.NewClient().RepoRoot(wd); err == nil {
		wd = root
	}

	return Config{
		PRListLimit:  limit,
		MaxDiffChars: maxChars,
		RecordsDir:   recordsDir,
		WorkDir:      wd,
	}
}

// Orchestrator drives one review pass end to end. It exclusively owns the
// review aggregate for the invocation.
type Orchestrator struct {
	ui    *output.UI
	gh    git.GitHubClient
	gen   Generator
	cfg   Config
	phase Phase
}

// NewOrchestrator creates a review orchestrator.
func NewOrchestrator(ui *output.UI, gh git.GitHubClient, gen Generator, cfg Config) *Orchestrator {
	return &Orchestrator{ui: ui, gh: gh, gen: gen, cfg: cfg}
}

// Phase returns the workflow phase the orchestrator last entered.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

func (o *Orchestrator) setPhase(p Phase) {
	o.phase = p
	o.ui.VerboseLog("phase: %s", p)
}

// Run executes the review workflow: resolve PR, gather context, analyze,
// report, and, when posting was requested, approve and deliver. Every
// successful terminal state returns nil; fatal errors bubble up to the CLI.
func (o *Orchestrator) Run(ctx context.Context, explicitRef string) error {
	o.setPhase(PhaseResolvingPR)
	pr, err := o.resolvePR(explicitRef)
	if err != nil {
		return err
	}
	o.ui.Info("Reviewing %s#%d (base %s)", pr.Repository, pr.Number, pr.BaseBranch)

	o.setPhase(PhaseGatheringContext)
	guidelines, source := LoadGuidelines(o.cfg.WorkDir)
	if source == "" {
		o.ui.Warning("No guideline file found; falling back to generic review practices")
	} else {
		o.ui.VerboseLog("guidelines: %s", source)
	}

	diff, err := o.gh.Diff(pr.Number)
	if err != nil {
		return fmt.Errorf("fetch diff: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		o.setPhase(PhaseDone)
		o.ui.Success("Nothing to review: PR #%d has no diff content", pr.Number)
		return nil
	}
	diff = truncateDiff(diff, o.cfg.MaxDiffChars)

	changed, err := o.gh.ChangedFiles(pr.Number)
	if err != nil {
		return fmt.Errorf("fetch changed files: %w", err)
	}

	o.setPhase(PhaseAnalyzing)
	o.ui.Info("Analyzing diff...")
	raw, err := o.gen.ReviewDiff(ctx, guidelines, diff, changed)
	if err != nil {
		return fmt.Errorf("analyze diff: %w", err)
	}
	findings, err := llm.ParseFindings(raw)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		o.setPhase(PhaseDone)
		o.ui.Success("No issues found, nice work!")
		return nil
	}

	models.SortFindings(findings)
	rev := &models.Review{
		PullRequestRef: *pr,
		ReviewedAt:     time.Now().UTC(),
		Summary:        models.Summarize(findings),
		Findings:       findings,
	}

	o.setPhase(PhaseReporting)
	renderReport(o.ui, rev)
	if !o.cfg.Post {
		o.setPhase(PhaseDone)
		return nil
	}

	o.setPhase(PhaseApprovalPending)
	session := NewApprovalSession(o.ui)
	rev.Findings, err = session.Run(rev.Findings)
	if err != nil {
		return err
	}
	approved := rev.ApprovedFindings()
	if len(approved) == 0 {
		o.setPhase(PhaseDone)
		o.ui.Info("Nothing approved; no comments will be posted.")
		return nil
	}

	o.setPhase(PhasePosting)
	ok, err := o.ui.Confirm(fmt.Sprintf("Post %d approved finding(s) to %s#%d?", len(approved), pr.Repository, pr.Number), true)
	if err != nil {
		return err
	}
	if !ok {
		o.setPhase(PhaseDone)
		o.ui.Info("Posting cancelled; nothing was sent to the host.")
		return nil
	}

	// The record goes to disk before any host mutation so a crash during
	// delivery leaves a recoverable artifact.
	path, err := WriteRecord(o.cfg.RecordsDir, rev)
	if err != nil {
		return fmt.Errorf("write review record: %w", err)
	}
	o.ui.VerboseLog("review record: %s", path)

	deliverer := NewDeliverer(o.gh, o.ui)
	deliverErr := deliverer.Deliver(rev)

	// Refresh the record so posted flags reflect what actually landed.
	if _, err := WriteRecord(o.cfg.RecordsDir, rev); err != nil {
		o.ui.Warning("Could not update review record: %v", err)
	}
	if deliverErr != nil {
		return deliverErr
	}

	o.setPhase(PhaseDone)
	return nil
}

// truncateDiff caps diff to max characters, appending an explicit marker
// when content was cut so the model never sees a silently clipped diff.
func truncateDiff(diff string, max int) string {
	if len(diff) <= max {
		return diff
	}
	return diff[:max] + fmt.Sprintf("\n\n[diff truncated at %d characters]", max)
}
