package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/revuhq/revu/internal/git"
	"github.com/revuhq/revu/internal/models"
	"github.com/revuhq/revu/internal/output"
)

// Deliverer posts approved findings to the host. The primary strategy is
// one structured review with inline comments; when the host rejects the
// comment anchors, it falls back to flat top-level comments, best-effort
// per item.
type Deliverer struct {
	gh git.GitHubClient
	ui *output.UI
}

// NewDeliverer creates a delivery engine.
func NewDeliverer(gh git.GitHubClient, ui *output.UI) *Deliverer {
	return &Deliverer{gh: gh, ui: ui}
}

// Deliver posts the review's approved findings, marking each finding's
// Posted flag as it lands. It fails only when the primary strategy fails
// for a non-anchor reason, or when the fallback delivers nothing at all.
func (d *Deliverer) Deliver(rev *models.Review) error {
	approved := approvedIndexes(rev)
	if len(approved) == 0 {
		return nil
	}

	summary := summaryBody(rev)
	comments := make([]git.ReviewComment, 0, len(approved))
	for _, i := range approved {
		f := rev.Findings[i]
		comments = append(comments, git.ReviewComment{
			Path: f.File,
			Line: f.Line,
			Side: "RIGHT",
			Body: inlineBody(f),
		})
	}

	err := d.gh.CreateReview(rev.Repository, rev.Number, summary, comments)
	if err == nil {
		for _, i := range approved {
			rev.Findings[i].Posted = true
		}
		d.ui.Success("Posted review with %d inline comment(s) to %s#%d", len(comments), rev.Repository, rev.Number)
		return nil
	}
	if !errors.Is(err, git.ErrAnchorNotInDiff) {
		return fmt.Errorf("post review: %w", err)
	}

	d.ui.Warning("Inline comments rejected (anchors outside diff); falling back to flat comments")
	return d.deliverFlat(rev, approved, summary)
}

// deliverFlat posts the summary plus one flat comment per finding. Each
// item is attempted independently; one failure never blocks the rest.
func (d *Deliverer) deliverFlat(rev *models.Review, approved []int, summary string) error {
	posted := 0
	attempted := 0

	attempted++
	if err := d.gh.CreateComment(rev.Repository, rev.Number, summary); err != nil {
		d.ui.Warning("Summary comment failed: %v", err)
	} else {
		posted++
		d.ui.Success("Summary comment posted")
	}

	for _, i := range approved {
		f := &rev.Findings[i]
		attempted++
		if err := d.gh.CreateComment(rev.Repository, rev.Number, flatBody(*f)); err != nil {
			d.ui.Warning("Comment for finding %d (%s:%d) failed: %v", f.ID, f.File, f.Line, err)
			continue
		}
		f.Posted = true
		posted++
	}

	d.ui.Info("Posted %d of %d comment(s)", posted, attempted)
	if posted == 0 {
		return fmt.Errorf("flat comment fallback: all %d comment(s) failed", attempted)
	}
	return nil
}

func approvedIndexes(rev *models.Review) []int {
	var idx []int
	for i := range rev.Findings {
		if rev.Findings[i].IsApproved() {
			idx = append(idx, i)
		}
	}
	return idx
}

// summaryBody synthesizes the review summary: a count-by-severity table
// followed by the one-line summary string.
func summaryBody(rev *models.Review) string {
	counts := models.CountBySeverity(rev.Findings)

	var sb strings.Builder
	sb.WriteString("## Code review\n\n")
	sb.WriteString("| Severity | Count |\n|---|---|\n")
	for _, sev := range []models.Severity{models.SeverityCritical, models.SeverityWarning, models.SeveritySuggestion} {
		fmt.Fprintf(&sb, "| %s | %d |\n", sev, counts[sev])
	}
	sb.WriteString("\n")
	sb.WriteString(rev.Summary)
	sb.WriteString("\n")
	return sb.String()
}

func inlineBody(f models.Finding) string {
	return fmt.Sprintf("**%s** (%s, confidence %d%%)\n\n%s\n\n%s", f.Title, f.Severity, f.Confidence, f.Why, f.Body)
}

func flatBody(f models.Finding) string {
	return fmt.Sprintf("**%s** in `%s:%d` (%s, confidence %d%%)\n\n%s\n\n%s", f.Title, f.File, f.Line, f.Severity, f.Confidence, f.Why, f.Body)
}
