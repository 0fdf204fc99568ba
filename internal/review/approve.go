package review

import (
	"fmt"

	"github.com/revuhq/revu/internal/models"
	"github.com/revuhq/revu/internal/output"
)

// ApprovalSession walks the operator through every finding, one at a time.
// It is pure local interaction: no generator or host calls, no bulk
// actions, no undo.
type ApprovalSession struct {
	ui *output.UI
}

// NewApprovalSession creates an approval session on the given UI.
func NewApprovalSession(ui *output.UI) *ApprovalSession {
	return &ApprovalSession{ui: ui}
}

// Run visits each finding in order and records the operator's decision:
// approve, skip, or edit (replacement body, blank keeps the current one,
// and editing implies approval). Decisions are final once recorded.
func (s *ApprovalSession) Run(findings []models.Finding) ([]models.Finding, error) {
	approvedTotal := 0
	for i := range findings {
		f := &findings[i]
		fmt.Fprintln(s.ui.Out)
		renderFinding(s.ui, f, i+1, len(findings))

		decided := false
		for !decided {
			answer, err := s.ui.Prompt("[a]pprove / [s]kip / [e]dit:")
			if err != nil {
				return nil, fmt.Errorf("read approval decision: %w", err)
			}
			switch answer {
			case "a", "approve":
				yes := true
				f.Approved = &yes
				approvedTotal++
				decided = true
			case "s", "skip":
				no := false
				f.Approved = &no
				decided = true
			case "e", "edit":
				body, err := s.ui.Prompt("Replacement body (blank keeps current):")
				if err != nil {
					return nil, fmt.Errorf("read replacement body: %w", err)
				}
				if body != "" {
					f.Body = body
				}
				yes := true
				f.Approved = &yes
				approvedTotal++
				decided = true
			default:
				s.ui.Warning("Answer a, s, or e")
			}
		}
	}

	fmt.Fprintln(s.ui.Out)
	s.ui.Info("Approved %d of %d finding(s)", approvedTotal, len(findings))
	return findings, nil
}
