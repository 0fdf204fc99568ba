package models

import "time"

// PullRequestRef identifies the review target. It is created once per
// invocation and never mutated afterward.
type PullRequestRef struct {
	Number     int    `json:"pr"`
	Repository string `json:"repo"` // owner/name
	BaseBranch string `json:"baseBranch"`
	HeadSHA    string `json:"headSha"`
}

// Review is the aggregate for one review pass over a pull request. The
// PullRequestRef is embedded so the record file carries its fields at the
// top level (pr, repo, baseBranch, headSha). Findings are kept in severity
// order once analysis completes; only each finding's Approved field changes
// afterward, during the approval session.
type Review struct {
	ID string `json:"id"`
	PullRequestRef
	ReviewedAt time.Time `json:"reviewedAt"`
	Summary    string    `json:"summary"`
	Findings   []Finding `json:"findings"`
}

// ApprovedFindings returns the subset of findings the operator approved.
func (r *Review) ApprovedFindings() []Finding {
	var approved []Finding
	for _, f := range r.Findings {
		if f.IsApproved() {
			approved = append(approved, f)
		}
	}
	return approved
}
