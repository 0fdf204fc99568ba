package review

import (
	"fmt"

	"github.com/revuhq/revu/internal/git"
	"github.com/revuhq/revu/internal/models"
)

// parsePRNumber extracts a PR number from an operator-supplied reference.
// The first run of digits wins, so plain numbers ("42") and URLs
// ("https://github.com/o/r/pull/42") both work.
func parsePRNumber(ref string) (int, error) {
	start := -1
	for i := 0; i < len(ref); i++ {
		if ref[i] >= '0' && ref[i] <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return 0, fmt.Errorf("no PR number in %q", ref)
	}
	n := 0
	for i := start; i < len(ref) && ref[i] >= '0' && ref[i] <= '9'; i++ {
		n = n*10 + int(ref[i]-'0')
	}
	if n <= 0 {
		return 0, fmt.Errorf("no PR number in %q", ref)
	}
	return n, nil
}

// resolvePR determines which PR is under review. An explicit reference is
// parsed and looked up directly; otherwise revu tries the current branch's
// PR and falls back to an interactive pick from the open-PR list.
func (o *Orchestrator) resolvePR(explicitRef string) (*models.PullRequestRef, error) {
	repo, err := o.gh.CurrentRepo()
	if err != nil {
		return nil, fmt.Errorf("identify repository: %w", err)
	}

	if explicitRef != "" {
		number, err := parsePRNumber(explicitRef)
		if err != nil {
			return nil, err
		}
		details, err := o.gh.PRDetails(number)
		if err != nil {
			return nil, fmt.Errorf("resolve PR #%d: %w", number, err)
		}
		return toRef(repo, details), nil
	}

	// Auto-detect from the current branch, but let the operator decline.
	if details, err := o.gh.PRForBranch(); err == nil && details != nil {
		ok, err := o.ui.Confirm(fmt.Sprintf("Review PR #%d (%s)?", details.Number, details.Title), true)
		if err != nil {
			return nil, err
		}
		if ok {
			return toRef(repo, details), nil
		}
	}

	prs, err := o.gh.OpenPRs(o.cfg.PRListLimit)
	if err != nil {
		return nil, fmt.Errorf("list open PRs: %w", err)
	}
	if len(prs) == 0 {
		return nil, fmt.Errorf("no open pull requests in %s", repo)
	}

	table := o.ui.Table([]string{"#", "PR", "Branch", "Title"})
	for i, pr := range prs {
		_ = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("#%d", pr.Number),
			pr.Branch,
			pr.Title,
		})
	}
	_ = table.Render()

	idx, err := o.ui.Select("Select a PR", len(prs))
	if err != nil {
		return nil, err
	}
	details, err := o.gh.PRDetails(prs[idx-1].Number)
	if err != nil {
		return nil, fmt.Errorf("resolve PR #%d: %w", prs[idx-1].Number, err)
	}
	return toRef(repo, details), nil
}

func toRef(repo string, details *git.PRDetails) *models.PullRequestRef {
	return &models.PullRequestRef{
		Number:     details.Number,
		Repository: repo,
		BaseBranch: details.BaseBranch,
		HeadSHA:    details.HeadSHA,
	}
}
