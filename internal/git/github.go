package git

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrAnchorNotInDiff reports that the host rejected a review because one or
// more comment anchors do not fall on lines present in the diff. Callers
// classify it with errors.Is and may fall back to flat comments.
var ErrAnchorNotInDiff = errors.New("comment anchor not in diff")

// PullRequest represents a GitHub pull request in a listing.
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Branch string `json:"headRefName"`
	URL    string `json:"url"`
}

// PRDetails holds the metadata needed to target a review at a PR.
type PRDetails struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	BaseBranch string `json:"baseRefName"`
	HeadSHA    string `json:"headRefOid"`
	URL        string `json:"url"`
}

// ReviewComment is one inline comment anchored to a line on the new side
// of the diff.
type ReviewComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Side string `json:"side"`
	Body string `json:"body"`
}

// GitHubClient is the version-control host capability, backed by the gh CLI.
type GitHubClient interface {
	CurrentRepo() (string, error)
	PRForBranch() (*PRDetails, error)
	OpenPRs(limit int) ([]PullRequest, error)
	PRDetails(number int) (*PRDetails, error)
	Diff(number int) (string, error)
	ChangedFiles(number int) (string, error)
	CreateReview(repo string, number int, body string, comments []ReviewComment) error
	CreateComment(repo string, number int, body string) error
}

// RealGitHubClient implements GitHubClient using the gh CLI.
type RealGitHubClient struct{}

// NewGitHubClient returns a new RealGitHubClient.
func NewGitHubClient() *RealGitHubClient {
	return &RealGitHubClient{}
}

func ghCmd(args ...string) (string, error) {
	return ghCmdInput("", args...)
}

func ghCmdInput(stdin string, args ...string) (string, error) {
	cmd := exec.Command("gh", args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("gh %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("gh %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentRepo returns the owner/name of the repository gh resolves from the
// working directory's git configuration. When gh cannot answer (for example
// a detached HEAD in a fresh environment), the origin remote URL is parsed
// directly.
func (c *RealGitHubClient) CurrentRepo() (string, error) {
	out, err := ghCmd("repo", "view", "--json", "nameWithOwner", "--jq", ".nameWithOwner")
	if err == nil && out != "" {
		return out, nil
	}
	if err == nil {
		err = fmt.Errorf("cannot determine current repository")
	}

	wd, wdErr := os.Getwd()
	if wdErr != nil {
		return "", err
	}
	remote, remoteErr := NewClient().RemoteURL(wd)
	if remoteErr != nil {
		return "", err
	}
	owner, name, parseErr := ExtractOwnerRepo(remote)
	if parseErr != nil {
		return "", err
	}
	return owner + "/" + name, nil
}

// PRForBranch returns the open PR associated with the current branch, if any.
func (c *RealGitHubClient) PRForBranch() (*PRDetails, error) {
	out, err := ghCmd("pr", "view", "--json", "number,title,baseRefName,headRefOid,url")
	if err != nil {
		return nil, err
	}
	var pr PRDetails
	if err := json.Unmarshal([]byte(out), &pr); err != nil {
		return nil, fmt.Errorf("parse PR: %w", err)
	}
	return &pr, nil
}

// OpenPRs lists open pull requests, bounded to limit.
func (c *RealGitHubClient) OpenPRs(limit int) ([]PullRequest, error) {
	out, err := ghCmd("pr", "list",
		"--state", "open",
		"--limit", fmt.Sprintf("%d", limit),
		"--json", "number,title,headRefName,url",
	)
	if err != nil {
		return nil, err
	}
	var prs []PullRequest
	if err := json.Unmarshal([]byte(out), &prs); err != nil {
		return nil, fmt.Errorf("parse PRs: %w", err)
	}
	return prs, nil
}

// PRDetails looks up a PR by number.
func (c *RealGitHubClient) PRDetails(number int) (*PRDetails, error) {
	out, err := ghCmd("pr", "view", fmt.Sprintf("%d", number),
		"--json", "number,title,baseRefName,headRefOid,url",
	)
	if err != nil {
		return nil, err
	}
	var pr PRDetails
	if err := json.Unmarshal([]byte(out), &pr); err != nil {
		return nil, fmt.Errorf("parse PR: %w", err)
	}
	return &pr, nil
}

// Diff returns the unified diff between the PR's base and head.
func (c *RealGitHubClient) Diff(number int) (string, error) {
	return ghCmd("pr", "diff", fmt.Sprintf("%d", number))
}

type changedFile struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// ChangedFiles returns a stat-style summary of the PR's changed files.
func (c *RealGitHubClient) ChangedFiles(number int) (string, error) {
	out, err := ghCmd("pr", "view", fmt.Sprintf("%d", number), "--json", "files", "--jq", ".files")
	if err != nil {
		return "", err
	}
	var files []changedFile
	if err := json.Unmarshal([]byte(out), &files); err != nil {
		return "", fmt.Errorf("parse changed files: %w", err)
	}
	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "%s | +%d -%d\n", f.Path, f.Additions, f.Deletions)
	}
	return strings.TrimSpace(sb.String()), nil
}

// reviewRequest is the payload for the create-review API call.
type reviewRequest struct {
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments,omitempty"`
}

// CreateReview submits one structured review with inline comments. Anchor
// validation failures are classified and returned as ErrAnchorNotInDiff so
// callers never have to inspect host error text themselves.
func (c *RealGitHubClient) CreateReview(repo string, number int, body string, comments []ReviewComment) error {
	payload, err := json.Marshal(reviewRequest{
		Body:     body,
		Event:    "COMMENT",
		Comments: comments,
	})
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}

	_, err = ghCmdInput(string(payload), "api",
		fmt.Sprintf("repos/%s/pulls/%d/reviews", repo, number),
		"--method", "POST",
		"--input", "-",
	)
	if err != nil {
		if isAnchorError(err.Error()) {
			return fmt.Errorf("%w: %s", ErrAnchorNotInDiff, err.Error())
		}
		return err
	}
	return nil
}

// isAnchorError matches the API validation messages GitHub returns when a
// review comment targets a line outside the diff.
func isAnchorError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, sig := range []string{
		"must be part of the diff",
		"position is invalid",
		"pull_request_review_thread",
	} {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

// CreateComment posts one flat top-level comment on the PR.
func (c *RealGitHubClient) CreateComment(repo string, number int, body string) error {
	_, err := ghCmd("api",
		fmt.Sprintf("repos/%s/issues/%d/comments", repo, number),
		"--method", "POST",
		"-f", "body="+body,
	)
	return err
}
