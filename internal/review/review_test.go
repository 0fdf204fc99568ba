package review

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revuhq/revu/internal/git"
	"github.com/revuhq/revu/internal/output"
)

// fakeGitHub scripts the host capability for orchestrator tests.
type fakeGitHub struct {
	repo      string
	branchPR  *git.PRDetails
	branchErr error
	open      []git.PullRequest
	openErr   error
	details   map[int]*git.PRDetails
	diff      string
	changed   string

	reviewErr   error
	reviewCalls int

	commentErrs map[string]error // matched by substring of body
	comments    []string
}

func (f *fakeGitHub) CurrentRepo() (string, error) {
	if f.repo == "" {
		return "", errors.New("no repo")
	}
	return f.repo, nil
}

func (f *fakeGitHub) PRForBranch() (*git.PRDetails, error) {
	if f.branchErr != nil {
		return nil, f.branchErr
	}
	if f.branchPR == nil {
		return nil, errors.New("no pull requests found for branch")
	}
	return f.branchPR, nil
}

func (f *fakeGitHub) OpenPRs(limit int) ([]git.PullRequest, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	if len(f.open) > limit {
		return f.open[:limit], nil
	}
	return f.open, nil
}

func (f *fakeGitHub) PRDetails(number int) (*git.PRDetails, error) {
	d, ok := f.details[number]
	if !ok {
		return nil, fmt.Errorf("no pull request #%d", number)
	}
	return d, nil
}

func (f *fakeGitHub) Diff(number int) (string, error)         { return f.diff, nil }
func (f *fakeGitHub) ChangedFiles(number int) (string, error) { return f.changed, nil }

func (f *fakeGitHub) CreateReview(repo string, number int, body string, comments []git.ReviewComment) error {
	f.reviewCalls++
	return f.reviewErr
}

func (f *fakeGitHub) CreateComment(repo string, number int, body string) error {
	for sub, err := range f.commentErrs {
		if strings.Contains(body, sub) {
			return err
		}
	}
	f.comments = append(f.comments, body)
	return nil
}

// fakeGen scripts the generation capability.
type fakeGen struct {
	response string
	err      error
	calls    int
}

func (g *fakeGen) ReviewDiff(ctx context.Context, guidelines, diff, changedFiles string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func newTestUI(input string) (*output.UI, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &output.UI{In: strings.NewReader(input), Out: out, ErrOut: errOut}, out, errOut
}

const scenarioFinding = `[{"id":1,"severity":"critical","confidence":95,"title":"X","file":"a.ts","line":3,"why":"Y","body":"Z"}]`

func testPR() *git.PRDetails {
	return &git.PRDetails{Number: 42, Title: "Add thing", BaseBranch: "main", HeadSHA: "deadbeef"}
}

func newTestOrchestrator(t *testing.T, gh *fakeGitHub, gen *fakeGen, post bool, input string) (*Orchestrator, *bytes.Buffer, *bytes.Buffer, string) {
	t.Helper()
	ui, out, errOut := newTestUI(input)
	recordsDir := t.TempDir()
	cfg := Config{
		Post:         post,
		PRListLimit:  15,
		MaxDiffChars: 100000,
		RecordsDir:   recordsDir,
		WorkDir:      t.TempDir(),
	}
	return NewOrchestrator(ui, gh, gen, cfg), out, errOut, recordsDir
}

func TestRunEmptyDiffShortCircuits(t *testing.T) {
	gh := &fakeGitHub{
		repo:    "revuhq/demo",
		details: map[int]*git.PRDetails{42: testPR()},
		diff:    "   \n",
	}
	gen := &fakeGen{response: scenarioFinding}
	o, out, _, _ := newTestOrchestrator(t, gh, gen, false, "")

	err := o.Run(context.Background(), "42")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Nothing to review")
	assert.Equal(t, 0, gen.calls, "generator must not run on an empty diff")
	assert.Equal(t, PhaseDone, o.Phase())
}

func TestRunZeroFindings(t *testing.T) {
	gh := &fakeGitHub{
		repo:    "revuhq/demo",
		details: map[int]*git.PRDetails{42: testPR()},
		diff:    "diff --git a/a.ts b/a.ts\n+line",
		changed: "a.ts | +1 -0",
	}
	gen := &fakeGen{response: "[]"}
	o, out, _, recordsDir := newTestOrchestrator(t, gh, gen, true, "")

	err := o.Run(context.Background(), "42")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No issues found")

	// No record file for a clean pass.
	entries, err := os.ReadDir(recordsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunReportWithoutPost(t *testing.T) {
	gh := &fakeGitHub{
		repo:    "revuhq/demo",
		details: map[int]*git.PRDetails{42: testPR()},
		diff:    "diff --git a/a.ts b/a.ts\n+line",
		changed: "a.ts | +1 -0",
	}
	gen := &fakeGen{response: scenarioFinding}
	o, out, _, recordsDir := newTestOrchestrator(t, gh, gen, false, "")

	err := o.Run(context.Background(), "42")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "critical")
	assert.Contains(t, out.String(), "a.ts:3")
	assert.Equal(t, 0, gh.reviewCalls, "must not post without --post")

	entries, err := os.ReadDir(recordsDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no record without --post")
}

func TestRunPostApprovedPrimarySuccess(t *testing.T) {
	gh := &fakeGitHub{
		repo:    "revuhq/demo",
		details: map[int]*git.PRDetails{42: testPR()},
		diff:    "diff --git a/a.ts b/a.ts\n+line",
		changed: "a.ts | +1 -0",
	}
	gen := &fakeGen{response: scenarioFinding}
	// approve the finding, then confirm posting
	o, _, _, recordsDir := newTestOrchestrator(t, gh, gen, true, "a\ny\n")

	err := o.Run(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 1, gh.reviewCalls)

	rec, err := LoadRecord(recordsDir, "revuhq/demo", 42)
	require.NoError(t, err)
	require.Len(t, rec.Findings, 1)
	assert.True(t, rec.Findings[0].IsApproved())
	assert.True(t, rec.Findings[0].Posted)
	assert.Equal(t, "revuhq/demo", rec.Repository)
	assert.Equal(t, "deadbeef", rec.HeadSHA)
	assert.False(t, rec.ReviewedAt.IsZero())
}

func TestRunPostNothingApproved(t *testing.T) {
	gh := &fakeGitHub{
		repo:    "revuhq/demo",
		details: map[int]*git.PRDetails{42: testPR()},
		diff:    "diff --git a/a.ts b/a.ts\n+line",
		changed: "a.ts | +1 -0",
	}
	gen := &fakeGen{response: scenarioFinding}
	o, out, _, _ := newTestOrchestrator(t, gh, gen, true, "s\n")

	err := o.Run(context.Background(), "42")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Nothing approved")
	assert.Equal(t, 0, gh.reviewCalls, "no host mutation when nothing approved")
	assert.Empty(t, gh.comments)
}

func TestRunRecordWrittenBeforeDelivery(t *testing.T) {
	gh := &fakeGitHub{
		repo:      "revuhq/demo",
		details:   map[int]*git.PRDetails{42: testPR()},
		diff:      "diff --git a/a.ts b/a.ts\n+line",
		changed:   "a.ts | +1 -0",
		reviewErr: errors.New("HTTP 500: boom"),
	}
	gen := &fakeGen{response: scenarioFinding}
	o, _, _, recordsDir := newTestOrchestrator(t, gh, gen, true, "a\ny\n")

	err := o.Run(context.Background(), "42")
	require.Error(t, err, "non-anchor delivery failure is fatal")

	// The record survives the failed delivery.
	rec, loadErr := LoadRecord(recordsDir, "revuhq/demo", 42)
	require.NoError(t, loadErr)
	assert.True(t, rec.Findings[0].IsApproved())
	assert.False(t, rec.Findings[0].Posted)
}

func TestRunAnchorFailureFallsBack(t *testing.T) {
	gh := &fakeGitHub{
		repo:      "revuhq/demo",
		details:   map[int]*git.PRDetails{42: testPR()},
		diff:      "diff --git a/a.ts b/a.ts\n+line",
		changed:   "a.ts | +1 -0",
		reviewErr: fmt.Errorf("%w: HTTP 422", git.ErrAnchorNotInDiff),
	}
	gen := &fakeGen{response: scenarioFinding}
	o, _, _, recordsDir := newTestOrchestrator(t, gh, gen, true, "a\ny\n")

	err := o.Run(context.Background(), "42")
	require.NoError(t, err)

	// Exactly one summary comment plus one per-finding comment.
	require.Len(t, gh.comments, 2)
	assert.Contains(t, gh.comments[0], "| Severity | Count |")
	assert.Contains(t, gh.comments[1], "a.ts:3")

	rec, err := LoadRecord(recordsDir, "revuhq/demo", 42)
	require.NoError(t, err)
	assert.True(t, rec.Findings[0].Posted)
}

func TestRunUnparsableModelOutput(t *testing.T) {
	gh := &fakeGitHub{
		repo:    "revuhq/demo",
		details: map[int]*git.PRDetails{42: testPR()},
		diff:    "diff --git a/a.ts b/a.ts\n+line",
		changed: "a.ts | +1 -0",
	}
	gen := &fakeGen{response: "here are my thoughts on this PR"}
	o, _, _, recordsDir := newTestOrchestrator(t, gh, gen, true, "")

	err := o.Run(context.Background(), "42")
	require.Error(t, err)

	_, loadErr := LoadRecord(recordsDir, "revuhq/demo", 42)
	assert.Error(t, loadErr, "no record on a failed analysis")
}

func TestRunGenerationFailureIsFatal(t *testing.T) {
	gh := &fakeGitHub{
		repo:    "revuhq/demo",
		details: map[int]*git.PRDetails{42: testPR()},
		diff:    "+x",
		changed: "a | +1 -0",
	}
	gen := &fakeGen{err: errors.New("rate limited")}
	o, _, _, _ := newTestOrchestrator(t, gh, gen, false, "")

	err := o.Run(context.Background(), "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, 1, gen.calls, "exactly one generation attempt, no retry")
}

func TestRunDeclinedFinalConfirmation(t *testing.T) {
	gh := &fakeGitHub{
		repo:    "revuhq/demo",
		details: map[int]*git.PRDetails{42: testPR()},
		diff:    "+x",
		changed: "a | +1 -0",
	}
	gen := &fakeGen{response: scenarioFinding}
	o, out, _, recordsDir := newTestOrchestrator(t, gh, gen, true, "a\nn\n")

	err := o.Run(context.Background(), "42")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Posting cancelled")
	assert.Equal(t, 0, gh.reviewCalls)

	entries, err := os.ReadDir(recordsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTruncateDiff(t *testing.T) {
	t.Run("under cap unchanged", func(t *testing.T) {
		assert.Equal(t, "short", truncateDiff("short", 100))
	})

	t.Run("over cap gets marker", func(t *testing.T) {
		got := truncateDiff(strings.Repeat("x", 200), 100)
		assert.True(t, strings.HasPrefix(got, strings.Repeat("x", 100)))
		assert.Contains(t, got, "[diff truncated at 100 characters]")
	})
}
