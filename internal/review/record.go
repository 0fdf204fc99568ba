package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/revuhq/revu/internal/models"
)

// RecordPath returns the review record location for a PR: one file per PR
// number, scoped by repository, overwritten on re-review.
func RecordPath(dir string, pr models.PullRequestRef) string {
	repoSlug := strings.ReplaceAll(pr.Repository, "/", "-")
	return filepath.Join(dir, repoSlug, fmt.Sprintf("pr-%d.json", pr.Number))
}

// WriteRecord serializes the review to its record path, assigning a ULID
// the first time the review is persisted. The record is the sole durable
// artifact of a review pass and the recovery point for interrupted
// deliveries.
func WriteRecord(dir string, rev *models.Review) (string, error) {
	if rev.ID == "" {
		rev.ID = ulid.Make().String()
	}

	path := RecordPath(dir, rev.PullRequestRef)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create records dir: %w", err)
	}

	data, err := json.MarshalIndent(rev, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal review: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}
	return path, nil
}

// LoadRecord reads a previously written review record.
func LoadRecord(dir, repo string, number int) (*models.Review, error) {
	path := RecordPath(dir, models.PullRequestRef{Number: number, Repository: repo})
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rev models.Review
	if err := json.Unmarshal(data, &rev); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", path, err)
	}
	return &rev, nil
}
