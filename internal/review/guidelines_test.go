package review

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGuidelinesFallback(t *testing.T) {
	text, source := LoadGuidelines(t.TempDir())
	assert.Empty(t, source)
	assert.Equal(t, genericGuidelines, text)
}

func TestLoadGuidelinesFirstCandidateWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CONTRIBUTING.md"), []byte("contrib rules"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "REVIEW_GUIDELINES.md"), []byte("review rules"), 0644))

	text, source := LoadGuidelines(dir)
	assert.Equal(t, "review rules", text)
	assert.Equal(t, filepath.Join(dir, "REVIEW_GUIDELINES.md"), source)
}

func TestLoadGuidelinesSkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "REVIEW_GUIDELINES.md"), []byte("  \n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CLAUDE.md"), []byte("project notes"), 0644))

	text, source := LoadGuidelines(dir)
	assert.Equal(t, "project notes", text)
	assert.Equal(t, filepath.Join(dir, "CLAUDE.md"), source)
}

func TestLoadGuidelinesNestedCandidate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".github"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".github", "REVIEW_GUIDELINES.md"), []byte("gh rules"), 0644))

	text, source := LoadGuidelines(dir)
	assert.Equal(t, "gh rules", text)
	assert.Contains(t, source, ".github")
}
