package review

import (
	"os"
	"path/filepath"
	"strings"
)

// guidelineCandidates are checked in order; the first existing file wins.
var guidelineCandidates = []string{
	"REVIEW_GUIDELINES.md",
	filepath.Join(".github", "REVIEW_GUIDELINES.md"),
	"CONTRIBUTING.md",
	filepath.Join("docs", "CONTRIBUTING.md"),
	"CLAUDE.md",
}

// genericGuidelines is the fallback used when no guideline file exists.
// A missing guideline file is never fatal.
const genericGuidelines = `Apply generally accepted engineering practices: correctness first, then
clarity, error handling, security, performance, and test coverage. Flag
anything that would surprise a maintainer reading the change in six months.`

// LoadGuidelines returns the guideline text for the repo at dir plus the
// path it was loaded from. An empty source means the generic fallback.
func LoadGuidelines(dir string) (text, source string) {
	for _, candidate := range guidelineCandidates {
		path := filepath.Join(dir, candidate)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		return string(data), path
	}
	return genericGuidelines, ""
}
