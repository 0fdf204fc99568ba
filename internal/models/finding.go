package models

import (
	"fmt"
	"sort"
	"strings"
)

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeveritySuggestion:
		return true
	}
	return false
}

// Rank returns the sort rank of the severity. Lower sorts first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeveritySuggestion:
		return 2
	}
	return 3
}

// Finding is one reviewer observation anchored to a line on the new side
// of the diff.
type Finding struct {
	ID         int      `json:"id"`
	Severity   Severity `json:"severity"`
	Confidence int      `json:"confidence"`
	Title      string   `json:"title"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Why        string   `json:"why"`
	Body       string   `json:"body"`

	// Approved is nil until the approval session visits the finding.
	// It is an operator decision and is never set from model output.
	Approved *bool `json:"approved,omitempty"`
	Posted   bool  `json:"posted,omitempty"`
}

// IsApproved reports whether the operator approved the finding.
func (f *Finding) IsApproved() bool {
	return f.Approved != nil && *f.Approved
}

// SortFindings orders findings by severity (critical, warning, suggestion).
// The sort is stable: equal-severity findings keep their original order.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity.Rank() < findings[j].Severity.Rank()
	})
}

// CountBySeverity returns the number of findings per severity.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// Summarize builds the one-line count summary for a set of findings,
// e.g. "3 findings: 1 critical, 2 suggestions".
func Summarize(findings []Finding) string {
	if len(findings) == 0 {
		return "no findings"
	}
	counts := CountBySeverity(findings)
	var parts []string
	for _, sev := range []Severity{SeverityCritical, SeverityWarning, SeveritySuggestion} {
		if n := counts[sev]; n > 0 {
			label := string(sev)
			if n != 1 {
				label += "s"
			}
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	noun := "findings"
	if len(findings) == 1 {
		noun = "finding"
	}
	return fmt.Sprintf("%d %s: %s", len(findings), noun, strings.Join(parts, ", "))
}
