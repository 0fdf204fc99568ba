package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revuhq/revu/internal/models"
)

const validFindingsJSON = `[
  {"id": 99, "severity": "critical", "confidence": 95, "title": "Nil deref", "file": "a.go", "line": 3, "why": "Crashes on empty input.", "body": "Check for nil before dereferencing."},
  {"id": 1, "severity": "suggestion", "confidence": 60, "title": "Rename var", "file": "b.go", "line": 10, "why": "Name is misleading.", "body": "Consider renaming x to count."}
]`

func TestParseFindings(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		findings, err := ParseFindings(validFindingsJSON)
		require.NoError(t, err)
		require.Len(t, findings, 2)

		assert.Equal(t, models.SeverityCritical, findings[0].Severity)
		assert.Equal(t, "Nil deref", findings[0].Title)
		assert.Equal(t, "a.go", findings[0].File)
		assert.Equal(t, 3, findings[0].Line)
	})

	t.Run("fenced JSON", func(t *testing.T) {
		fenced := "```json\n" + validFindingsJSON + "\n```"
		findings, err := ParseFindings(fenced)
		require.NoError(t, err)
		assert.Len(t, findings, 2)
	})

	t.Run("ids reassigned sequentially", func(t *testing.T) {
		findings, err := ParseFindings(validFindingsJSON)
		require.NoError(t, err)
		assert.Equal(t, 1, findings[0].ID)
		assert.Equal(t, 2, findings[1].ID)
	})

	t.Run("approved always reset", func(t *testing.T) {
		raw := `[{"severity": "warning", "confidence": 80, "title": "T", "file": "f.go", "line": 1, "why": "W", "body": "B", "approved": true}]`
		findings, err := ParseFindings(raw)
		require.NoError(t, err)
		assert.Nil(t, findings[0].Approved)
	})

	t.Run("empty array", func(t *testing.T) {
		findings, err := ParseFindings("[]")
		require.NoError(t, err)
		assert.Empty(t, findings)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseFindings("I found three issues in this PR:")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "raw response")
	})

	t.Run("non-array JSON", func(t *testing.T) {
		_, err := ParseFindings(`{"severity": "critical"}`)
		assert.Error(t, err)
	})

	t.Run("raw preview is bounded", func(t *testing.T) {
		_, err := ParseFindings("not json " + strings.Repeat("x", 5000))
		require.Error(t, err)
		assert.Less(t, len(err.Error()), 400)
	})
}

func TestParseFindingsRejectsMissingFields(t *testing.T) {
	base := map[string]any{
		"severity":   "warning",
		"confidence": 70,
		"title":      "T",
		"file":       "f.go",
		"line":       5,
		"why":        "W",
		"body":       "B",
	}

	cases := []struct {
		name  string
		field string
		value any
	}{
		{"bad severity", "severity", "high"},
		{"empty severity", "severity", ""},
		{"confidence too high", "confidence", 101},
		{"negative confidence", "confidence", -1},
		{"empty title", "title", ""},
		{"empty file", "file", ""},
		{"zero line", "line", 0},
		{"negative line", "line", -3},
		{"empty why", "why", ""},
		{"empty body", "body", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := make(map[string]any, len(base))
			for k, v := range base {
				record[k] = v
			}
			record[tc.field] = tc.value

			data, err := json.Marshal([]any{record})
			require.NoError(t, err)

			_, err = ParseFindings(string(data))
			assert.Error(t, err)
		})
	}
}

func TestParseFindingsRejectsWholeBatch(t *testing.T) {
	// One bad record rejects everything; no partial results.
	raw := `[
	  {"severity": "critical", "confidence": 90, "title": "Good", "file": "a.go", "line": 1, "why": "W", "body": "B"},
	  {"severity": "critical", "confidence": 90, "title": "", "file": "a.go", "line": 2, "why": "W", "body": "B"}
	]`
	findings, err := ParseFindings(raw)
	assert.Error(t, err)
	assert.Nil(t, findings)
}

func TestParseTicket(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		ticket, err := ParseTicket(`{"title": "Fix login", "description": "The login page crashes."}`)
		require.NoError(t, err)
		assert.Equal(t, "Fix login", ticket.Title)
		assert.Equal(t, "The login page crashes.", ticket.Description)
	})

	t.Run("fenced", func(t *testing.T) {
		ticket, err := ParseTicket("```\n{\"title\": \"T\", \"description\": \"D\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "T", ticket.Title)
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := ParseTicket(`{"title": "  ", "description": "D"}`)
		assert.Error(t, err)
	})

	t.Run("missing description", func(t *testing.T) {
		_, err := ParseTicket(`{"title": "T"}`)
		assert.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseTicket("here is your ticket")
		assert.Error(t, err)
	})
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "[]", stripFences("[]"))
	assert.Equal(t, "[]", stripFences("```json\n[]\n```"))
	assert.Equal(t, "[]", stripFences("```\n[]\n```"))
	assert.Equal(t, "[]", stripFences("  []  "))
}
