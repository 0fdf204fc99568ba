package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/revuhq/revu/internal/models"
)

// maxRawPreview bounds how much of a malformed model response is echoed in
// parse errors.
const maxRawPreview = 200

// stripFences removes surrounding markdown code-fence markup the model may
// wrap its JSON in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) > 1 {
		text = lines[1]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// rawPreview returns a bounded prefix of raw text for error messages.
func rawPreview(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxRawPreview {
		return raw[:maxRawPreview] + "..."
	}
	return raw
}

// ParseFindings normalizes a raw model response into a validated finding
// list. The whole batch is rejected if any record is missing a required
// field; partial records are never coerced into findings. IDs are
// reassigned sequentially and the approved state is always reset: approval
// is an operator decision, never inferred from model output.
func ParseFindings(raw string) ([]models.Finding, error) {
	text := stripFences(raw)

	var findings []models.Finding
	if err := json.Unmarshal([]byte(text), &findings); err != nil {
		return nil, fmt.Errorf("parse model response as JSON array: %w\nraw response: %s", err, rawPreview(raw))
	}

	for i := range findings {
		if err := validateFinding(&findings[i]); err != nil {
			return nil, fmt.Errorf("finding %d: %w\nraw response: %s", i+1, err, rawPreview(raw))
		}
		findings[i].ID = i + 1
		findings[i].Approved = nil
		findings[i].Posted = false
	}

	return findings, nil
}

func validateFinding(f *models.Finding) error {
	if !f.Severity.Valid() {
		return fmt.Errorf("invalid severity %q", f.Severity)
	}
	if f.Confidence < 0 || f.Confidence > 100 {
		return fmt.Errorf("confidence %d out of range 0-100", f.Confidence)
	}
	if f.Title == "" {
		return fmt.Errorf("missing title")
	}
	if f.File == "" {
		return fmt.Errorf("missing file")
	}
	if f.Line <= 0 {
		return fmt.Errorf("invalid line %d", f.Line)
	}
	if f.Why == "" {
		return fmt.Errorf("missing why")
	}
	if f.Body == "" {
		return fmt.Errorf("missing body")
	}
	return nil
}

// ParseTicket normalizes a raw model response into ticket content. Both the
// title and description must be present and non-empty.
func ParseTicket(raw string) (*models.TicketContent, error) {
	text := stripFences(raw)

	var ticket models.TicketContent
	if err := json.Unmarshal([]byte(text), &ticket); err != nil {
		return nil, fmt.Errorf("parse model response as JSON object: %w\nraw response: %s", err, rawPreview(raw))
	}

	if strings.TrimSpace(ticket.Title) == "" {
		return nil, fmt.Errorf("model response missing ticket title\nraw response: %s", rawPreview(raw))
	}
	if strings.TrimSpace(ticket.Description) == "" {
		return nil, fmt.Errorf("model response missing ticket description\nraw response: %s", rawPreview(raw))
	}

	return &ticket, nil
}
