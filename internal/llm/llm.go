package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Client wraps the Anthropic API for review and ticket generation.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildReviewPrompt constructs the system and user prompts for a PR review.
func buildReviewPrompt(guidelines, diff, changedFiles string) (system string, user string) {
	system = `You are a senior code reviewer. Review the pull request diff against the provided guidelines. Return ONLY a JSON array of finding objects with these fields:
- "severity": one of "critical", "warning", "suggestion"
- "confidence": integer 0-100, how confident you are this is a real issue
- "title": short one-line summary of the issue
- "file": repo-relative path of the affected file
- "line": line number on the NEW side of the diff the comment anchors to
- "why": one sentence explaining why this matters
- "body": the full review comment text, markdown allowed

Rules:
- Only report issues visible in the diff; never invent problems in unchanged code
- "critical" is for bugs, data loss, and security problems; "warning" for likely mistakes; "suggestion" for style and minor improvements
- Anchor every finding to a line that was added or modified in the diff
- Return an empty array [] if the change looks good
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	sb.WriteString("Review guidelines:\n\n")
	sb.WriteString(guidelines)
	sb.WriteString("\n\nChanged files:\n\n")
	sb.WriteString(changedFiles)
	sb.WriteString("\n\nDiff:\n\n")
	sb.WriteString(diff)
	user = sb.String()
	return
}

// ReviewDiff sends the review context to the model and returns its raw text
// response. Callers parse the response with ParseFindings.
func (c *Client) ReviewDiff(ctx context.Context, guidelines, diff, changedFiles string) (string, error) {
	system, user := buildReviewPrompt(guidelines, diff, changedFiles)
	return c.complete(ctx, system, user, 8192)
}

// buildTicketPrompt constructs the system and user prompts for drafting a ticket.
func buildTicketPrompt(content string) (system string, user string) {
	system = `You draft issue-tracker tickets from free-form notes. Return ONLY a JSON object with exactly two fields:
- "title": concise ticket title (under 80 characters)
- "description": a well-structured markdown description with context, what needs to change, and acceptance criteria

Rules:
- Keep the title action-oriented (e.g. "Fix ...", "Add ...")
- Preserve any concrete details (file names, error messages, line numbers) from the notes
- Return valid JSON only, no markdown fencing or explanation`

	user = "Draft a ticket from these notes:\n\n" + content
	return
}

// DraftTicket asks the model to turn free-form notes into ticket content.
// Callers parse the response with ParseTicket.
func (c *Client) DraftTicket(ctx context.Context, content string) (string, error) {
	system, user := buildTicketPrompt(content)
	return c.complete(ctx, system, user, 2048)
}

// buildRevisePrompt constructs the prompts for revising an existing ticket draft.
func buildRevisePrompt(title, description, instruction string) (system string, user string) {
	system = `You revise issue-tracker ticket drafts. Given the current title and description plus a revision instruction, return ONLY a JSON object with "title" and "description" fields containing the revised ticket.

Rules:
- Apply the instruction; keep everything else intact
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	sb.WriteString("Current title: ")
	sb.WriteString(title)
	sb.WriteString("\n\nCurrent description:\n")
	sb.WriteString(description)
	sb.WriteString("\n\nRevision instruction: ")
	sb.WriteString(instruction)
	user = sb.String()
	return
}

// ReviseTicket asks the model to apply a revision instruction to a ticket draft.
func (c *Client) ReviseTicket(ctx context.Context, title, description, instruction string) (string, error) {
	system, user := buildRevisePrompt(title, description, instruction)
	return c.complete(ctx, system, user, 2048)
}

// complete makes a single Messages call and returns the first text block.
func (c *Client) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in API response")
}
