package linear

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const defaultEndpoint = "https://api.linear.app/graphql"

// Team is a Linear team, the unit issues are filed under.
type Team struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Issue is a created or updated Linear issue.
type Issue struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	URL        string `json:"url"`
}

// Client talks to the Linear GraphQL API with key-based auth.
type Client struct {
	http *resty.Client
}

// NewClient creates a Linear client with the given API key.
func NewClient(apiKey string) *Client {
	http := resty.New().
		SetBaseURL(defaultEndpoint).
		SetHeader("Authorization", apiKey).
		SetHeader("Content-Type", "application/json")
	return &Client{http: http}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do posts one GraphQL request and decodes the data payload into out.
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(gqlRequest{Query: query, Variables: vars}).
		Post("")
	if err != nil {
		return fmt.Errorf("linear request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("linear API: %s: %s", resp.Status(), strings.TrimSpace(string(resp.Body())))
	}
	var envelope gqlResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return fmt.Errorf("parse linear response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("linear API: %s", strings.Join(msgs, "; "))
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("parse linear response: %w", err)
		}
	}
	return nil
}

// Teams lists the workspace's teams.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	const query = `query { teams { nodes { id key name } } }`

	var data struct {
		Teams struct {
			Nodes []Team `json:"nodes"`
		} `json:"teams"`
	}
	if err := c.do(ctx, query, nil, &data); err != nil {
		return nil, err
	}
	return data.Teams.Nodes, nil
}

// CreateIssue files a new issue under the given team.
func (c *Client) CreateIssue(ctx context.Context, teamID, title, description string) (*Issue, error) {
	const query = `mutation($input: IssueCreateInput!) {
  issueCreate(input: $input) { success issue { id identifier title url } }
}`

	vars := map[string]any{
		"input": map[string]any{
			"teamId":      teamID,
			"title":       title,
			"description": description,
		},
	}

	var data struct {
		IssueCreate struct {
			Success bool  `json:"success"`
			Issue   Issue `json:"issue"`
		} `json:"issueCreate"`
	}
	if err := c.do(ctx, query, vars, &data); err != nil {
		return nil, err
	}
	if !data.IssueCreate.Success {
		return nil, fmt.Errorf("linear issueCreate reported failure")
	}
	return &data.IssueCreate.Issue, nil
}
