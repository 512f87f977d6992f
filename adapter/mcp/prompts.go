package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

type promptArg struct {
	name, help, fallback string
	required             bool
}

type analyticsPrompt struct {
	name, title, description string
	args                     []promptArg
	template                 string
}

var analyticsPrompts = []analyticsPrompt{
	{
		name:        "daily_review",
		title:       "Daily Team Review",
		description: "Review today's team analytics and decide where to intervene.",
		args: []promptArg{
			{name: "date", help: "Day to review (YYYY-MM-DD, default today)", fallback: "today"},
		},
		template: `Review team performance for %s.

1. Call analytics.refresh for that day (omit the date for today).
2. Summarise overall compliance, the best and worst team, and any teams
   whose records could not be loaded.
3. Go through the high-priority alerts first and propose one concrete
   action per alert.
4. List recommendations and opportunities briefly.`,
	},
	{
		name:        "team_review",
		title:       "Monthly Team Review",
		description: "Monthly review of one team's rating and leadership scores.",
		args: []promptArg{
			{name: "team_leader_id", help: "Team leader id", fallback: "[team leader id]", required: true},
			{name: "month", help: "Month to review (YYYY-MM, default current)", fallback: "the current month"},
		},
		template: `Prepare a monthly review for team leader %s covering %s.

1. Call analytics.team_rating for the leader and month.
2. Explain the rating breakdown and how it moved against the previous month.
3. Call analytics.rank with the leader id and highlight the top and bottom workers.
4. Suggest coaching points based on the leadership scores.`,
	},
}

// render fills the template with each argument, or its fallback when absent.
func (p analyticsPrompt) render(args map[string]string) *mcp.PromptResult {
	values := make([]any, len(p.args))
	for i, a := range p.args {
		v := args[a.name]
		if v == "" {
			v = a.fallback
		}
		values[i] = v
	}
	return &mcp.PromptResult{
		Description: p.title,
		Messages: []mcp.PromptMessage{{
			Role:    string(mcp.RoleUser),
			Content: mcp.TextContent{Type: "text", Text: fmt.Sprintf(p.template, values...)},
		}},
	}
}

// RegisterPrompts registers the guided analytics workflows.
func RegisterPrompts(srv *mcp.Server, _ ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	for _, p := range analyticsPrompts {
		b := srv.Prompt(p.name).Description(p.description)
		for _, a := range p.args {
			b = b.Argument(a.name, a.help, a.required)
		}
		b.Handler(func(_ context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return p.render(args), nil
		})
	}
	return nil
}
