package planner

import (
	"context"
	"strings"

	"github.com/charterhq/charter/internal/output"
	"github.com/charterhq/charter/internal/plan"
	"github.com/charterhq/charter/internal/prompt"
)

// Completer generates LLM completions. *Client satisfies it; tests
// inject doubles.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Planner drafts structured plans from contract intents.
type Planner struct {
	completer Completer
}

// New creates a Planner backed by an LLM client for the given model.
func New(model string, provider Provider) (*Planner, error) {
	client, err := NewClient(model, provider)
	if err != nil {
		return nil, err
	}
	return &Planner{completer: client}, nil
}

// NewWithCompleter creates a Planner with an injected completer.
func NewWithCompleter(c Completer) *Planner {
	return &Planner{completer: c}
}

// PlanContext carries the inputs for plan generation.
type PlanContext struct {
	Intent     string
	ContractID string
	RepoName   string
	Branch     string
	AppendText string
}

const planSystemPrompt = "You produce execution plans as strict JSON. " +
	"Output a single JSON object and nothing else."

// GeneratePlan renders the plan prompt, queries the model, and parses
// the response into a validated plan.
func (p *Planner) GeneratePlan(ctx context.Context, pc PlanContext) (*plan.Plan, error) {
	tmpl, err := prompt.LoadTemplate("plan")
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to load plan template", err)
	}

	rendered := prompt.Render(tmpl, &prompt.RenderContext{
		Intent:     pc.Intent,
		ContractID: pc.ContractID,
		RepoName:   pc.RepoName,
		Branch:     pc.Branch,
		AppendText: pc.AppendText,
	})

	resp, err := p.completer.Complete(ctx, Request{
		System:    planSystemPrompt,
		Prompt:    rendered,
		MaxTokens: 8192,
	})
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(resp.Content)
	if err != nil {
		return nil, err
	}

	parsed, err := plan.Parse([]byte(raw))
	if err != nil {
		return nil, output.NewSystemErrorWithCause("model returned an invalid plan", err)
	}
	return parsed, nil
}

// extractJSON pulls a JSON object out of model output, tolerating
// markdown code fences and surrounding prose.
func extractJSON(content string) (string, error) {
	s := strings.TrimSpace(content)

	if fenced, ok := stripCodeFence(s); ok {
		s = fenced
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", output.NewSystemError("no JSON object found in model response")
	}

	return s[start : end+1], nil
}

// stripCodeFence removes a ```json ... ``` wrapper if present.
func stripCodeFence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") {
		return s, false
	}

	rest := s[3:]
	if nl := strings.Index(rest, "\n"); nl != -1 {
		rest = rest[nl+1:] // drop the language tag line
	}

	if idx := strings.LastIndex(rest, "```"); idx != -1 {
		rest = rest[:idx]
	}

	return strings.TrimSpace(rest), true
}
