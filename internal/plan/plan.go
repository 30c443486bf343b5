// Package plan provides the structured plan schema, validation, and
// serialization for charter contracts.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SchemaVersion is the current schema version for structured plans.
const SchemaVersion = "plan.v1"

// Plan is an ordered procedure for executing a contract's intent.
// Step order is semantically significant: reordering steps is a plan
// change and invalidates any existing approval.
type Plan struct {
	Version string `json:"version"`
	Title   string `json:"title"`
	Steps   []Step `json:"steps"`
}

// Step is a single unit of a plan. IDs must be unique within a plan;
// they become the expected evidence identifiers at run time.
type Step struct {
	ID      string   `json:"id"`
	Summary string   `json:"summary"`
	Details string   `json:"details,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Risks   []string `json:"risks,omitempty"`
}

// ValidationError is returned when plan validation fails.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid plan: " + strings.Join(e.Problems, "; ")
}

// Validate checks the plan shape: schema version, title, non-empty steps,
// and step id uniqueness.
func (p *Plan) Validate() error {
	var problems []string

	if p.Version != SchemaVersion {
		problems = append(problems, fmt.Sprintf("version must be %q, got %q", SchemaVersion, p.Version))
	}
	if strings.TrimSpace(p.Title) == "" {
		problems = append(problems, "title is required")
	}
	if len(p.Steps) == 0 {
		problems = append(problems, "at least one step is required")
	}

	seen := make(map[string]bool, len(p.Steps))
	for i, step := range p.Steps {
		if strings.TrimSpace(step.ID) == "" {
			problems = append(problems, fmt.Sprintf("steps[%d]: id is required", i))
			continue
		}
		if seen[step.ID] {
			problems = append(problems, fmt.Sprintf("steps[%d]: duplicate id %q", i, step.ID))
		}
		seen[step.ID] = true
		if strings.TrimSpace(step.Summary) == "" {
			problems = append(problems, fmt.Sprintf("steps[%d]: summary is required", i))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// StepIDs returns the step ids in plan order.
func (p *Plan) StepIDs() []string {
	ids := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		ids[i] = step.ID
	}
	return ids
}

// Parse deserializes and validates a plan from JSON.
func Parse(data []byte) (*Plan, error) {
	if len(data) == 0 {
		return nil, errors.New("empty plan data")
	}

	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan JSON: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ToJSON serializes the plan to indented JSON.
func (p *Plan) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing plan to JSON: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of the plan. Version ledger snapshots use
// this so later edits to the live plan never reach past entries.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	clone := &Plan{
		Version: p.Version,
		Title:   p.Title,
		Steps:   make([]Step, len(p.Steps)),
	}
	for i, step := range p.Steps {
		s := step
		s.Tags = append([]string(nil), step.Tags...)
		s.Risks = append([]string(nil), step.Risks...)
		clone.Steps[i] = s
	}
	return clone
}
