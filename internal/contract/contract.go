// Package contract provides the contract model, the state transition engine,
// the append-only history log, and the versioning ledger for charter.
package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/charterhq/charter/internal/plan"
)

// SchemaVersion is the current schema version for contract records.
const SchemaVersion = "charter.contract/v1"

// idPrefix is the prefix for all contract IDs.
const idPrefix = "ct_"

// State is a member of the fixed, closed contract state set.
type State string

// The contract state set. Transition rejects anything outside it.
const (
	StateDraft            State = "DRAFT"
	StatePlanned          State = "PLANNED"
	StateAwaitingApproval State = "AWAITING_APPROVAL"
	StateApproved         State = "APPROVED"
	StateRunning          State = "RUNNING"
	StatePaused           State = "PAUSED"
	StateFailed           State = "FAILED"
	StateCompleted        State = "COMPLETED"
	StateRewound          State = "REWOUND"
)

// allStates is the closed set of valid states.
var allStates = map[State]bool{
	StateDraft:            true,
	StatePlanned:          true,
	StateAwaitingApproval: true,
	StateApproved:         true,
	StateRunning:          true,
	StatePaused:           true,
	StateFailed:           true,
	StateCompleted:        true,
	StateRewound:          true,
}

// ValidState reports whether s is a member of the fixed state set.
func ValidState(s State) bool {
	return allStates[s]
}

// HistoryEntry is one append-only audit record. Label is either a state
// name (for transitions) or an event label such as "CONTROLS".
type HistoryEntry struct {
	At      time.Time `json:"at"`
	Label   string    `json:"state"`
	Message string    `json:"message"`
	Actor   string    `json:"actor,omitempty"`
}

// Approval records who approved the contract and when.
type Approval struct {
	At       time.Time `json:"at"`
	Approver string    `json:"approver"`
}

// VersionKind distinguishes ledger entries.
type VersionKind string

// Ledger entry kinds.
const (
	VersionKindApproval VersionKind = "approval"
	VersionKindRewind   VersionKind = "rewind"
)

// Version is one immutable entry in the append-only versioning ledger.
// All snapshot fields are copied by value at append time; later mutation
// of the live contract never reaches a past entry.
type Version struct {
	Version          int         `json:"version"`
	Kind             VersionKind `json:"kind"`
	At               time.Time   `json:"at"`
	Note             string      `json:"note"`
	ControlsApproved []string    `json:"controls_approved"`
	Plan             *plan.Plan  `json:"plan,omitempty"`
	PlanText         string      `json:"plan_text,omitempty"`
	Intent           string      `json:"intent"`
}

// PauseContext is the checkpoint recorded when a run is paused.
// Resuming is an explicit operation gated like any run.
type PauseContext struct {
	At     time.Time `json:"at"`
	Reason string    `json:"reason"`
	Step   string    `json:"step,omitempty"`
}

// Contract is the unit of delegated work tracked through the state machine.
type Contract struct {
	Schema         string          `json:"schema"`
	ID             string          `json:"id"`
	Intent         string          `json:"intent"`
	PlanText       string          `json:"plan,omitempty"`
	PlanStructured *plan.Plan      `json:"plan_structured,omitempty"`
	CurrentState   State           `json:"current_state"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	History        []HistoryEntry  `json:"history"`
	Approvals      []Approval      `json:"approvals,omitempty"`
	Versions       []Version       `json:"versions,omitempty"`
	// ActiveVersion is nil until the first ledger entry, then always equals
	// the number of the most recently appended entry.
	ActiveVersion    *int              `json:"active_version,omitempty"`
	ControlsRequired []string          `json:"controls_required,omitempty"`
	ControlsApproved []string          `json:"controls_approved,omitempty"`
	PauseContext     *PauseContext     `json:"pause_context,omitempty"`
	Artifacts        map[string]string `json:"artifacts,omitempty"`
}

// NewID generates a fresh contract ID.
func NewID() string {
	return idPrefix + uuid.NewString()
}

// New creates a DRAFT contract with the given intent.
func New(intent string) *Contract {
	now := time.Now().UTC()
	return &Contract{
		Schema:       SchemaVersion,
		ID:           NewID(),
		Intent:       intent,
		CurrentState: StateDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// PlanRef is the reference string recorded in approval artifacts for this
// contract. It ties an artifact to the contract's structured plan slot.
func (c *Contract) PlanRef() string {
	return c.ID + "/plan_structured"
}

// SetArtifact records a produced file pointer by type.
func (c *Contract) SetArtifact(kind, path string) {
	if c.Artifacts == nil {
		c.Artifacts = make(map[string]string)
	}
	c.Artifacts[kind] = path
}

// ToJSON serializes the contract to indented JSON.
func (c *Contract) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing contract to JSON: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a contract from JSON.
func FromJSON(data []byte) (*Contract, error) {
	if len(data) == 0 {
		return nil, errors.New("empty contract data")
	}

	var c Contract
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing contract JSON: %w", err)
	}
	return &c, nil
}

// Clone returns a deep copy of the contract.
func (c *Contract) Clone() *Contract {
	clone := *c
	clone.History = append([]HistoryEntry(nil), c.History...)
	clone.Approvals = append([]Approval(nil), c.Approvals...)
	clone.ControlsRequired = append([]string(nil), c.ControlsRequired...)
	clone.ControlsApproved = append([]string(nil), c.ControlsApproved...)
	clone.PlanStructured = c.PlanStructured.Clone()

	clone.Versions = make([]Version, len(c.Versions))
	for i, v := range c.Versions {
		cv := v
		cv.ControlsApproved = append([]string(nil), v.ControlsApproved...)
		cv.Plan = v.Plan.Clone()
		clone.Versions[i] = cv
	}

	if c.ActiveVersion != nil {
		av := *c.ActiveVersion
		clone.ActiveVersion = &av
	}
	if c.PauseContext != nil {
		pc := *c.PauseContext
		clone.PauseContext = &pc
	}
	if c.Artifacts != nil {
		clone.Artifacts = make(map[string]string, len(c.Artifacts))
		for k, v := range c.Artifacts {
			clone.Artifacts[k] = v
		}
	}
	return &clone
}
