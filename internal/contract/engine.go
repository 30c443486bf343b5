package contract

import (
	"slices"
	"time"
)

// ControlsLabel is the history label used for grant gate evaluations.
const ControlsLabel = "CONTROLS"

// Engine enforces legal state transitions and appends audit history.
// Every accepted mutation is persisted through the store before the
// call that produced it returns.
type Engine struct {
	store Store
}

// NewEngine creates an Engine that persists through the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// NewDetachedEngine creates an Engine with no persistence. This is the
// explicit opt-out for automated and test contexts; production commands
// always use NewEngine.
func NewDetachedEngine() *Engine {
	return &Engine{}
}

// AssertState fails with a *StateError naming the actual and allowed
// states when the contract's current state is not in allowed. It performs
// no mutation on failure.
func AssertState(c *Contract, allowed []State, action string) error {
	if slices.Contains(allowed, c.CurrentState) {
		return nil
	}
	return &StateError{
		ContractID: c.ID,
		Action:     action,
		Actual:     c.CurrentState,
		Allowed:    allowed,
	}
}

// Transition moves the contract to next and records a history entry.
// Fails with a *StateError, before any mutation, if next is outside the
// fixed state set.
func (e *Engine) Transition(c *Contract, next State, reason, actor string) error {
	if !ValidState(next) {
		return &StateError{ContractID: c.ID, Action: "transition", Actual: next}
	}

	c.CurrentState = next
	return e.RecordHistory(c, string(next), reason, actor)
}

// RecordHistory stamps updatedAt, appends one history entry, and persists
// the contract synchronously before returning. For a detached engine the
// persistence step is skipped.
func (e *Engine) RecordHistory(c *Contract, label, message, actor string) error {
	now := time.Now().UTC()
	c.UpdatedAt = now
	c.History = append(c.History, HistoryEntry{
		At:      now,
		Label:   label,
		Message: message,
		Actor:   actor,
	})

	if e.store == nil {
		return nil
	}
	return e.store.Save(c)
}
