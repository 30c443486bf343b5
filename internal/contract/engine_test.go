package contract

import (
	"errors"
	"testing"
)

func TestAssertState(t *testing.T) {
	tests := []struct {
		name    string
		current State
		allowed []State
		wantErr bool
	}{
		{name: "allowed single", current: StateDraft, allowed: []State{StateDraft}},
		{name: "allowed among several", current: StatePaused, allowed: []State{StateRunning, StatePaused}},
		{name: "disallowed", current: StateCompleted, allowed: []State{StateDraft}, wantErr: true},
		{name: "empty allowed rejects", current: StateDraft, allowed: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("test intent")
			c.CurrentState = tt.current
			historyBefore := len(c.History)

			err := AssertState(c, tt.allowed, "frob")

			if tt.wantErr {
				var stateErr *StateError
				if !errors.As(err, &stateErr) {
					t.Fatalf("error = %v, want *StateError", err)
				}
				if stateErr.Actual != tt.current {
					t.Errorf("Actual = %s, want %s", stateErr.Actual, tt.current)
				}
			} else if err != nil {
				t.Fatalf("AssertState() error = %v", err)
			}

			// Assertion never mutates regardless of outcome
			if c.CurrentState != tt.current {
				t.Errorf("CurrentState changed to %s", c.CurrentState)
			}
			if len(c.History) != historyBefore {
				t.Error("history grew during assertion")
			}
		})
	}
}

func TestTransitionRejectsUnknownState(t *testing.T) {
	store := NewMemStore()
	engine := NewEngine(store)
	c := New("test intent")

	err := engine.Transition(c, State("LIMBO"), "no reason", "")

	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("error = %v, want *StateError", err)
	}
	if c.CurrentState != StateDraft {
		t.Errorf("CurrentState = %s, mutation happened before validation", c.CurrentState)
	}
	if len(c.History) != 0 {
		t.Error("history appended for rejected transition")
	}
	if store.Saves != 0 {
		t.Error("store touched for rejected transition")
	}
}

func TestTransitionRecordsAndPersists(t *testing.T) {
	store := NewMemStore()
	engine := NewEngine(store)
	c := New("ship feature")

	if err := engine.Transition(c, StatePlanned, "plan generated", "alice"); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}

	if c.CurrentState != StatePlanned {
		t.Errorf("CurrentState = %s, want PLANNED", c.CurrentState)
	}
	if len(c.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(c.History))
	}
	entry := c.History[0]
	if entry.Label != "PLANNED" || entry.Message != "plan generated" || entry.Actor != "alice" {
		t.Errorf("history entry = %+v", entry)
	}
	if entry.At.IsZero() || c.UpdatedAt.IsZero() {
		t.Error("timestamps not stamped")
	}

	// Mutation must be durable before the call returns
	if store.Saves != 1 {
		t.Errorf("Saves = %d, want 1", store.Saves)
	}
	persisted, err := store.Load(c.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if persisted.CurrentState != StatePlanned || len(persisted.History) != 1 {
		t.Error("persisted snapshot does not match accepted mutation")
	}
}

func TestRecordHistoryAppendOnly(t *testing.T) {
	engine := NewEngine(NewMemStore())
	c := New("test")

	for i := 0; i < 3; i++ {
		if err := engine.RecordHistory(c, ControlsLabel, "gate evaluated", ""); err != nil {
			t.Fatalf("RecordHistory() error = %v", err)
		}
	}

	if len(c.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(c.History))
	}
	for i, entry := range c.History {
		if entry.Label != ControlsLabel {
			t.Errorf("history[%d].Label = %q", i, entry.Label)
		}
	}
}

func TestDetachedEngineSkipsPersistence(t *testing.T) {
	engine := NewDetachedEngine()
	c := New("test")

	if err := engine.Transition(c, StatePlanned, "r", ""); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if len(c.History) != 1 {
		t.Error("detached engine should still append history")
	}
}
