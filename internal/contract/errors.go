package contract

import (
	"fmt"
	"strings"
)

// StateError is returned when an action is attempted in a state that does
// not allow it, or when a transition names a state outside the fixed set.
// It is always fatal to the current command and no mutation occurs.
type StateError struct {
	ContractID string
	Action     string
	Actual     State
	Allowed    []State
}

// Error implements the error interface.
func (e *StateError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s: %q is not a valid contract state", e.Action, e.Actual)
	}
	names := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		names[i] = string(s)
	}
	return fmt.Sprintf("cannot %s contract %s in state %s (requires %s)",
		e.Action, e.ContractID, e.Actual, strings.Join(names, " or "))
}
