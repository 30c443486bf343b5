package grants

import (
	"fmt"
	"strings"

	"github.com/charterhq/charter/internal/contract"
)

// BlockedError is returned when required grants are missing and the
// caller demanded a fatal gate. The block is always recorded in history
// before this error is raised.
type BlockedError struct {
	ContractID string
	Context    string
	Missing    []string
}

// Error implements the error interface.
func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s blocked for contract %s: missing grants %s",
		e.Context, e.ContractID, strings.Join(e.Missing, ", "))
}

// remediation names the paths out of a grant block. Recorded with every
// blocking CONTROLS entry so the history alone tells the operator what
// to do next.
const remediation = "remediation: revise the proposal, approve the missing grants, " +
	"rewind to update authority, or fork a new contract"

// Gate evaluates the control grant gate and records every evaluation,
// pass or fail, as a CONTROLS history entry.
type Gate struct {
	engine *contract.Engine
}

// NewGate creates a Gate that records evaluations through the engine.
func NewGate(engine *contract.Engine) *Gate {
	return &Gate{engine: engine}
}

// Enforce checks required ⊆ approved for the contract. On a miss it
// records a CONTROLS entry describing the block and the remediation
// paths, and returns a *BlockedError (the error is returned in both
// modes; fatal only signals the caller's intent and is reflected in the
// history message). On a pass it records a CONTROLS entry with the full
// required and approved lists and returns nil.
func (g *Gate) Enforce(c *contract.Contract, gateContext string, fatal bool) error {
	missing := Missing(c)

	if len(missing) == 0 {
		msg := fmt.Sprintf("%s: grants check passed (required: [%s], approved: [%s])",
			gateContext,
			strings.Join(c.ControlsRequired, ", "),
			strings.Join(c.ControlsApproved, ", "))
		return g.engine.RecordHistory(c, contract.ControlsLabel, msg, "")
	}

	msg := fmt.Sprintf("%s: blocked, missing grants [%s]; %s",
		gateContext, strings.Join(missing, ", "), remediation)
	if fatal {
		msg += " (fatal)"
	}
	if err := g.engine.RecordHistory(c, contract.ControlsLabel, msg, ""); err != nil {
		return err
	}

	return &BlockedError{
		ContractID: c.ID,
		Context:    gateContext,
		Missing:    missing,
	}
}
