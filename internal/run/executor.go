package run

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/charterhq/charter/internal/approval"
	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/grants"
)

// Executor drives a contract run end to end: approval artifact
// re-validation, grant gating, delegation to the runner, evidence
// validation, and the final state transition. The final transition is
// driven strictly by the post-validation status, never the runner's raw
// claim.
type Executor struct {
	engine    *contract.Engine
	gate      *grants.Gate
	authority *approval.Authority
	runner    Runner
	runsDir   string
	logsDir   string
	opts      Options
}

// NewExecutor wires an Executor. runsDir is where per-contract sandboxes
// are created; logsDir receives structured run logs.
func NewExecutor(
	engine *contract.Engine,
	gate *grants.Gate,
	authority *approval.Authority,
	runner Runner,
	runsDir, logsDir string,
	opts Options,
) *Executor {
	return &Executor{
		engine:    engine,
		gate:      gate,
		authority: authority,
		runner:    runner,
		runsDir:   runsDir,
		logsDir:   logsDir,
		opts:      opts,
	}
}

// Report summarizes a finished run for the command layer.
type Report struct {
	Status        Status
	Summary       string
	RunDir        string
	Evidence      []string
	FailureReason string
}

// Execute runs an APPROVED contract. The contract terminates in exactly
// one of COMPLETED or FAILED; it is never left RUNNING.
func (e *Executor) Execute(ctx context.Context, c *contract.Contract) (*Report, error) {
	if err := contract.AssertState(c, []contract.State{contract.StateApproved}, "run"); err != nil {
		return nil, err
	}
	return e.pipeline(ctx, c, "run")
}

// Resume re-runs a PAUSED contract from its recorded checkpoint. It is an
// explicit operation gated exactly like a fresh run, not an automatic
// retry.
func (e *Executor) Resume(ctx context.Context, c *contract.Contract) (*Report, error) {
	if err := contract.AssertState(c, []contract.State{contract.StatePaused}, "resume"); err != nil {
		return nil, err
	}
	c.PauseContext = nil
	return e.pipeline(ctx, c, "resume")
}

// pipeline is the shared gating and execution sequence. Gating failures
// abort before RUNNING is entered and before the runner is ever invoked.
func (e *Executor) pipeline(ctx context.Context, c *contract.Contract, gateContext string) (*Report, error) {
	// Trust anchor first: the approval must match the live plan hash.
	if _, err := e.authority.Validate(approval.ValidateRequest{
		ContractID: c.ID,
		PlanRef:    c.PlanRef(),
		Plan:       c.PlanStructured,
	}); err != nil {
		return nil, err
	}

	if err := e.gate.Enforce(c, gateContext, true); err != nil {
		return nil, err
	}

	// Gating passed: RUNNING is entered unconditionally from here.
	if err := e.engine.Transition(c, contract.StateRunning, "execution started", ""); err != nil {
		return nil, err
	}

	logger, closeLog := e.openLogger(c.ID)
	defer closeLog()
	logger.Info().Str("gate_context", gateContext).Msg("execution started")

	runDir := filepath.Join(e.runsDir, c.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return e.fail(c, fmt.Sprintf("creating run directory: %v", err), logger)
	}

	req := BuildExecutionRequest(c, runDir)
	if req == nil {
		return e.fail(c, "structured plan required for execution", logger)
	}

	result, err := e.runner.Run(ctx, req, e.opts)
	if err != nil {
		logger.Error().Err(err).Msg("runner invocation failed")
		return e.fail(c, err.Error(), logger)
	}

	logger.Info().
		Str("claimed_status", string(result.Status)).
		Int("claimed_evidence", len(result.ClaimedEvidencePaths)).
		Msg("runner returned")

	status, reason, _ := Validate(c.ID, runDir, result)
	if status != StatusCompleted {
		logger.Warn().Str("reason", reason).Msg("run failed validation")
		report, err := e.fail(c, reason, logger)
		if report != nil {
			report.RunDir = runDir
		}
		return report, err
	}

	if err := e.engine.Transition(c, contract.StateCompleted, result.Summary, ""); err != nil {
		return nil, err
	}
	logger.Info().Msg("run completed")

	return &Report{
		Status:   StatusCompleted,
		Summary:  result.Summary,
		RunDir:   runDir,
		Evidence: result.ClaimedEvidencePaths,
	}, nil
}

// fail records the terminal FAILED transition with the given reason.
func (e *Executor) fail(c *contract.Contract, reason string, logger zerolog.Logger) (*Report, error) {
	logger.Error().Str("reason", reason).Msg("run failed")
	if err := e.engine.Transition(c, contract.StateFailed, reason, ""); err != nil {
		return nil, err
	}
	return &Report{Status: StatusFailed, FailureReason: reason}, nil
}

// openLogger creates a structured logger appending to the contract's run
// log. Falls back to a disabled logger if the log file cannot be opened;
// the history log remains the authoritative audit trail either way.
func (e *Executor) openLogger(contractID string) (zerolog.Logger, func()) {
	if err := os.MkdirAll(e.logsDir, 0o755); err != nil {
		return zerolog.Nop(), func() {}
	}
	path := filepath.Join(e.logsDir, contractID+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), func() {}
	}
	logger := zerolog.New(file).With().
		Timestamp().
		Str("contract", contractID).
		Logger()
	return logger, func() { _ = file.Close() }
}
