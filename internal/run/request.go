// Package run builds execution requests, delegates to an external runner,
// and independently verifies claimed evidence before trusting a reported
// success.
package run

import (
	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/plan"
)

// Status is a runner-reported or post-validation run outcome.
type Status string

// Run outcomes.
const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ExecutionRequest is the envelope handed to the external runner. The
// runner is only permitted to write under RunDir; evidence claimed
// outside it is rejected.
type ExecutionRequest struct {
	ContractID       string     `json:"contract_id"`
	Intent           string     `json:"intent"`
	Plan             *plan.Plan `json:"plan"`
	ApprovedGrants   []string   `json:"approved_grants"`
	ExpectedEvidence []string   `json:"expected_evidence"`
	RunDir           string     `json:"run_dir"`
}

// Result is what the external runner claims happened. Nothing in it is
// trusted until the evidence validator has examined it.
type Result struct {
	Status               Status   `json:"status"`
	Summary              string   `json:"summary"`
	ClaimedEvidencePaths []string `json:"claimed_evidence_paths"`
	LogsPath             string   `json:"logs_path,omitempty"`
}

// BuildExecutionRequest assembles the request for a contract. Returns nil
// if the contract has no structured plan; the caller must fail the run
// with a plan-required reason rather than attempting execution.
func BuildExecutionRequest(c *contract.Contract, runDir string) *ExecutionRequest {
	if c.PlanStructured == nil {
		return nil
	}

	return &ExecutionRequest{
		ContractID:       c.ID,
		Intent:           c.Intent,
		Plan:             c.PlanStructured.Clone(),
		ApprovedGrants:   append([]string(nil), c.ControlsApproved...),
		ExpectedEvidence: c.PlanStructured.StepIDs(),
		RunDir:           runDir,
	}
}
