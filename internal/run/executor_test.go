package run

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charterhq/charter/internal/approval"
	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/grants"
	"github.com/charterhq/charter/internal/plan"
)

// fakeRunner returns a canned result, or writes evidence first when
// writeEvidence is set. It records whether it was ever invoked.
type fakeRunner struct {
	result        *Result
	err           error
	invoked       bool
	writeEvidence bool
}

func (f *fakeRunner) Run(_ context.Context, req *ExecutionRequest, _ Options) (*Result, error) {
	f.invoked = true
	if f.err != nil {
		return nil, f.err
	}
	if f.writeEvidence {
		path := filepath.Join(req.RunDir, "evidence.txt")
		if err := os.WriteFile(path, []byte("done"), 0o600); err != nil {
			return nil, err
		}
		return &Result{
			Status:               StatusCompleted,
			Summary:              "all steps done",
			ClaimedEvidencePaths: []string{path},
		}, nil
	}
	return f.result, nil
}

type executorFixture struct {
	store     *contract.MemStore
	engine    *contract.Engine
	authority *approval.Authority
	runner    *fakeRunner
	executor  *Executor
}

func newFixture(t *testing.T, runner *fakeRunner) *executorFixture {
	t.Helper()
	root := t.TempDir()
	store := contract.NewMemStore()
	engine := contract.NewEngine(store)
	authority := approval.NewAuthority(filepath.Join(root, "approvals"))

	executor := NewExecutor(
		engine,
		grants.NewGate(engine),
		authority,
		runner,
		filepath.Join(root, "runs"),
		filepath.Join(root, "logs"),
		Options{},
	)
	return &executorFixture{
		store:     store,
		engine:    engine,
		authority: authority,
		runner:    runner,
		executor:  executor,
	}
}

func approvedContract(t *testing.T, f *executorFixture) *contract.Contract {
	t.Helper()
	c := contract.New("do the thing")
	c.CurrentState = contract.StateApproved
	c.PlanStructured = &plan.Plan{
		Version: plan.SchemaVersion,
		Title:   "T",
		Steps:   []plan.Step{{ID: "s1", Summary: "Do X"}},
	}
	c.ControlsRequired = []string{"local:write"}
	c.ControlsApproved = []string{"local:write"}

	if _, err := f.authority.Write(approval.WriteRequest{
		ContractID: c.ID,
		PlanRef:    c.PlanRef(),
		Plan:       c.PlanStructured,
		ApprovedBy: "alice",
		Source:     approval.SourceManual,
	}); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestExecuteHappyPath(t *testing.T) {
	runner := &fakeRunner{writeEvidence: true}
	f := newFixture(t, runner)
	c := approvedContract(t, f)

	report, err := f.executor.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if report.Status != StatusCompleted {
		t.Errorf("report status = %s", report.Status)
	}
	if c.CurrentState != contract.StateCompleted {
		t.Errorf("state = %s, want COMPLETED", c.CurrentState)
	}
	if !runner.invoked {
		t.Error("runner was never invoked")
	}
}

func TestExecuteFailsOnPlanEditWithoutInvokingRunner(t *testing.T) {
	runner := &fakeRunner{writeEvidence: true}
	f := newFixture(t, runner)
	c := approvedContract(t, f)

	// Edit the plan after approval: hash changes, artifact no longer matches
	c.PlanStructured.Steps[0].Summary = "Do something else"

	_, err := f.executor.Execute(context.Background(), c)

	var mismatch *approval.MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want *approval.MismatchError", err)
	}
	if runner.invoked {
		t.Error("runner must not be invoked when the approval does not match")
	}
	if c.CurrentState != contract.StateApproved {
		t.Errorf("state = %s, gating failure should leave state untouched", c.CurrentState)
	}
}

func TestExecuteBlockedByMissingGrants(t *testing.T) {
	runner := &fakeRunner{writeEvidence: true}
	f := newFixture(t, runner)
	c := approvedContract(t, f)
	c.ControlsRequired = append(c.ControlsRequired, "net:fetch")

	_, err := f.executor.Execute(context.Background(), c)

	var blocked *grants.BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("error = %v, want *grants.BlockedError", err)
	}
	if runner.invoked {
		t.Error("runner must not be invoked when grants are missing")
	}

	// The block is still recorded in history
	found := false
	for _, entry := range c.History {
		if entry.Label == contract.ControlsLabel && strings.Contains(entry.Message, "net:fetch") {
			found = true
		}
	}
	if !found {
		t.Error("missing CONTROLS history entry for the block")
	}
}

func TestExecuteDowngradesUnbackedSuccess(t *testing.T) {
	runner := &fakeRunner{result: &Result{
		Status:  StatusCompleted,
		Summary: "trust me",
	}}
	f := newFixture(t, runner)
	c := approvedContract(t, f)

	report, err := f.executor.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if report.Status != StatusFailed {
		t.Errorf("report status = %s, unbacked success must be downgraded", report.Status)
	}
	if c.CurrentState != contract.StateFailed {
		t.Errorf("state = %s, want FAILED", c.CurrentState)
	}
	if !strings.Contains(report.FailureReason, "no evidence") {
		t.Errorf("failure reason = %q", report.FailureReason)
	}
}

func TestExecuteFailsWithoutStructuredPlan(t *testing.T) {
	runner := &fakeRunner{writeEvidence: true}
	f := newFixture(t, runner)
	c := approvedContract(t, f)

	// Legacy free-text plan only. The approval artifact is written against
	// a nil structured plan so the gate itself passes.
	c.PlanStructured = nil
	c.PlanText = "1. do the thing"
	if _, err := f.authority.Write(approval.WriteRequest{
		ContractID: c.ID,
		PlanRef:    c.PlanRef(),
		Plan:       nil,
		ApprovedBy: "alice",
		Source:     approval.SourceManual,
	}); err != nil {
		t.Fatal(err)
	}

	report, err := f.executor.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if report.Status != StatusFailed {
		t.Errorf("status = %s, want failed", report.Status)
	}
	if !strings.Contains(report.FailureReason, "structured plan required") {
		t.Errorf("failure reason = %q", report.FailureReason)
	}
	if runner.invoked {
		t.Error("runner must not be invoked without a structured plan")
	}
	if c.CurrentState != contract.StateFailed {
		t.Errorf("state = %s, want FAILED (never left RUNNING)", c.CurrentState)
	}
}

func TestExecuteRunnerErrorLandsInFailed(t *testing.T) {
	runner := &fakeRunner{err: errors.New("runner crashed")}
	f := newFixture(t, runner)
	c := approvedContract(t, f)

	report, err := f.executor.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if report.Status != StatusFailed || c.CurrentState != contract.StateFailed {
		t.Errorf("runner error should finalize FAILED, got %s / %s", report.Status, c.CurrentState)
	}
}

func TestExecuteRejectsWrongState(t *testing.T) {
	f := newFixture(t, &fakeRunner{})
	c := contract.New("t")

	_, err := f.executor.Execute(context.Background(), c)

	var stateErr *contract.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("error = %v, want *contract.StateError", err)
	}
}

func TestResumeRequiresPaused(t *testing.T) {
	runner := &fakeRunner{writeEvidence: true}
	f := newFixture(t, runner)
	c := approvedContract(t, f)

	if _, err := f.executor.Resume(context.Background(), c); err == nil {
		t.Fatal("Resume() from APPROVED should fail")
	}

	c.CurrentState = contract.StatePaused
	c.PauseContext = &contract.PauseContext{Reason: "waiting on review"}

	report, err := f.executor.Resume(context.Background(), c)
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if report.Status != StatusCompleted {
		t.Errorf("status = %s", report.Status)
	}
	if c.PauseContext != nil {
		t.Error("pause context should be cleared on resume")
	}
}

func TestBuildExecutionRequest(t *testing.T) {
	c := contract.New("intent")
	if req := BuildExecutionRequest(c, "/tmp/run"); req != nil {
		t.Error("request should be nil without a structured plan")
	}

	c.PlanStructured = &plan.Plan{
		Version: plan.SchemaVersion,
		Title:   "T",
		Steps:   []plan.Step{{ID: "s1", Summary: "a"}, {ID: "s2", Summary: "b"}},
	}
	c.ControlsApproved = []string{"local:write"}

	req := BuildExecutionRequest(c, "/tmp/run")
	if req == nil {
		t.Fatal("request should not be nil")
	}
	if len(req.ExpectedEvidence) != 2 || req.ExpectedEvidence[0] != "s1" {
		t.Errorf("ExpectedEvidence = %v", req.ExpectedEvidence)
	}
	if req.RunDir != "/tmp/run" {
		t.Errorf("RunDir = %q", req.RunDir)
	}

	// The request snapshots the plan; mutating it must not touch the contract
	req.Plan.Steps[0].Summary = "mutated"
	if c.PlanStructured.Steps[0].Summary == "mutated" {
		t.Error("request shares plan memory with the contract")
	}
}
