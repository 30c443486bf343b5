package approval

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charterhq/charter/internal/plan"
)

// SchemaVersion is the current schema version for approval artifacts.
const SchemaVersion = "approval.v1"

// Source identifies the authority that produced an approval.
type Source string

// Valid approval sources.
const (
	SourceManual Source = "manual"
	SourceCI     Source = "ci"
)

// Artifact is a content-addressed record proving a specific plan hash was
// approved by a named authority. It is created once per distinct plan
// content, consumed read-only at run time, and never mutated.
type Artifact struct {
	Version    string    `json:"version"`
	ContractID string    `json:"contract_id"`
	PlanHash   string    `json:"plan_hash"`
	PlanRef    string    `json:"plan_ref"`
	ApprovedBy string    `json:"approved_by"`
	ApprovedAt time.Time `json:"approved_at"`
	Source     Source    `json:"source"`
	Notes      string    `json:"notes,omitempty"`
}

// MismatchError is returned when no valid artifact exists for the live
// plan's hash. It carries remediation detail: the exact path where a
// matching artifact is expected and the schema version it must declare.
type MismatchError struct {
	ContractID   string
	ExpectedHash string
	ExpectedPath string
	Reason       string
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf(
		"no valid approval for contract %s: %s (expected a %s artifact for hash %s at %s)",
		e.ContractID, e.Reason, SchemaVersion, e.ExpectedHash, e.ExpectedPath)
}

// Authority owns the approval artifact namespace: a directory of records
// keyed by plan hash, deliberately decoupled from any contract's mutable
// state.
type Authority struct {
	dir string
}

// NewAuthority creates an Authority storing artifacts under dir.
func NewAuthority(dir string) *Authority {
	return &Authority{dir: dir}
}

// Path returns the content-addressed location for a plan hash.
// The filename is the hash.
func (a *Authority) Path(planHash string) (string, error) {
	digest, err := HexDigest(planHash)
	if err != nil {
		return "", err
	}
	return filepath.Join(a.dir, digest+".json"), nil
}

// WriteRequest carries everything needed to record an approval.
type WriteRequest struct {
	ContractID string
	PlanRef    string
	Plan       *plan.Plan
	ApprovedBy string
	Source     Source
	Notes      string
}

// Write computes the plan hash, builds the artifact record, and persists
// it at the path derived from the hash. Returns the stored artifact.
func (a *Authority) Write(req WriteRequest) (*Artifact, error) {
	if req.Source != SourceManual && req.Source != SourceCI {
		return nil, fmt.Errorf("invalid approval source %q", req.Source)
	}

	hash, err := ComputePlanHash(req.Plan)
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{
		Version:    SchemaVersion,
		ContractID: req.ContractID,
		PlanHash:   hash,
		PlanRef:    req.PlanRef,
		ApprovedBy: req.ApprovedBy,
		ApprovedAt: time.Now().UTC(),
		Source:     req.Source,
		Notes:      req.Notes,
	}

	path, err := a.Path(hash)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating approvals directory: %w", err)
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing approval artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing approval artifact: %w", err)
	}

	return artifact, nil
}

// ValidateRequest identifies the contract and the live plan to validate.
type ValidateRequest struct {
	ContractID string
	PlanRef    string
	Plan       *plan.Plan
}

// Validate recomputes the hash from the live plan, derives the expected
// artifact path, and checks the artifact stored there. All three of
// contract id, plan hash, and plan ref must match or a *MismatchError is
// returned. On success the validated artifact is returned.
func (a *Authority) Validate(req ValidateRequest) (*Artifact, error) {
	hash, err := ComputePlanHash(req.Plan)
	if err != nil {
		return nil, err
	}
	path, err := a.Path(hash)
	if err != nil {
		return nil, err
	}

	mismatch := func(reason string) *MismatchError {
		return &MismatchError{
			ContractID:   req.ContractID,
			ExpectedHash: hash,
			ExpectedPath: path,
			Reason:       reason,
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, mismatch("no artifact exists for the current plan content")
		}
		return nil, fmt.Errorf("reading approval artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, mismatch("artifact is not valid JSON")
	}

	if artifact.ContractID != req.ContractID {
		return nil, mismatch(fmt.Sprintf("artifact belongs to contract %s", artifact.ContractID))
	}
	if artifact.PlanHash != hash {
		return nil, mismatch(fmt.Sprintf("artifact records hash %s", artifact.PlanHash))
	}
	if artifact.PlanRef != req.PlanRef {
		return nil, mismatch(fmt.Sprintf("artifact references %s, expected %s", artifact.PlanRef, req.PlanRef))
	}

	return &artifact, nil
}
