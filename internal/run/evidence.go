package run

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Classification partitions claimed evidence paths into disjoint sets.
type Classification struct {
	ValidExisting []string
	Missing       []string
	OutOfScope    []string
}

// ValidationError is returned when a runner-reported success cannot be
// backed by evidence: zero claims, claims outside the run directory, or
// claims that do not exist on disk. The offending paths are enumerated so
// the failure reason quotes them exactly.
type ValidationError struct {
	ContractID string
	Missing    []string
	OutOfScope []string
	NoEvidence bool
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.NoEvidence {
		return fmt.Sprintf("run for contract %s claimed success with no evidence", e.ContractID)
	}
	var parts []string
	if len(e.OutOfScope) > 0 {
		parts = append(parts, "out-of-scope evidence: "+strings.Join(e.OutOfScope, ", "))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing evidence: "+strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("run for contract %s claimed success but %s",
		e.ContractID, strings.Join(parts, "; "))
}

// ClassifyEvidence normalizes the claimed paths (absolute, de-duplicated)
// and partitions them against the run directory:
//   - outOfScope: not equal to or nested under the resolved run directory
//   - missing:    in scope but absent from the filesystem
//   - validExisting: in scope and present
func ClassifyEvidence(runDir string, claimed []string) (Classification, error) {
	resolvedDir, err := resolvePath(runDir)
	if err != nil {
		return Classification{}, fmt.Errorf("resolving run directory: %w", err)
	}

	var result Classification
	seen := make(map[string]bool, len(claimed))

	for _, raw := range claimed {
		abs, err := filepath.Abs(raw)
		if err != nil {
			result.OutOfScope = append(result.OutOfScope, raw)
			continue
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true

		if !insideDir(resolvedDir, abs) {
			result.OutOfScope = append(result.OutOfScope, abs)
			continue
		}

		if _, err := os.Stat(abs); err != nil {
			result.Missing = append(result.Missing, abs)
			continue
		}
		result.ValidExisting = append(result.ValidExisting, abs)
	}

	return result, nil
}

// Validate applies the anti-trust rule to a runner result. A reported
// completion is downgraded to failed unless it is backed by at least one
// valid evidence path and no missing or out-of-scope claims. A reported
// failure passes through with its reason preserved.
//
// Returns the final status, the failure reason (empty on success), and
// the typed validation error when a downgrade happened.
func Validate(contractID, runDir string, result *Result) (Status, string, error) {
	if result.Status == StatusFailed {
		reason := result.Summary
		if reason == "" {
			reason = "runner reported failure"
		}
		return StatusFailed, reason, nil
	}

	classification, err := ClassifyEvidence(runDir, result.ClaimedEvidencePaths)
	if err != nil {
		return StatusFailed, err.Error(), err
	}

	if len(result.ClaimedEvidencePaths) == 0 {
		vErr := &ValidationError{ContractID: contractID, NoEvidence: true}
		return StatusFailed, vErr.Error(), vErr
	}
	if len(classification.OutOfScope) > 0 || len(classification.Missing) > 0 {
		vErr := &ValidationError{
			ContractID: contractID,
			Missing:    classification.Missing,
			OutOfScope: classification.OutOfScope,
		}
		return StatusFailed, vErr.Error(), vErr
	}

	return StatusCompleted, "", nil
}

// resolvePath returns the absolute, symlink-resolved form of path.
// If the path does not exist yet, the absolute form is returned as-is.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", err
	}
	return resolved, nil
}

// insideDir reports whether path equals dir or is nested under it.
func insideDir(dir, path string) bool {
	// Resolve symlinks on the claimed path too, so a link pointing out
	// of the run directory cannot smuggle evidence into scope.
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
