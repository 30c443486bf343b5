package git

import (
	"strings"

	"github.com/charterhq/charter/internal/output"
)

// CommitResult reports whether CommitChanges produced a commit.
type CommitResult struct {
	Committed bool
	SHA       string
}

// UncommittedPaths returns the paths with staged or unstaged changes in the
// working tree. Returns an empty slice for a clean tree.
func UncommittedPaths() ([]string, error) {
	out, err := Run("status", "--porcelain")
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to read working tree status", err)
	}
	if out == "" {
		return nil, nil
	}

	var paths []string
	for _, line := range strings.Split(out, "\n") {
		// Porcelain lines are "XY <path>"; the path starts at column 3.
		if len(line) > 3 {
			paths = append(paths, strings.TrimSpace(line[3:]))
		}
	}
	return paths, nil
}

// CommitChanges stages everything and commits with a message that names the
// contract. Returns Committed=false without error when the tree is clean.
func CommitChanges(contractID, message string) (CommitResult, error) {
	paths, err := UncommittedPaths()
	if err != nil {
		return CommitResult{}, err
	}
	if len(paths) == 0 {
		return CommitResult{Committed: false}, nil
	}

	if _, err := Run("add", "-A"); err != nil {
		return CommitResult{}, output.NewSystemErrorWithCause("failed to stage changes", err)
	}

	full := "charter(" + contractID + "): " + message
	if _, err := Run("commit", "-m", full); err != nil {
		return CommitResult{}, output.NewSystemErrorWithCause("failed to commit changes", err)
	}

	sha, err := HEAD()
	if err != nil {
		return CommitResult{}, err
	}
	return CommitResult{Committed: true, SHA: sha}, nil
}
