// Package main provides the entry point for the charter CLI.
package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/charterhq/charter/internal/approval"
	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/git"
	"github.com/charterhq/charter/internal/grants"
	"github.com/charterhq/charter/internal/output"
	"github.com/charterhq/charter/internal/run"
)

// charterDirName is the workspace state directory at the repo root.
const charterDirName = ".charter"

// charterRoot resolves the .charter directory. Inside a git repository
// it anchors at the repo root so commands work from any subdirectory;
// otherwise it falls back to the current directory.
func charterRoot() (string, error) {
	if git.IsRepo() {
		root, err := git.RepoRoot()
		if err != nil {
			return "", err
		}
		return filepath.Join(root, charterDirName), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", output.NewSystemErrorWithCause("resolving working directory", err)
	}
	return filepath.Join(cwd, charterDirName), nil
}

// openStore opens the contract store for the current workspace.
func openStore() (*contract.FileStore, error) {
	root, err := charterRoot()
	if err != nil {
		return nil, err
	}
	return contract.NewFileStore(root), nil
}

// workspaceRoot returns the directory containing the .charter dir.
func workspaceRoot(store *contract.FileStore) string {
	return filepath.Dir(store.Root())
}

// openAuthority opens the approval artifact authority for the workspace.
func openAuthority(store *contract.FileStore) *approval.Authority {
	return approval.NewAuthority(filepath.Join(store.Root(), "approvals"))
}

// loadLocked acquires the contract's advisory lock and loads it. The
// caller must release the returned lock. Mutating commands hold it for
// their whole read-modify-write cycle.
func loadLocked(store *contract.FileStore, id string) (*contract.Contract, *contract.FileLock, error) {
	lock, err := store.Lock(id)
	if err != nil {
		return nil, nil, output.NewSystemErrorWithCause("acquiring contract lock", err)
	}

	c, err := store.Load(id)
	if err != nil {
		_ = lock.Release()
		return nil, nil, err
	}
	return c, lock, nil
}

// defaultActor resolves the acting user for history entries.
func defaultActor() string {
	if user := os.Getenv("CHARTER_ACTOR"); user != "" {
		return user
	}
	return os.Getenv("USER")
}

// wrapDomainError maps typed core errors to exit-coded CLI errors.
// Untouched errors pass through (GetExitCode defaults them to user error).
func wrapDomainError(err error) error {
	if err == nil {
		return nil
	}

	var exitErr *output.ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	if errors.Is(err, contract.ErrNotFound) {
		return output.NewUserError(err.Error())
	}

	var stateErr *contract.StateError
	if errors.As(err, &stateErr) {
		return output.NewConflictError(err.Error())
	}

	var blockedErr *grants.BlockedError
	if errors.As(err, &blockedErr) {
		return output.NewBlockedError(err.Error(), err)
	}

	var mismatchErr *approval.MismatchError
	if errors.As(err, &mismatchErr) {
		return output.NewBlockedError(err.Error(), err)
	}

	var evidenceErr *run.ValidationError
	if errors.As(err, &evidenceErr) {
		return output.NewBlockedError(err.Error(), err)
	}

	return err
}

// failWith prints the error and returns its wrapped form for exit-code
// extraction in one step.
func failWith(printer *output.Printer, err error) error {
	wrapped := wrapDomainError(err)
	printer.Error(wrapped)
	return wrapped
}
