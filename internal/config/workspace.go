package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultRunnerTimeout bounds a single runner invocation when the config
// file does not specify one.
const DefaultRunnerTimeout = 30 * time.Minute

// Workspace holds per-workspace settings loaded from .charter/config.toml.
// All fields are optional; zero values fall back to defaults.
type Workspace struct {
	// Runner is the external executor command, split into argv form.
	// The execution request is written to its stdin as JSON and the
	// result is read from its stdout.
	Runner []string

	// RunnerTimeout bounds a single runner invocation.
	RunnerTimeout time.Duration

	// DefaultApprover is used when --by is not passed to approve.
	DefaultApprover string

	// PlannerModel selects the LLM used by the plan command.
	PlannerModel string

	// PlannerProvider overrides provider inference from the model name.
	PlannerProvider string
}

// fileWorkspace mirrors the TOML shape on disk.
type fileWorkspace struct {
	Runner          []string `toml:"runner"`
	RunnerTimeout   string   `toml:"runner_timeout"`
	DefaultApprover string   `toml:"default_approver"`
	PlannerModel    string   `toml:"planner_model"`
	PlannerProvider string   `toml:"planner_provider"`
}

// LoadWorkspace reads .charter/config.toml under the given workspace root.
// A missing file is not an error; defaults are returned.
func LoadWorkspace(root string) (Workspace, error) {
	cfg := Workspace{RunnerTimeout: DefaultRunnerTimeout}

	path := filepath.Join(root, ".charter", "config.toml")
	var raw fileWorkspace
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Workspace{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	if meta.IsDefined("runner") {
		cfg.Runner = raw.Runner
	}
	if meta.IsDefined("runner_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RunnerTimeout))
		if err != nil {
			return Workspace{}, fmt.Errorf("parsing runner_timeout: %w", err)
		}
		cfg.RunnerTimeout = d
	}
	if meta.IsDefined("default_approver") {
		cfg.DefaultApprover = strings.TrimSpace(raw.DefaultApprover)
	}
	if meta.IsDefined("planner_model") {
		cfg.PlannerModel = strings.TrimSpace(raw.PlannerModel)
	}
	if meta.IsDefined("planner_provider") {
		cfg.PlannerProvider = strings.TrimSpace(raw.PlannerProvider)
	}

	return cfg, nil
}
