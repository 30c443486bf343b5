package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/approval"
	"github.com/charterhq/charter/internal/config"
	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/git"
	"github.com/charterhq/charter/internal/grants"
	"github.com/charterhq/charter/internal/output"
	"github.com/charterhq/charter/internal/run"
)

// newRunCmd creates the run command.
func newRunCmd() *cobra.Command {
	var (
		runnerFlag []string
		commitFlag bool
	)
	cmd := &cobra.Command{
		Use:   "run <contract-id>",
		Short: "Execute an approved contract",
		Long: `Execute an APPROVED contract through the configured runner.

Before anything runs, the approval artifact is re-validated against the
live plan hash and the grant gate is enforced. The runner receives the
execution request as JSON on stdin and must print a result JSON to
stdout; claimed evidence paths are validated against the run sandbox,
and an unbacked success is downgraded to failed.

The runner command comes from .charter/config.toml (runner = [...]) or
the --runner flag.

Examples:
  charter run ct_1234
  charter run ct_1234 --runner my-agent --runner --headless
  charter run ct_1234 --commit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], runnerFlag, commitFlag)
		},
	}
	cmd.Flags().StringArrayVar(&runnerFlag, "runner", nil,
		"Runner command argv (repeatable, overrides config)")
	cmd.Flags().BoolVar(&commitFlag, "commit", false,
		"Commit worktree changes after a completed run")
	return cmd
}

// runRun executes the run command.
func runRun(cmd *cobra.Command, id string, runnerFlag []string, commit bool) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())

	executor, store, err := buildExecutor(runnerFlag)
	if err != nil {
		return failWith(printer, err)
	}

	c, lock, err := loadLocked(store, id)
	if err != nil {
		return failWith(printer, err)
	}
	defer func() { _ = lock.Release() }()

	report, err := executor.Execute(cmd.Context(), c)
	if err != nil {
		return failWith(printer, err)
	}

	return printRunReport(printer, c, report, commit)
}

// buildExecutor wires the run executor from workspace config.
func buildExecutor(runnerFlag []string) (*run.Executor, *contract.FileStore, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.LoadWorkspace(workspaceRoot(store))
	if err != nil {
		return nil, nil, err
	}

	argv := runnerFlag
	if len(argv) == 0 {
		argv = cfg.Runner
	}
	if len(argv) == 0 {
		return nil, nil, output.NewUserError(
			"no runner configured: pass --runner or set runner in .charter/config.toml")
	}

	runner, err := run.NewCommandRunner(argv)
	if err != nil {
		return nil, nil, err
	}

	engine := contract.NewEngine(store)
	executor := run.NewExecutor(
		engine,
		grants.NewGate(engine),
		approval.NewAuthority(filepath.Join(store.Root(), "approvals")),
		runner,
		filepath.Join(store.Root(), "runs"),
		filepath.Join(store.Root(), "logs"),
		run.Options{Timeout: cfg.RunnerTimeout},
	)
	return executor, store, nil
}

// printRunReport renders the run outcome and maps a failed run to a
// blocked exit.
func printRunReport(printer *output.Printer, c *contract.Contract, report *run.Report, commit bool) error {
	committed := ""
	if commit && report.Status == run.StatusCompleted && git.IsRepo() {
		result, commitErr := git.CommitChanges(c.ID, report.Summary)
		if commitErr != nil {
			printer.Warn("committing run changes: %v", commitErr)
		} else if result.Committed {
			committed = result.SHA
		}
	}

	if printer.IsJSON() {
		data := map[string]any{
			"id":      c.ID,
			"state":   string(c.CurrentState),
			"status":  string(report.Status),
			"run_dir": report.RunDir,
		}
		if report.Summary != "" {
			data["summary"] = report.Summary
		}
		if len(report.Evidence) > 0 {
			data["evidence"] = report.Evidence
		}
		if report.FailureReason != "" {
			data["failure_reason"] = report.FailureReason
		}
		if committed != "" {
			data["commit"] = committed
		}
		if err := printer.Success(data); err != nil {
			return err
		}
	} else {
		printer.KeyValue("Contract", c.ID)
		printer.KeyValue("State", printer.State(string(c.CurrentState)))
		if report.Summary != "" {
			printer.KeyValue("Summary", report.Summary)
		}
		if len(report.Evidence) > 0 {
			printer.KeyValue("Evidence", strings.Join(report.Evidence, ", "))
		}
		if report.FailureReason != "" {
			printer.KeyValue("Reason", report.FailureReason)
		}
		if committed != "" {
			printer.KeyValue("Commit", committed)
		}
	}

	if report.Status != run.StatusCompleted {
		return output.NewBlockedError("run failed: "+report.FailureReason, nil)
	}
	return nil
}
