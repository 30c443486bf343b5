package main

import (
	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/output"
)

// newResumeCmd creates the resume command.
func newResumeCmd() *cobra.Command {
	var runnerFlag []string
	cmd := &cobra.Command{
		Use:   "resume <contract-id>",
		Short: "Resume a paused contract",
		Long: `Resume a PAUSED contract.

Resuming is gated exactly like a fresh run: the approval artifact is
re-validated against the live plan and the grant gate is enforced
before the runner is invoked again.

Examples:
  charter resume ct_1234`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResume(cmd, args[0], runnerFlag)
		},
	}
	cmd.Flags().StringArrayVar(&runnerFlag, "runner", nil,
		"Runner command argv (repeatable, overrides config)")
	return cmd
}

// runResume executes the resume command.
func runResume(cmd *cobra.Command, id string, runnerFlag []string) error {
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

	report, err := executor.Resume(cmd.Context(), c)
	if err != nil {
		return failWith(printer, err)
	}

	return printRunReport(printer, c, report, false)
}
