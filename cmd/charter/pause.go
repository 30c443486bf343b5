package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/output"
)

// newPauseCmd creates the pause command.
func newPauseCmd() *cobra.Command {
	var (
		reasonFlag string
		stepFlag   string
	)
	cmd := &cobra.Command{
		Use:   "pause <contract-id>",
		Short: "Pause a running contract",
		Long: `Pause a RUNNING contract, recording a checkpoint.

The pause context (reason and optionally the step reached) is kept on
the contract so a later resume knows where the run stood. Resuming is
an explicit operation gated exactly like a fresh run.

Examples:
  charter pause ct_1234 --reason "needs human review of step output"
  charter pause ct_1234 --reason "rate limited" --step update-config`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPause(cmd, args[0], reasonFlag, stepFlag)
		},
	}
	cmd.Flags().StringVar(&reasonFlag, "reason", "", "Why the run is being paused (required)")
	cmd.Flags().StringVar(&stepFlag, "step", "", "Plan step the run had reached")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

// runPause executes the pause command.
func runPause(cmd *cobra.Command, id, reason, step string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())

	store, err := openStore()
	if err != nil {
		return failWith(printer, err)
	}

	c, lock, err := loadLocked(store, id)
	if err != nil {
		return failWith(printer, err)
	}
	defer func() { _ = lock.Release() }()

	if err := contract.AssertState(c, []contract.State{contract.StateRunning}, "pause"); err != nil {
		return failWith(printer, err)
	}

	c.PauseContext = &contract.PauseContext{
		At:     time.Now().UTC(),
		Reason: reason,
		Step:   step,
	}

	engine := contract.NewEngine(store)
	if err := engine.Transition(c, contract.StatePaused, "paused: "+reason, defaultActor()); err != nil {
		return failWith(printer, err)
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"id":     c.ID,
			"state":  string(c.CurrentState),
			"reason": reason,
			"step":   step,
		})
	}

	printer.KeyValue("Contract", c.ID)
	printer.KeyValue("State", printer.State(string(c.CurrentState)))
	printer.KeyValue("Reason", reason)
	printer.Stderr("Resume with: charter resume %s\n", c.ID)
	return nil
}
