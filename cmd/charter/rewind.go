package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/output"
)

// rewindStates are the states a contract can be rewound from. DRAFT has
// nothing to rewind, RUNNING must be paused first, and REWOUND is
// already parked.
var rewindStates = []contract.State{
	contract.StatePlanned,
	contract.StateAwaitingApproval,
	contract.StateApproved,
	contract.StatePaused,
	contract.StateFailed,
	contract.StateCompleted,
}

// newRewindCmd creates the rewind command.
func newRewindCmd() *cobra.Command {
	var reasonFlag string
	cmd := &cobra.Command{
		Use:   "rewind <contract-id>",
		Short: "Rewind a contract to park it for replanning",
		Long: `Rewind a contract, appending a rewind entry to the versioning ledger
and parking it in REWOUND.

The ledger keeps every prior version; the rewind entry records which
version it supersedes. A rewound contract is re-opened by attaching a
new plan, which (being new content) requires fresh approval.

Examples:
  charter rewind ct_1234 --reason "scope changed after review"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewind(cmd, args[0], reasonFlag)
		},
	}
	cmd.Flags().StringVar(&reasonFlag, "reason", "", "Why the contract is being rewound")
	return cmd
}

// runRewind executes the rewind command.
func runRewind(cmd *cobra.Command, id, reason string) error {
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

	if err := contract.AssertState(c, rewindStates, "rewind"); err != nil {
		return failWith(printer, err)
	}

	engine := contract.NewEngine(store)
	version, previous, err := engine.AppendRewindVersion(c, defaultActor())
	if err != nil {
		return failWith(printer, err)
	}

	message := "rewound"
	if reason != "" {
		message = "rewound: " + reason
	}
	if err := engine.Transition(c, contract.StateRewound, message, defaultActor()); err != nil {
		return failWith(printer, err)
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"id":                 c.ID,
			"state":              string(c.CurrentState),
			"version":            version,
			"superseded_version": previous,
		})
	}

	printer.KeyValue("Contract", c.ID)
	printer.KeyValue("State", printer.State(string(c.CurrentState)))
	printer.KeyValue("Version", strconv.Itoa(version))
	if previous > 0 {
		printer.KeyValue("Supersedes", strconv.Itoa(previous))
	}
	printer.Stderr("Re-open with: charter plan %s\n", c.ID)
	return nil
}
