package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/git"
	"github.com/charterhq/charter/internal/grants"
	"github.com/charterhq/charter/internal/output"
)

// newProposeCmd creates the propose command.
func newProposeCmd() *cobra.Command {
	var grantFlags []string
	cmd := &cobra.Command{
		Use:   "propose <intent>",
		Short: "Propose a new contract",
		Long: `Propose a new contract for a piece of delegated work.

The contract starts in DRAFT with the given intent. Required control
grants declared here must be approved before the contract can run.

Examples:
  charter propose "rotate the signing keys"
  charter propose "run the prod migration" --grant db:migrate --grant deploy:prod`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropose(cmd, args[0], grantFlags)
		},
	}
	cmd.Flags().StringArrayVar(&grantFlags, "grant", nil,
		"Required control grant in namespace:permission form (repeatable)")
	return cmd
}

// runPropose executes the propose command.
func runPropose(cmd *cobra.Command, intent string, grantFlags []string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())

	if strings.TrimSpace(intent) == "" {
		return failWith(printer, output.NewUserError("intent must not be empty"))
	}

	required, err := grants.ParseAll(grantFlags)
	if err != nil {
		return failWith(printer, output.NewUserError(err.Error()))
	}

	store, err := openStore()
	if err != nil {
		return failWith(printer, err)
	}

	// Assist, not a gate: surface a dirty worktree so delegated work
	// starts from a known baseline.
	if git.IsRepo() {
		if dirty, pathsErr := git.UncommittedPaths(); pathsErr == nil && len(dirty) > 0 {
			printer.Warn("worktree has %d uncommitted change(s)", len(dirty))
		}
	}

	engine := contract.NewEngine(store)
	c := contract.New(strings.TrimSpace(intent))
	c.ControlsRequired = required

	if err := engine.RecordHistory(c, string(contract.StateDraft), "contract proposed", defaultActor()); err != nil {
		return failWith(printer, err)
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"id":              c.ID,
			"state":           string(c.CurrentState),
			"intent":          c.Intent,
			"grants_required": c.ControlsRequired,
		})
	}

	printer.KeyValue("Contract", c.ID)
	printer.KeyValue("State", printer.State(string(c.CurrentState)))
	if len(required) > 0 {
		printer.KeyValue("Grants required", strings.Join(required, ", "))
	}
	printer.Stderr("Next: charter plan %s\n", c.ID)
	return nil
}
