package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/grants"
	"github.com/charterhq/charter/internal/output"
)

// newGrantsCmd creates the grants command group.
func newGrantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grants",
		Short: "Manage control grants for a contract",
		Long: `Manage the control grant gate for a contract.

Grants are namespace:permission strings. A contract cannot run until
every required grant has been approved. Every gate evaluation, pass or
block, is recorded in the contract's audit history.`,
	}
	cmd.AddCommand(newGrantsRequestCmd())
	cmd.AddCommand(newGrantsApproveCmd())
	cmd.AddCommand(newGrantsListCmd())
	return cmd
}

// newGrantsRequestCmd creates the grants request subcommand.
func newGrantsRequestCmd() *cobra.Command {
	var grantFlags []string
	cmd := &cobra.Command{
		Use:   "request <contract-id>",
		Short: "Request control grants and submit for approval",
		Long: `Add required control grants and move the contract to AWAITING_APPROVAL.

The gate is evaluated immediately; missing grants are reported but do
not fail the command (that is what approval is for).

Examples:
  charter grants request ct_1234 --grant db:migrate --grant deploy:prod`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrantsRequest(cmd, args[0], grantFlags)
		},
	}
	cmd.Flags().StringArrayVar(&grantFlags, "grant", nil,
		"Control grant in namespace:permission form (repeatable)")
	return cmd
}

// runGrantsRequest executes the grants request subcommand.
func runGrantsRequest(cmd *cobra.Command, id string, grantFlags []string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())

	requested, err := grants.ParseAll(grantFlags)
	if err != nil {
		return failWith(printer, output.NewUserError(err.Error()))
	}

	store, err := openStore()
	if err != nil {
		return failWith(printer, err)
	}

	c, lock, err := loadLocked(store, id)
	if err != nil {
		return failWith(printer, err)
	}
	defer func() { _ = lock.Release() }()

	allowed := []contract.State{contract.StatePlanned, contract.StateAwaitingApproval}
	if err := contract.AssertState(c, allowed, "request grants"); err != nil {
		return failWith(printer, err)
	}

	// Dedupe against already-required grants.
	existing := make(map[string]bool, len(c.ControlsRequired))
	for _, g := range c.ControlsRequired {
		existing[g] = true
	}
	for _, g := range requested {
		if !existing[g] {
			c.ControlsRequired = append(c.ControlsRequired, g)
			existing[g] = true
		}
	}

	engine := contract.NewEngine(store)
	if c.CurrentState != contract.StateAwaitingApproval {
		if err := engine.Transition(c, contract.StateAwaitingApproval,
			"submitted for approval", defaultActor()); err != nil {
			return failWith(printer, err)
		}
	} else if err := engine.RecordHistory(c, contract.ControlsLabel,
		fmt.Sprintf("grants requested: [%s]", strings.Join(requested, ", ")),
		defaultActor()); err != nil {
		return failWith(printer, err)
	}

	// Evaluate the gate non-fatally; a block here is information, not
	// failure.
	gate := grants.NewGate(engine)
	missing := []string{}
	if err := gate.Enforce(c, "grants request", false); err != nil {
		var blocked *grants.BlockedError
		if !errors.As(err, &blocked) {
			return failWith(printer, err)
		}
		missing = blocked.Missing
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"id":       c.ID,
			"state":    string(c.CurrentState),
			"required": c.ControlsRequired,
			"approved": c.ControlsApproved,
			"missing":  missing,
		})
	}

	printer.KeyValue("Contract", c.ID)
	printer.KeyValue("State", printer.State(string(c.CurrentState)))
	if len(missing) > 0 {
		printer.KeyValue("Missing grants", strings.Join(missing, ", "))
		printer.Stderr("Next: charter grants approve %s --all\n", c.ID)
	} else {
		printer.KeyValue("Gate", "all required grants approved")
		printer.Stderr("Next: charter approve %s\n", c.ID)
	}
	return nil
}

// newGrantsApproveCmd creates the grants approve subcommand.
func newGrantsApproveCmd() *cobra.Command {
	var (
		grantFlags []string
		allFlag    bool
	)
	cmd := &cobra.Command{
		Use:   "approve <contract-id>",
		Short: "Approve control grants",
		Long: `Approve control grants for a contract.

Examples:
  charter grants approve ct_1234 --grant db:migrate
  charter grants approve ct_1234 --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrantsApprove(cmd, args[0], grantFlags, allFlag)
		},
	}
	cmd.Flags().StringArrayVar(&grantFlags, "grant", nil,
		"Grant to approve in namespace:permission form (repeatable)")
	cmd.Flags().BoolVar(&allFlag, "all", false, "Approve all missing required grants")
	return cmd
}

// runGrantsApprove executes the grants approve subcommand.
func runGrantsApprove(cmd *cobra.Command, id string, grantFlags []string, all bool) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())

	if !all && len(grantFlags) == 0 {
		return failWith(printer, output.NewUserError("specify --grant or --all"))
	}

	store, err := openStore()
	if err != nil {
		return failWith(printer, err)
	}

	c, lock, err := loadLocked(store, id)
	if err != nil {
		return failWith(printer, err)
	}
	defer func() { _ = lock.Release() }()

	allowed := []contract.State{contract.StatePlanned, contract.StateAwaitingApproval}
	if err := contract.AssertState(c, allowed, "approve grants"); err != nil {
		return failWith(printer, err)
	}

	toApprove := grantFlags
	if all {
		toApprove = append(toApprove, grants.Missing(c)...)
	}
	parsed, err := grants.ParseAll(toApprove)
	if err != nil {
		return failWith(printer, output.NewUserError(err.Error()))
	}

	added := grants.Approve(c, parsed)

	engine := contract.NewEngine(store)
	if err := engine.RecordHistory(c, contract.ControlsLabel,
		fmt.Sprintf("grants approved: [%s]", strings.Join(added, ", ")),
		defaultActor()); err != nil {
		return failWith(printer, err)
	}

	missing := grants.Missing(c)

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"id":       c.ID,
			"approved": added,
			"missing":  missing,
		})
	}

	if len(added) > 0 {
		printer.KeyValue("Approved", strings.Join(added, ", "))
	} else {
		printer.Println("nothing to approve")
	}
	if len(missing) > 0 {
		printer.KeyValue("Still missing", strings.Join(missing, ", "))
	} else {
		printer.Stderr("Next: charter approve %s\n", c.ID)
	}
	return nil
}

// newGrantsListCmd creates the grants list subcommand.
func newGrantsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <contract-id>",
		Short: "Show the grant gate for a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrantsList(cmd, args[0])
		},
	}
}

// runGrantsList executes the grants list subcommand.
func runGrantsList(cmd *cobra.Command, id string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())

	store, err := openStore()
	if err != nil {
		return failWith(printer, err)
	}

	c, err := store.Load(id)
	if err != nil {
		return failWith(printer, err)
	}

	missing := grants.Missing(c)

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"id":       c.ID,
			"required": c.ControlsRequired,
			"approved": c.ControlsApproved,
			"missing":  missing,
			"passed":   len(missing) == 0,
		})
	}

	missingSet := make(map[string]bool, len(missing))
	for _, g := range missing {
		missingSet[g] = true
	}

	rows := make([][]string, 0, len(c.ControlsRequired))
	for _, g := range c.ControlsRequired {
		status := "approved"
		if missingSet[g] {
			status = "missing"
		}
		rows = append(rows, []string{g, status})
	}
	printer.Table([]string{"GRANT", "STATUS"}, rows)
	return nil
}
