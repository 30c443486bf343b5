package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/approval"
	"github.com/charterhq/charter/internal/config"
	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/grants"
	"github.com/charterhq/charter/internal/output"
)

// newApproveCmd creates the approve command.
func newApproveCmd() *cobra.Command {
	var (
		byFlag     string
		sourceFlag string
		notesFlag  string
	)
	cmd := &cobra.Command{
		Use:   "approve <contract-id>",
		Short: "Approve a contract's plan for execution",
		Long: `Approve a contract's plan, producing a content-addressed approval artifact.

The approval is keyed by the hash of the plan content. If the plan is
edited afterwards, in any way, the artifact stops matching and the
contract will not run until re-approved.

The grant gate must pass first: approval of the plan never overrides
missing control grants.

Examples:
  charter approve ct_1234 --by alice
  charter approve ct_1234 --by ci-bot --source ci --notes "release window"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApprove(cmd, args[0], byFlag, sourceFlag, notesFlag)
		},
	}
	cmd.Flags().StringVar(&byFlag, "by", "", "Approver name (defaults to config default_approver, then $USER)")
	cmd.Flags().StringVar(&sourceFlag, "source", "manual", "Approval source: manual or ci")
	cmd.Flags().StringVar(&notesFlag, "notes", "", "Free-form approval notes")
	return cmd
}

// runApprove executes the approve command.
func runApprove(cmd *cobra.Command, id, by, source, notes string) error {
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

	allowed := []contract.State{contract.StatePlanned, contract.StateAwaitingApproval}
	if err := contract.AssertState(c, allowed, "approve"); err != nil {
		return failWith(printer, err)
	}

	if c.PlanStructured == nil {
		return failWith(printer, output.NewUserError(
			"contract has no structured plan to approve; attach one with charter plan"))
	}

	approver := by
	if approver == "" {
		if cfg, cfgErr := config.LoadWorkspace(workspaceRoot(store)); cfgErr == nil {
			approver = cfg.DefaultApprover
		}
	}
	if approver == "" {
		approver = defaultActor()
	}
	if approver == "" {
		return failWith(printer, output.NewUserError("approver unknown: pass --by"))
	}

	engine := contract.NewEngine(store)
	gate := grants.NewGate(engine)

	// The gate is fatal here: a plan approval never stands in for
	// missing control grants.
	if err := gate.Enforce(c, "approve", true); err != nil {
		return failWith(printer, err)
	}

	ver, err := engine.AppendApprovalVersion(c, approver)
	if err != nil {
		return failWith(printer, err)
	}

	authority := openAuthority(store)
	artifact, err := authority.Write(approval.WriteRequest{
		ContractID: c.ID,
		PlanRef:    c.PlanRef(),
		Plan:       c.PlanStructured,
		ApprovedBy: approver,
		Source:     approval.Source(source),
		Notes:      notes,
	})
	if err != nil {
		return failWith(printer, err)
	}

	artifactPath, err := authority.Path(artifact.PlanHash)
	if err != nil {
		return failWith(printer, err)
	}
	c.SetArtifact("approval", artifactPath)

	if err := engine.Transition(c, contract.StateApproved,
		"plan approved by "+approver, approver); err != nil {
		return failWith(printer, err)
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"id":        c.ID,
			"state":     string(c.CurrentState),
			"version":   ver,
			"plan_hash": artifact.PlanHash,
			"artifact":  artifactPath,
			"approver":  approver,
		})
	}

	printer.KeyValue("Contract", c.ID)
	printer.KeyValue("State", printer.State(string(c.CurrentState)))
	printer.KeyValue("Version", strconv.Itoa(ver))
	printer.KeyValue("Plan hash", artifact.PlanHash)
	printer.KeyValue("Artifact", artifactPath)
	printer.Stderr("Next: charter run %s\n", c.ID)
	return nil
}
