package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/output"
)

// newShowCmd creates the show command.
func newShowCmd() *cobra.Command {
	var (
		historyFlag  bool
		versionsFlag bool
	)
	cmd := &cobra.Command{
		Use:   "show <contract-id>",
		Short: "Display a contract",
		Long: `Display a contract: intent, state, plan, grants, and artifacts.

Use --history for the full append-only audit log and --versions for
the versioning ledger.

Examples:
  charter show ct_1234
  charter show ct_1234 --history
  charter show ct_1234 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], historyFlag, versionsFlag)
		},
	}
	cmd.Flags().BoolVar(&historyFlag, "history", false, "Show the audit history")
	cmd.Flags().BoolVar(&versionsFlag, "versions", false, "Show the versioning ledger")
	return cmd
}

// runShow executes the show command.
func runShow(cmd *cobra.Command, id string, history, versions bool) error {
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

	if printer.IsJSON() {
		// JSON mode always carries the complete record.
		return printer.WriteJSON(c)
	}

	printContract(printer, c, history, versions)
	return nil
}

// printContract renders a contract in human-readable form.
func printContract(printer *output.Printer, c *contract.Contract, history, versions bool) {
	printer.Section("Contract")
	printer.KeyValue("ID", c.ID)
	printer.KeyValue("Intent", c.Intent)
	printer.KeyValue("State", printer.State(string(c.CurrentState)))
	printer.KeyValue("Created", c.CreatedAt.Format(time.RFC3339))
	printer.KeyValue("Updated", c.UpdatedAt.Format(time.RFC3339))
	if c.ActiveVersion != nil {
		printer.KeyValue("Active version", strconv.Itoa(*c.ActiveVersion))
	}

	if c.PlanStructured != nil {
		printer.Section("Plan")
		printer.KeyValue("Title", c.PlanStructured.Title)
		for _, step := range c.PlanStructured.Steps {
			printer.Print("  %s  %s\n", step.ID, step.Summary)
		}
	}
	if c.PlanText != "" {
		printer.Section("Plan (text)")
		printer.Println(c.PlanText)
	}

	if len(c.ControlsRequired) > 0 || len(c.ControlsApproved) > 0 {
		printer.Section("Grants")
		printer.KeyValue("Required", strings.Join(c.ControlsRequired, ", "))
		printer.KeyValue("Approved", strings.Join(c.ControlsApproved, ", "))
	}

	if c.PauseContext != nil {
		printer.Section("Paused")
		printer.KeyValue("At", c.PauseContext.At.Format(time.RFC3339))
		printer.KeyValue("Reason", c.PauseContext.Reason)
		if c.PauseContext.Step != "" {
			printer.KeyValue("Step", c.PauseContext.Step)
		}
	}

	if len(c.Artifacts) > 0 {
		printer.Section("Artifacts")
		for kind, path := range c.Artifacts {
			printer.KeyValue(kind, path)
		}
	}

	if versions && len(c.Versions) > 0 {
		printer.Section("Versions")
		rows := make([][]string, 0, len(c.Versions))
		for _, v := range c.Versions {
			rows = append(rows, []string{
				strconv.Itoa(v.Version),
				string(v.Kind),
				v.At.Format(time.RFC3339),
				v.Note,
			})
		}
		printer.Table([]string{"VER", "KIND", "AT", "NOTE"}, rows)
	}

	if history {
		printer.Section("History")
		for _, entry := range c.History {
			actor := entry.Actor
			if actor == "" {
				actor = "-"
			}
			printer.Print("  %s  %-18s %-10s %s\n",
				entry.At.Format(time.RFC3339), entry.Label, actor, entry.Message)
		}
	}
}
