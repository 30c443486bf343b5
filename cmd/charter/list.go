package main

import (
	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/output"
)

// newListCmd creates the list command.
func newListCmd() *cobra.Command {
	var stateFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts",
		Long: `List contracts, newest first.

Examples:
  charter list
  charter list --state APPROVED
  charter list --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, stateFlag)
		},
	}
	cmd.Flags().StringVar(&stateFlag, "state", "", "Filter by state name")
	return cmd
}

// runList executes the list command.
func runList(cmd *cobra.Command, stateFilter string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())

	if stateFilter != "" && !contract.ValidState(contract.State(stateFilter)) {
		return failWith(printer, output.NewUserError(
			"\""+stateFilter+"\" is not a valid contract state"))
	}

	store, err := openStore()
	if err != nil {
		return failWith(printer, err)
	}

	entries, err := store.List()
	if err != nil {
		return failWith(printer, err)
	}

	filtered := entries[:0:0]
	for _, entry := range entries {
		if stateFilter != "" && string(entry.State) != stateFilter {
			continue
		}
		filtered = append(filtered, entry)
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"count":     len(filtered),
			"contracts": filtered,
		})
	}

	if len(filtered) == 0 {
		printer.Println("no contracts")
		return nil
	}

	rows := make([][]string, 0, len(filtered))
	for _, entry := range filtered {
		rows = append(rows, []string{
			entry.ID,
			printer.State(string(entry.State)),
			entry.UpdatedAt,
			truncate(entry.Intent, 60),
		})
	}
	printer.Table([]string{"ID", "STATE", "UPDATED", "INTENT"}, rows)
	return nil
}

// truncate shortens s to at most n runes with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
