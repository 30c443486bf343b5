package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/git"
	"github.com/charterhq/charter/internal/output"
)

// statusResult holds the data for status output.
type statusResult struct {
	Repo          string         `json:"repo,omitempty"`
	Branch        string         `json:"branch,omitempty"`
	Head          string         `json:"head,omitempty"`
	CharterDir    string         `json:"charter_dir"`
	DirExists     bool           `json:"dir_exists"`
	ContractCount int            `json:"contract_count"`
	ByState       map[string]int `json:"by_state,omitempty"`
}

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show workspace and contract state",
		Long: `Show the current state of the workspace and its contracts.

Displays repository info (name, branch, HEAD) when inside a git repo,
.charter/ directory status, and contract counts by state.

Examples:
  charter status         # Show human-readable status
  charter status --json  # Output status as JSON for scripting`,
		RunE: runStatus,
	}
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, _ []string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())

	result, err := gatherStatus()
	if err != nil {
		return failWith(printer, err)
	}

	if printer.IsJSON() {
		data := map[string]any{
			"charter_dir":    result.CharterDir,
			"dir_exists":     result.DirExists,
			"contract_count": result.ContractCount,
			"by_state":       result.ByState,
		}
		if result.Repo != "" {
			data["repo"] = result.Repo
			data["branch"] = result.Branch
			data["head"] = result.Head
		}
		return printer.Success(data)
	}

	printHumanStatus(printer, result)
	return nil
}

// gatherStatus collects all status information.
func gatherStatus() (*statusResult, error) {
	result := &statusResult{}

	if git.IsRepo() {
		root, err := git.RepoRoot()
		if err != nil {
			return nil, err
		}
		result.Repo = filepath.Base(root)

		if branch, err := git.CurrentBranch(); err == nil {
			result.Branch = branch
		}
		if head, err := git.HEAD(); err == nil {
			result.Head = head
		}
	}

	store, err := openStore()
	if err != nil {
		return nil, err
	}
	result.CharterDir = store.Root()

	dirInfo, statErr := os.Stat(store.Root())
	result.DirExists = statErr == nil && dirInfo.IsDir()

	entries, err := store.List()
	if err != nil {
		return nil, err
	}
	result.ContractCount = len(entries)
	result.ByState = make(map[string]int)
	for _, entry := range entries {
		result.ByState[string(entry.State)]++
	}

	return result, nil
}

// printHumanStatus outputs status in human-readable format.
func printHumanStatus(printer *output.Printer, status *statusResult) {
	if status.Repo != "" {
		printer.Section("Repository")
		printer.KeyValue("Repo", status.Repo)
		printer.KeyValue("Branch", status.Branch)
		printer.KeyValue("HEAD", status.Head[:min(12, len(status.Head))])
	}

	printer.Section("Charter")
	printer.KeyValue("Directory", status.CharterDir)
	printer.KeyValue("Initialized", formatBool(status.DirExists))
	printer.KeyValue("Contracts", strconv.Itoa(status.ContractCount))

	for _, state := range orderedStates() {
		if n := status.ByState[string(state)]; n > 0 {
			printer.KeyValue("  "+string(state), strconv.Itoa(n))
		}
	}
}

// orderedStates returns the display order for state counts.
func orderedStates() []contract.State {
	return []contract.State{
		contract.StateDraft,
		contract.StatePlanned,
		contract.StateAwaitingApproval,
		contract.StateApproved,
		contract.StateRunning,
		contract.StatePaused,
		contract.StateFailed,
		contract.StateCompleted,
		contract.StateRewound,
	}
}

// formatBool returns a human-readable boolean string.
func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
