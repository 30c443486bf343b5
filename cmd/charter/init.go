package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/output"
)

// charterSubdirs are created under .charter/ at init.
var charterSubdirs = []string{"contracts", "approvals", "runs", "logs", "locks", "templates"}

// starterConfig is written to .charter/config.toml on init when absent.
const starterConfig = `# charter workspace configuration

# Runner command, argv form. Receives the execution request as JSON on
# stdin and must print a result JSON to stdout.
# runner = ["my-agent", "--headless"]

# Bound on a single runner invocation.
# runner_timeout = "30m"

# Used when approve is called without --by.
# default_approver = "alice"

# LLM used by charter plan when no --file/--text is given.
# planner_model = "claude-sonnet"
# planner_provider = "anthropic"
`

// newInitCmd creates the init command.
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the charter workspace",
		Long: `Initialize the .charter/ workspace directory.

Creates the contract, approval, run, log, lock, and template
directories plus a commented starter config.toml. Safe to run in an
already initialized workspace.

Examples:
  charter init`,
		RunE: runInit,
	}
}

// runInit executes the init command.
func runInit(cmd *cobra.Command, _ []string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())

	root, err := charterRoot()
	if err != nil {
		return failWith(printer, err)
	}

	created := []string{}
	for _, sub := range charterSubdirs {
		dir := filepath.Join(root, sub)
		if _, statErr := os.Stat(dir); statErr == nil {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return failWith(printer, output.NewSystemErrorWithCause("creating "+dir, err))
		}
		created = append(created, dir)
	}

	configPath := filepath.Join(root, "config.toml")
	wroteConfig := false
	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
			return failWith(printer, output.NewSystemErrorWithCause("writing config.toml", err))
		}
		wroteConfig = true
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"charter_dir":  root,
			"created":      created,
			"wrote_config": wroteConfig,
		})
	}

	printer.KeyValue("Charter dir", root)
	if len(created) == 0 && !wroteConfig {
		printer.Println("already initialized")
		return nil
	}
	for _, dir := range created {
		printer.Print("  created %s\n", dir)
	}
	if wroteConfig {
		printer.Print("  created %s\n", configPath)
	}
	return nil
}
