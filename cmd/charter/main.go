// Package main provides the entry point for the charter CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/config"
	"github.com/charterhq/charter/internal/output"
)

// Build info set via ldflags at build time by goreleaser.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	flag := cmd.Flags().Lookup("json")
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup("json")
	}
	return flag != nil && flag.Value.String() == "true"
}

// useColor resolves whether styled output should be used for this command.
func useColor(cmd *cobra.Command) bool {
	colorMode := "auto"
	if flag := cmd.Root().PersistentFlags().Lookup("color"); flag != nil {
		colorMode = flag.Value.String()
	}
	return output.ResolveColorMode(colorMode, output.IsTTY(cmd.OutOrStdout()))
}

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	code := runMain()
	os.Exit(code)
}

func runMain() int {
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// newRootCmd creates the root command for the charter CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charter",
		Short: "Contracts for delegated work",
		Long: `Charter tracks delegated work as contracts with explicit human gates.

A contract is an intent plus a structured plan, moved through a fixed
state machine with an append-only audit history:
  - Every plan approval is a content-addressed artifact keyed by the
    plan's hash; editing an approved plan silently invalidates it
  - Required control grants (namespace:permission) block execution
    until a human approves them
  - Runs must produce evidence inside the run sandbox, or a claimed
    success is downgraded to failed

All commands support --json for structured output.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isJSONMode(cmd) {
				printer := output.NewPrinter(cmd.OutOrStdout(), true, false)
				err := output.NewUserError("no command specified. Run 'charter --help' for usage")
				printer.Error(err)
				return err
			}
			return cmd.Help()
		},
	}

	// Load .env.local (then .env) for API keys that can't be exported to env.
	// Environment variables always take precedence over file values.
	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		loadEnvFiles()
		return nil
	}

	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("color", "auto", "Color output: auto, always, never")

	lipgloss.SetHasDarkBackground(true)

	addCommandGroups(cmd)
	addCommands(cmd)

	return cmd
}

// loadEnvFiles loads env files in priority order. First match for each
// variable wins; environment variables already set always take precedence.
//
// Resolution order:
//  1. $CWD/.env.local   (per-repo override, gitignored)
//  2. $CWD/.env         (per-repo)
//  3. ~/.config/charter/env (global fallback)
func loadEnvFiles() {
	_ = config.LoadEnvFile(".env.local")
	_ = config.LoadEnvFile(".env")

	if dir := config.Dir(); dir != "" {
		_ = config.LoadEnvFile(filepath.Join(dir, "env"))
	}
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: "contract", Title: "Contract Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "gate", Title: "Gate Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "run", Title: "Run Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "query", Title: "Query Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "admin", Title: "Admin Commands:"})
}

// addCommands adds all subcommands with their group assignments.
func addCommands(cmd *cobra.Command) {
	// Contract lifecycle: propose, plan, rewind
	addGroupedCommand(cmd, newProposeCmd(), "contract")
	addGroupedCommand(cmd, newPlanCmd(), "contract")
	addGroupedCommand(cmd, newRewindCmd(), "contract")

	// Gates: grants, approve
	addGroupedCommand(cmd, newGrantsCmd(), "gate")
	addGroupedCommand(cmd, newApproveCmd(), "gate")

	// Execution: run, pause, resume
	addGroupedCommand(cmd, newRunCmd(), "run")
	addGroupedCommand(cmd, newPauseCmd(), "run")
	addGroupedCommand(cmd, newResumeCmd(), "run")

	// Query: status, show, list, export
	addGroupedCommand(cmd, newStatusCmd(), "query")
	addGroupedCommand(cmd, newShowCmd(), "query")
	addGroupedCommand(cmd, newListCmd(), "query")
	addGroupedCommand(cmd, newExportCmd(), "query")

	// Admin: init, mcp
	addGroupedCommand(cmd, newInitCmd(), "admin")
	addGroupedCommand(cmd, newMCPCmd(), "admin")
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent *cobra.Command, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}
