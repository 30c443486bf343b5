package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/export"
	"github.com/charterhq/charter/internal/output"
)

// newExportCmd creates the export command.
func newExportCmd() *cobra.Command {
	var stateFlag string
	var formatFlag string
	var outFlag string

	cmd := &cobra.Command{
		Use:   "export [contract-id...]",
		Short: "Export contracts to structured formats",
		Long: `Export contract records, including history and the versioning
ledger, for audit archives and pipelines.

Examples:
  charter export ct_abc --json              # One contract as JSON to stdout
  charter export --out ./audit/             # All contracts as markdown files
  charter export --state COMPLETED --json   # Completed contracts as JSON
  charter export ct_abc --format md --out ./notes/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, stateFlag, formatFlag, outFlag)
		},
	}

	cmd.Flags().StringVar(&stateFlag, "state", "", "Export only contracts in this state")
	cmd.Flags().StringVar(&formatFlag, "format", "", "Output format: json or md (default: json for stdout, md for --out)")
	cmd.Flags().StringVar(&outFlag, "out", "", "Output directory (if omitted, writes to stdout)")

	return cmd
}

// runExport executes the export command.
func runExport(cmd *cobra.Command, args []string, stateFlag, formatFlag, outFlag string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())

	format := determineExportFormat(formatFlag, outFlag)
	if format != "json" && format != "md" {
		return failWith(printer, output.NewUserError("unsupported format "+format+", use json or md"))
	}
	if stateFlag != "" && !contract.ValidState(contract.State(stateFlag)) {
		return failWith(printer, output.NewUserError("unknown state "+stateFlag))
	}

	store, err := openStore()
	if err != nil {
		return failWith(printer, err)
	}

	contracts, err := selectExportContracts(store, args, stateFlag)
	if err != nil {
		return failWith(printer, err)
	}
	if len(contracts) == 0 {
		return failWith(printer, output.NewUserError("no contracts matched"))
	}

	return writeExportOutput(printer, contracts, format, outFlag)
}

// determineExportFormat returns the format to use based on flags.
// Markdown is the default when writing files, JSON for stdout.
func determineExportFormat(formatFlag, outFlag string) string {
	if formatFlag != "" {
		return formatFlag
	}
	if outFlag != "" {
		return "md"
	}
	return "json"
}

// selectExportContracts loads the requested contracts, either by explicit
// ID or the full index filtered by state.
func selectExportContracts(store *contract.FileStore, ids []string, stateFlag string) ([]*contract.Contract, error) {
	if len(ids) > 0 {
		contracts := make([]*contract.Contract, 0, len(ids))
		for _, id := range ids {
			c, err := store.Load(id)
			if err != nil {
				return nil, wrapDomainError(err)
			}
			contracts = append(contracts, c)
		}
		return contracts, nil
	}

	entries, err := store.List()
	if err != nil {
		return nil, wrapDomainError(err)
	}

	contracts := make([]*contract.Contract, 0, len(entries))
	for _, entry := range entries {
		if stateFlag != "" && entry.State != contract.State(stateFlag) {
			continue
		}
		c, err := store.Load(entry.ID)
		if err != nil {
			return nil, wrapDomainError(err)
		}
		contracts = append(contracts, c)
	}
	return contracts, nil
}

// writeExportOutput writes the contracts to stdout or a directory.
func writeExportOutput(printer *output.Printer, contracts []*contract.Contract, format, outFlag string) error {
	if outFlag == "" {
		if format == "md" {
			for _, c := range contracts {
				printer.Print("%s", export.FormatMarkdown(c))
			}
			return nil
		}
		return export.FormatJSON(printer, contracts)
	}

	if err := os.MkdirAll(outFlag, 0o755); err != nil {
		return failWith(printer, output.NewSystemErrorWithCause("creating output directory", err))
	}

	var writeErr error
	if format == "md" {
		writeErr = export.WriteMarkdownFiles(contracts, outFlag)
	} else {
		writeErr = export.WriteJSONFiles(contracts, outFlag)
	}
	if writeErr != nil {
		return failWith(printer, writeErr)
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"exported": len(contracts),
			"format":   format,
			"dir":      outFlag,
		})
	}
	printer.Print("exported %d contract(s) to %s\n", len(contracts), outFlag)
	return nil
}
