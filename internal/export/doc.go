// Package export provides formatting and file output for contracts.
//
// This package handles exporting charter contracts to formats suitable
// for documentation, audit archives, and integration with other tools.
//
// # Supported Formats
//
// The package supports two output formats:
//
//   - JSON: Machine-readable format preserving the full contract record
//   - Markdown: Human-readable audit report with YAML frontmatter
//
// # JSON Export
//
// JSON export preserves the complete contract structure:
//
//	export.FormatJSON(printer, contracts)            // Write to printer
//	export.WriteJSONFiles(contracts, "/path/to/dir") // Write individual files
//
// Each contract is written with the full charter.contract/v1 schema,
// including its history and versioning ledger.
//
// # Markdown Export
//
// Markdown export creates documentation-ready audit reports:
//
//	markdown := export.FormatMarkdown(c)            // Get markdown string
//	export.WriteMarkdownFiles(contracts, "/path/to") // Write individual files
//
// The markdown format includes:
//   - YAML frontmatter with schema, id, state, dates, and required controls
//   - Title from the intent
//   - Plan section listing steps in order
//   - Versions section summarizing the ledger
//   - History section with the full audit trail
//
// # File Naming
//
// When writing to files, contracts are named by their ID:
//   - JSON: <contract-id>.json
//   - Markdown: <contract-id>.md
package export
