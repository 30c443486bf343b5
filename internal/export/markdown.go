// Package export provides formatting and output for contracts.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/output"
)

// FormatMarkdown formats a single contract as a markdown audit report.
// Returns the formatted markdown string.
func FormatMarkdown(c *contract.Contract) string {
	var builder strings.Builder

	writeFrontmatter(&builder, c)
	writeIntent(&builder, c)
	writePlan(&builder, c)
	writeVersions(&builder, c)
	writeHistory(&builder, c)

	return builder.String()
}

// writeFrontmatter writes the YAML frontmatter section.
func writeFrontmatter(builder *strings.Builder, c *contract.Contract) {
	builder.WriteString("---\n")
	builder.WriteString("schema: charter.export/v1\n")
	fmt.Fprintf(builder, "id: %s\n", c.ID)
	fmt.Fprintf(builder, "state: %s\n", c.CurrentState)
	fmt.Fprintf(builder, "created: %s\n", c.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(builder, "updated: %s\n", c.UpdatedAt.Format("2006-01-02"))

	if c.ActiveVersion != nil {
		fmt.Fprintf(builder, "active_version: %d\n", *c.ActiveVersion)
	}
	if len(c.ControlsRequired) > 0 {
		fmt.Fprintf(builder, "controls: [%s]\n", strings.Join(c.ControlsRequired, ", "))
	}

	builder.WriteString("---\n\n")
}

// writeIntent writes the title and approver line.
func writeIntent(builder *strings.Builder, c *contract.Contract) {
	fmt.Fprintf(builder, "# %s\n\n", c.Intent)

	if len(c.Approvals) > 0 {
		last := c.Approvals[len(c.Approvals)-1]
		fmt.Fprintf(builder, "**Approved by:** %s on %s\n\n",
			last.Approver, last.At.Format("2006-01-02"))
	}
}

// writePlan writes the Plan section with steps in attachment order.
func writePlan(builder *strings.Builder, c *contract.Contract) {
	if c.PlanStructured == nil && c.PlanText == "" {
		return
	}

	builder.WriteString("## Plan\n\n")

	if c.PlanStructured == nil {
		builder.WriteString(c.PlanText)
		builder.WriteString("\n\n")
		return
	}

	fmt.Fprintf(builder, "%s\n\n", c.PlanStructured.Title)
	for i, step := range c.PlanStructured.Steps {
		fmt.Fprintf(builder, "%d. **%s** %s\n", i+1, step.ID, step.Summary)
	}
	builder.WriteString("\n")
}

// writeVersions writes the Versions section summarizing the ledger.
func writeVersions(builder *strings.Builder, c *contract.Contract) {
	if len(c.Versions) == 0 {
		return
	}

	builder.WriteString("## Versions\n\n")
	for _, v := range c.Versions {
		fmt.Fprintf(builder, "- v%d %s (%s) %s\n",
			v.Version, v.Kind, v.At.Format("2006-01-02"), v.Note)
	}
	builder.WriteString("\n")
}

// writeHistory writes the History section with the full audit trail.
func writeHistory(builder *strings.Builder, c *contract.Contract) {
	if len(c.History) == 0 {
		return
	}

	builder.WriteString("## History\n\n")
	for _, h := range c.History {
		fmt.Fprintf(builder, "- %s `%s` %s", h.At.Format("2006-01-02 15:04"), h.Label, h.Message)
		if h.Actor != "" {
			fmt.Fprintf(builder, " (%s)", h.Actor)
		}
		builder.WriteString("\n")
	}
}

// WriteMarkdownFiles writes each contract as a separate markdown file to the
// output directory. Files are named <contract-id>.md.
func WriteMarkdownFiles(contracts []*contract.Contract, dir string) error {
	for _, c := range contracts {
		filename := filepath.Join(dir, c.ID+".md")

		content := FormatMarkdown(c)

		if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
			return output.NewSystemError(fmt.Sprintf("failed to write file %s: %v", filename, err))
		}
	}

	return nil
}
