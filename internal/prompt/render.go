package prompt

import "strings"

// RenderContext provides data for template rendering.
type RenderContext struct {
	Intent     string
	ContractID string
	RepoName   string
	Branch     string
	AppendText string // Optional extra instructions from --append
}

// Render substitutes {{variable}} placeholders in the template content.
func Render(tmpl *Template, ctx *RenderContext) string {
	vars := map[string]string{
		"intent":      ctx.Intent,
		"contract_id": ctx.ContractID,
		"repo_name":   ctx.RepoName,
		"branch":      ctx.Branch,
	}

	result := tmpl.Content
	for key, val := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", val)
	}

	if ctx.AppendText != "" {
		result = result + "\n\n## Additional Instructions\n\n" + ctx.AppendText
	}

	return result
}
