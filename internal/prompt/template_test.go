package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseTemplateWithFrontmatter(t *testing.T) {
	raw := `---
name: custom
description: A custom template
version: 2
---

Body with {{intent}} placeholder.`

	tmpl, err := parseTemplate(raw)
	if err != nil {
		t.Fatalf("parseTemplate() error = %v", err)
	}
	if tmpl.Name != "custom" {
		t.Errorf("Name = %q", tmpl.Name)
	}
	if tmpl.Description != "A custom template" {
		t.Errorf("Description = %q", tmpl.Description)
	}
	if tmpl.Version != 2 {
		t.Errorf("Version = %d", tmpl.Version)
	}
	if tmpl.Content != "Body with {{intent}} placeholder." {
		t.Errorf("Content = %q", tmpl.Content)
	}
}

func TestParseTemplateWithoutFrontmatter(t *testing.T) {
	tmpl, err := parseTemplate("just content")
	if err != nil {
		t.Fatalf("parseTemplate() error = %v", err)
	}
	if tmpl.Content != "just content" {
		t.Errorf("Content = %q", tmpl.Content)
	}
	if tmpl.Name != "" {
		t.Errorf("Name = %q, want empty", tmpl.Name)
	}
}

func TestParseTemplateUnterminatedFrontmatter(t *testing.T) {
	raw := "---\nname: broken\nno closing delimiter"
	tmpl, err := parseTemplate(raw)
	if err != nil {
		t.Fatalf("parseTemplate() error = %v", err)
	}
	// Treated as plain content when the frontmatter never closes
	if !strings.Contains(tmpl.Content, "no closing delimiter") {
		t.Errorf("Content = %q", tmpl.Content)
	}
}

func TestLoadTemplateBuiltinPlan(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHARTER_CONFIG_HOME", t.TempDir())

	tmpl, err := LoadTemplate("plan")
	if err != nil {
		t.Fatalf("LoadTemplate(plan) error = %v", err)
	}
	if tmpl.Source != "built-in" {
		t.Errorf("Source = %q, want built-in", tmpl.Source)
	}
	if !strings.Contains(tmpl.Content, "{{intent}}") {
		t.Error("built-in plan template missing {{intent}} placeholder")
	}
	if !strings.Contains(tmpl.Content, "plan.v1") {
		t.Error("built-in plan template missing schema version")
	}
}

func TestLoadTemplateProjectOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	tmplDir := filepath.Join(dir, ".charter", "templates")
	if err := os.MkdirAll(tmplDir, 0o755); err != nil {
		t.Fatal(err)
	}
	raw := "---\nname: plan\ndescription: project local\n---\n\nOverridden {{intent}}"
	if err := os.WriteFile(filepath.Join(tmplDir, "plan.md"), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	tmpl, err := LoadTemplate("plan")
	if err != nil {
		t.Fatalf("LoadTemplate(plan) error = %v", err)
	}
	if tmpl.Source != "project" {
		t.Errorf("Source = %q, want project", tmpl.Source)
	}
	if tmpl.Content != "Overridden {{intent}}" {
		t.Errorf("Content = %q", tmpl.Content)
	}
}

func TestLoadTemplateNotFound(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHARTER_CONFIG_HOME", t.TempDir())

	_, err := LoadTemplate("does-not-exist")
	if err == nil {
		t.Fatal("LoadTemplate() expected error for unknown template")
	}
}

func TestListTemplatesMarksOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CHARTER_CONFIG_HOME", t.TempDir())

	tmplDir := filepath.Join(dir, ".charter", "templates")
	if err := os.MkdirAll(tmplDir, 0o755); err != nil {
		t.Fatal(err)
	}
	raw := "---\nname: plan\ndescription: project local\n---\n\nbody"
	if err := os.WriteFile(filepath.Join(tmplDir, "plan.md"), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	infos, err := ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates() error = %v", err)
	}

	var sawProject bool
	for _, info := range infos {
		if info.Name == "plan" && info.Source == "project" {
			sawProject = true
		}
		if info.Name == "plan" && info.Source == "built-in" {
			t.Error("built-in plan listed despite project override")
		}
	}
	if !sawProject {
		t.Error("project plan template not listed")
	}
}

func TestRender(t *testing.T) {
	tmpl := &Template{Content: "Intent: {{intent}}\nRepo: {{repo_name}} ({{branch}})\nID: {{contract_id}}"}

	got := Render(tmpl, &RenderContext{
		Intent:     "fix the flaky test",
		ContractID: "ct_abc",
		RepoName:   "charter",
		Branch:     "main",
	})

	want := "Intent: fix the flaky test\nRepo: charter (main)\nID: ct_abc"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderAppendText(t *testing.T) {
	tmpl := &Template{Content: "base"}

	got := Render(tmpl, &RenderContext{AppendText: "extra guidance"})
	if !strings.Contains(got, "## Additional Instructions") {
		t.Error("append section missing")
	}
	if !strings.HasSuffix(got, "extra guidance") {
		t.Errorf("Render() = %q", got)
	}
}
