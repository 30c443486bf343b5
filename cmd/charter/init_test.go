package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitCommand(t *testing.T) {
	dir := setupWorkspace(t)

	result := execCharterJSON(t, dir, "init")

	charterDir, _ := result["charter_dir"].(string)
	if charterDir == "" {
		t.Fatalf("no charter_dir in output: %v", result)
	}

	for _, sub := range charterSubdirs {
		info, err := os.Stat(filepath.Join(charterDir, sub))
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s: %v", sub, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(charterDir, "config.toml"))
	if err != nil {
		t.Fatalf("config.toml not written: %v", err)
	}
	if !strings.Contains(string(data), "runner") {
		t.Errorf("starter config should mention the runner setting:\n%s", data)
	}
}

func TestInitCommand_Idempotent(t *testing.T) {
	dir := setupWorkspace(t)

	execCharterJSON(t, dir, "init")

	result := execCharterJSON(t, dir, "init")
	created, _ := result["created"].([]any)
	if len(created) != 0 {
		t.Errorf("second init created %v, want nothing", created)
	}
	if wrote, _ := result["wrote_config"].(bool); wrote {
		t.Error("second init should not rewrite config.toml")
	}
}

func TestInitCommand_PreservesExistingConfig(t *testing.T) {
	dir := setupWorkspace(t)
	execCharterJSON(t, dir, "init")

	configPath := filepath.Join(dir, charterDirName, "config.toml")
	custom := "runner = [\"my-agent\"]\n"
	if err := os.WriteFile(configPath, []byte(custom), 0644); err != nil {
		t.Fatalf("writing custom config: %v", err)
	}

	execCharterJSON(t, dir, "init")

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	if string(data) != custom {
		t.Error("init overwrote an existing config.toml")
	}
}
