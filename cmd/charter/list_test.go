package main

import (
	"strings"
	"testing"
)

func TestListCommand(t *testing.T) {
	dir := setupWorkspace(t)
	proposeContract(t, dir, "first piece of work")
	planContract(t, dir, "repo:write")

	result := execCharterJSON(t, dir, "list")
	if count := result["count"]; count != float64(2) {
		t.Fatalf("count = %v, want 2", count)
	}
	contracts, _ := result["contracts"].([]any)
	if len(contracts) != 2 {
		t.Fatalf("contracts = %v, want 2 entries", result["contracts"])
	}
}

func TestListCommand_StateFilter(t *testing.T) {
	dir := setupWorkspace(t)
	proposeContract(t, dir, "still a draft")
	planned := planContract(t, dir, "repo:write")

	result := execCharterJSON(t, dir, "list", "--state", "PLANNED")
	if count := result["count"]; count != float64(1) {
		t.Fatalf("count = %v, want 1", count)
	}
	contracts, _ := result["contracts"].([]any)
	entry := contracts[0].(map[string]any)
	if entry["id"] != planned {
		t.Errorf("filtered entry = %v, want %s", entry["id"], planned)
	}
}

func TestListCommand_RejectsUnknownState(t *testing.T) {
	dir := setupWorkspace(t)

	_, err := execCharter(t, dir, "list", "--state", "SHIPPED")
	if err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestListCommand_TruncatesLongIntent(t *testing.T) {
	dir := setupWorkspace(t)
	long := strings.Repeat("very long intent ", 20)
	proposeContract(t, dir, long)

	out, err := execCharter(t, dir, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if strings.Contains(out, long) {
		t.Error("human output should truncate long intents")
	}
}
