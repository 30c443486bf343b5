package contract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charterhq/charter/internal/plan"
)

func TestFileStoreSaveLoad(t *testing.T) {
	store := NewFileStore(t.TempDir())
	c := New("migrate database")
	c.PlanStructured = &plan.Plan{
		Version: plan.SchemaVersion,
		Title:   "Migration",
		Steps:   []plan.Step{{ID: "s1", Summary: "Write migration"}},
	}
	c.ControlsRequired = []string{"db:write"}

	if err := store.Save(c); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !store.Exists(c.ID) {
		t.Error("Exists() = false after save")
	}

	loaded, err := store.Load(c.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Intent != "migrate database" {
		t.Errorf("Intent = %q", loaded.Intent)
	}
	if loaded.PlanStructured == nil || loaded.PlanStructured.Steps[0].ID != "s1" {
		t.Errorf("PlanStructured = %+v", loaded.PlanStructured)
	}
	if len(loaded.ControlsRequired) != 1 || loaded.ControlsRequired[0] != "db:write" {
		t.Errorf("ControlsRequired = %v", loaded.ControlsRequired)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Load("ct_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreIndexIsIncremental(t *testing.T) {
	store := NewFileStore(t.TempDir())

	first := New("first")
	second := New("second")
	if err := store.Save(first); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(second); err != nil {
		t.Fatal(err)
	}

	// Re-saving one contract must not drop the other's index entry
	first.CurrentState = StatePlanned
	first.UpdatedAt = time.Now().UTC().Add(time.Minute)
	if err := store.Save(first); err != nil {
		t.Fatal(err)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}
	// Newest first: first was re-saved with a later timestamp
	if entries[0].ID != first.ID || entries[0].State != StatePlanned {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].ID != second.ID {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestFileStoreListEmpty(t *testing.T) {
	store := NewFileStore(t.TempDir())
	entries, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("List() = %v, want empty", entries)
	}
}

func TestFileLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir, "ct_1")
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}

	lockPath := filepath.Join(dir, "ct_1.lock")
	if _, err := os.Stat(lockPath); err != nil {
		t.Errorf("lock file not created: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("lock file still present after release")
	}

	// Reacquire after release succeeds
	lock2, err := AcquireLock(dir, "ct_1")
	if err != nil {
		t.Fatalf("reacquire error = %v", err)
	}
	_ = lock2.Release()
}

func TestFileLockBreaksStaleLock(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "ct_1.lock")
	if err := os.WriteFile(lockPath, []byte("999999"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatal(err)
	}

	lock, err := AcquireLock(dir, "ct_1")
	if err != nil {
		t.Fatalf("AcquireLock() should break stale lock, error = %v", err)
	}
	_ = lock.Release()
}
