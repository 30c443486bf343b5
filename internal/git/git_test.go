package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initTestRepo creates a git repository in a temp dir and chdirs into it.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	runTestGit(t, dir, "init")
	runTestGit(t, dir, "config", "user.email", "test@test.com")
	runTestGit(t, dir, "config", "user.name", "Test User")
	return dir
}

func runTestGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

func writeAndCommit(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	runTestGit(t, dir, "add", name)
	runTestGit(t, dir, "commit", "-m", "add "+name)
}

func TestIsRepoAndRoot(t *testing.T) {
	dir := initTestRepo(t)

	if !IsRepo() {
		t.Fatal("IsRepo() = false inside a repository")
	}

	root, err := RepoRoot()
	if err != nil {
		t.Fatalf("RepoRoot() error = %v", err)
	}
	// Resolve symlinks (macOS /var vs /private/var temp dirs).
	wantRoot, _ := filepath.EvalSymlinks(dir)
	gotRoot, _ := filepath.EvalSymlinks(root)
	if gotRoot != wantRoot {
		t.Errorf("RepoRoot() = %q, want %q", gotRoot, wantRoot)
	}
}

func TestHEAD(t *testing.T) {
	dir := initTestRepo(t)
	writeAndCommit(t, dir, "a.txt", "a")

	sha, err := HEAD()
	if err != nil {
		t.Fatalf("HEAD() error = %v", err)
	}
	if len(sha) != 40 {
		t.Errorf("HEAD() = %q, want 40-char SHA", sha)
	}
}

func TestUncommittedPaths(t *testing.T) {
	dir := initTestRepo(t)
	writeAndCommit(t, dir, "a.txt", "a")

	paths, err := UncommittedPaths()
	if err != nil {
		t.Fatalf("UncommittedPaths() error = %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("clean tree should have no uncommitted paths, got %v", paths)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o600); err != nil {
		t.Fatalf("write b.txt: %v", err)
	}

	paths, err = UncommittedPaths()
	if err != nil {
		t.Fatalf("UncommittedPaths() error = %v", err)
	}
	if len(paths) != 1 || paths[0] != "b.txt" {
		t.Errorf("UncommittedPaths() = %v, want [b.txt]", paths)
	}
}

func TestCommitChanges(t *testing.T) {
	dir := initTestRepo(t)
	writeAndCommit(t, dir, "a.txt", "a")

	// Clean tree: nothing to commit
	res, err := CommitChanges("ct_1", "checkpoint")
	if err != nil {
		t.Fatalf("CommitChanges() error = %v", err)
	}
	if res.Committed {
		t.Error("CommitChanges() on a clean tree should not commit")
	}

	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o600); err != nil {
		t.Fatalf("write b.txt: %v", err)
	}

	res, err = CommitChanges("ct_1", "checkpoint")
	if err != nil {
		t.Fatalf("CommitChanges() error = %v", err)
	}
	if !res.Committed || len(res.SHA) != 40 {
		t.Errorf("CommitChanges() = %+v, want committed with SHA", res)
	}

	out, err := Run("log", "-1", "--pretty=%s")
	if err != nil {
		t.Fatalf("git log: %v", err)
	}
	if !strings.Contains(out, "charter(ct_1)") {
		t.Errorf("commit subject = %q, want contract reference", out)
	}
}
