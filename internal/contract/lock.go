package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Lock timing. Acquisition polls until lockWait elapses; a lock file older
// than staleAfter is treated as abandoned by a crashed process and broken.
const (
	lockWait     = 5 * time.Second
	lockPoll     = 50 * time.Millisecond
	staleAfter   = 10 * time.Minute
	lockFileMode = 0o644
)

// FileLock is an advisory per-resource lock backed by an exclusively
// created lock file. It serializes mutating commands on the same contract
// across processes; it does not protect against hostile actors.
type FileLock struct {
	path string
}

// AcquireLock takes the advisory lock for the named resource inside dir.
// It blocks up to lockWait, breaking stale locks, and returns an error if
// another process still holds the lock after that.
func AcquireLock(dir, name string) (*FileLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	path := filepath.Join(dir, name+".lock")
	deadline := time.Now().Add(lockWait)

	for {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, lockFileMode)
		if err == nil {
			_, _ = file.WriteString(strconv.Itoa(os.Getpid()))
			_ = file.Close()
			return &FileLock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("creating lock file %s: %w", path, err)
		}

		if info, statErr := os.Stat(path); statErr == nil && time.Since(info.ModTime()) > staleAfter {
			_ = os.Remove(path)
			continue
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("resource %s is locked by another charter process", name)
		}
		time.Sleep(lockPoll)
	}
}

// Release removes the lock file. Safe to call once per acquired lock.
func (l *FileLock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("releasing lock %s: %w", l.path, err)
	}
	return nil
}
