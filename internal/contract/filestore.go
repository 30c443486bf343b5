package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Directory layout under the charter root (.charter/):
//
//	contracts/<id>.json   one durable snapshot per contract
//	contracts/index.json  summary index, updated incrementally per save
//	locks/                advisory lock files
const (
	contractsDirName = "contracts"
	locksDirName     = "locks"
	indexFileName    = "index.json"
)

// FileStore stores one JSON file per contract plus a summary index.
// Index updates are incremental: a save rewrites only its own index entry,
// and both the snapshot write and the index update happen under an
// advisory lock, so concurrent processes on different contracts cannot
// clobber each other's entries.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at the given .charter directory.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Root returns the store's root directory.
func (fs *FileStore) Root() string {
	return fs.root
}

func (fs *FileStore) contractsDir() string {
	return filepath.Join(fs.root, contractsDirName)
}

func (fs *FileStore) locksDir() string {
	return filepath.Join(fs.root, locksDirName)
}

func (fs *FileStore) contractPath(id string) string {
	return filepath.Join(fs.contractsDir(), id+".json")
}

func (fs *FileStore) indexPath() string {
	return filepath.Join(fs.contractsDir(), indexFileName)
}

// Lock acquires the advisory lock for the given contract id. Mutating
// commands hold this for their whole read-modify-write cycle.
func (fs *FileStore) Lock(id string) (*FileLock, error) {
	return AcquireLock(fs.locksDir(), id)
}

// Save writes the contract snapshot atomically and updates its index
// entry. The snapshot is durable before Save returns.
func (fs *FileStore) Save(c *Contract) error {
	if err := os.MkdirAll(fs.contractsDir(), 0o755); err != nil {
		return fmt.Errorf("creating contracts directory: %w", err)
	}

	data, err := c.ToJSON()
	if err != nil {
		return err
	}

	if err := atomicWrite(fs.contractPath(c.ID), data); err != nil {
		return fmt.Errorf("writing contract %s: %w", c.ID, err)
	}

	return fs.updateIndex(IndexEntry{
		ID:        c.ID,
		Intent:    c.Intent,
		State:     c.CurrentState,
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// Load reads the contract with the given ID.
func (fs *FileStore) Load(id string) (*Contract, error) {
	data, err := os.ReadFile(fs.contractPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("reading contract %s: %w", id, err)
	}
	return FromJSON(data)
}

// Exists reports whether a contract snapshot exists for the given ID.
func (fs *FileStore) Exists(id string) bool {
	_, err := os.Stat(fs.contractPath(id))
	return err == nil
}

// List returns index entries for all contracts, newest first.
func (fs *FileStore) List() ([]IndexEntry, error) {
	index, err := fs.readIndex()
	if err != nil {
		return nil, err
	}

	entries := make([]IndexEntry, 0, len(index))
	for _, entry := range index {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt > entries[j].UpdatedAt
	})
	return entries, nil
}

// updateIndex rewrites only this contract's entry, serialized by the
// index lock so saves for different contracts interleave safely.
func (fs *FileStore) updateIndex(entry IndexEntry) error {
	lock, err := AcquireLock(fs.locksDir(), "index")
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	index, err := fs.readIndex()
	if err != nil {
		return err
	}
	index[entry.ID] = entry

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing index: %w", err)
	}
	if err := atomicWrite(fs.indexPath(), data); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// readIndex loads the index map, or an empty one if it does not exist.
func (fs *FileStore) readIndex() (map[string]IndexEntry, error) {
	data, err := os.ReadFile(fs.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]IndexEntry), nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}

	index := make(map[string]IndexEntry)
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	return index, nil
}

// atomicWrite writes data to path using write-to-temp-then-rename.
// The temp file is created in the same directory as path.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
