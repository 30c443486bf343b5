package contract

import "errors"

// ErrNotFound is returned when a contract does not exist in the store.
var ErrNotFound = errors.New("contract not found")

// IndexEntry summarizes one contract for listing without loading the
// full snapshot.
type IndexEntry struct {
	ID        string `json:"id"`
	Intent    string `json:"intent"`
	State     State  `json:"state"`
	UpdatedAt string `json:"updated_at"`
}

// Store is the storage boundary the rest of the core treats as given.
// Implementations: FileStore for production, MemStore for tests.
type Store interface {
	// Save durably persists the contract snapshot and updates the index
	// entry for it before returning.
	Save(c *Contract) error

	// Load reads the contract with the given ID.
	// Returns ErrNotFound if it does not exist.
	Load(id string) (*Contract, error)

	// List returns index entries for all contracts, newest first.
	List() ([]IndexEntry, error)

	// Exists reports whether a contract with the given ID is stored.
	Exists(id string) bool
}
