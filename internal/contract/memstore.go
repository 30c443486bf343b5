package contract

import "sort"

// MemStore is an in-memory Store for tests. Snapshots are deep-copied on
// both save and load so tests observe the same isolation the file store
// provides.
type MemStore struct {
	contracts map[string]*Contract

	// Saves counts Save calls, letting tests assert that history
	// mutations persisted synchronously.
	Saves int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{contracts: make(map[string]*Contract)}
}

// Save stores a deep copy of the contract.
func (m *MemStore) Save(c *Contract) error {
	m.contracts[c.ID] = c.Clone()
	m.Saves++
	return nil
}

// Load returns a deep copy of the stored contract.
func (m *MemStore) Load(id string) (*Contract, error) {
	c, ok := m.contracts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

// List returns index entries for all stored contracts, newest first.
func (m *MemStore) List() ([]IndexEntry, error) {
	entries := make([]IndexEntry, 0, len(m.contracts))
	for _, c := range m.contracts {
		entries = append(entries, IndexEntry{
			ID:        c.ID,
			Intent:    c.Intent,
			State:     c.CurrentState,
			UpdatedAt: c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt > entries[j].UpdatedAt
	})
	return entries, nil
}

// Exists reports whether the contract is stored.
func (m *MemStore) Exists(id string) bool {
	_, ok := m.contracts[id]
	return ok
}
