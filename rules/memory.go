package rules

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory rule store for testing and embedding.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	rules  map[string]Rule // keyed by rule name
	closed bool
}

// NewMemoryStore creates a new in-memory rule store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules: make(map[string]Rule),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(rule Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	m.rules[rule.Name] = rule
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(name string) (Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Rule{}, ErrStoreClosed
	}

	rule, ok := m.rules[name]
	if !ok {
		return Rule{}, ErrNotFound
	}
	return rule, nil
}

// List implements Store.
func (m *MemoryStore) List() ([]Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	all := make([]Rule, 0, len(m.rules))
	for _, rule := range m.rules {
		all = append(all, rule)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})

	return all, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.rules, name)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.rules = nil
	return nil
}

// Len returns the number of stored rules.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.rules)
}
