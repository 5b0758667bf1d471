// Package rules provides host-side rule management for the expression
// engine: named rule records, persistent stores, file loaders, and an
// evaluation engine with caching and observability hooks.
package rules

import (
	"errors"
)

// Store persists named rules.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a rule, overwriting any rule with the same name.
	Save(rule Rule) error

	// Get retrieves a rule by name.
	// Returns ErrNotFound if no rule has that name.
	Get(name string) (Rule, error)

	// List returns all rules ordered by name.
	// Returns an empty slice (not an error) if the store is empty.
	List() ([]Rule, error)

	// Delete removes a rule by name.
	// Returns nil if the rule doesn't exist.
	Delete(name string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a rule doesn't exist.
	ErrNotFound = errors.New("rule not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("rule store closed")
)
