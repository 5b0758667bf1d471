package rules_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libdbm/libcel-go/rules"
)

func TestSQLiteStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "rules.db")

	// First store instance
	store1, err := rules.NewSQLiteStore(dbPath)
	require.NoError(t, err)

	rule := rules.NewRule("is-adult", "age >= 18")
	rule.Description = "minimum age gate"
	require.NoError(t, store1.Save(rule))
	require.NoError(t, store1.Close())

	// Second store instance (reopening the database)
	store2, err := rules.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	got, err := store2.Get("is-adult")
	require.NoError(t, err)
	assert.Equal(t, rule.ID, got.ID)
	assert.Equal(t, rule.Expr, got.Expr)
	assert.Equal(t, rule.Description, got.Description)
	assert.WithinDuration(t, rule.CreatedAt, got.CreatedAt, time.Second)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := rules.NewSQLiteStore("/nonexistent/path/rules.db")
	assert.Error(t, err)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store, err := rules.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get("ghost")
	assert.ErrorIs(t, err, rules.ErrNotFound)
}

func TestSQLiteStore_SaveOverwritesByName(t *testing.T) {
	store, err := rules.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(rules.NewRule("limit", "n < 10")))
	require.NoError(t, store.Save(rules.NewRule("limit", "n < 20")))

	got, err := store.Get("limit")
	require.NoError(t, err)
	assert.Equal(t, "n < 20", got.Expr)

	all, err := store.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStore_ListOrderedByName(t *testing.T) {
	store, err := rules.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(rules.NewRule("zeta", "true")))
	require.NoError(t, store.Save(rules.NewRule("alpha", "true")))

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "zeta", all[1].Name)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store, err := rules.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(rules.NewRule("tmp", "true")))
	require.NoError(t, store.Delete("tmp"))

	_, err = store.Get("tmp")
	assert.ErrorIs(t, err, rules.ErrNotFound)

	// Deleting a missing rule is not an error
	assert.NoError(t, store.Delete("tmp"))
}

func TestSQLiteStore_CloseIdempotent(t *testing.T) {
	store, err := rules.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	// Close multiple times should be safe
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_Closed(t *testing.T) {
	store, err := rules.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Save(rules.NewRule("x", "true")), rules.ErrStoreClosed)

	_, err = store.Get("x")
	assert.ErrorIs(t, err, rules.ErrStoreClosed)
}

func TestSQLiteStore_Concurrent(t *testing.T) {
	store, err := rules.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	const numGoroutines = 50
	const numOps = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()

			name := "rule-" + string(rune('a'+id%26))
			for j := 0; j < numOps; j++ {
				switch j % 4 {
				case 0, 1:
					_ = store.Save(rules.NewRule(name, "true"))
				case 2:
					_, _ = store.Get(name)
				case 3:
					_, _ = store.List()
				}
			}
		}(i)
	}

	wg.Wait()
}
