package rules_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libdbm/libcel-go/rules"
)

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store := rules.NewMemoryStore()
	defer store.Close()

	rule := rules.NewRule("is-adult", "age >= 18")
	rule.Description = "minimum age gate"
	require.NoError(t, store.Save(rule))

	got, err := store.Get("is-adult")
	require.NoError(t, err)
	assert.Equal(t, rule.ID, got.ID)
	assert.Equal(t, "is-adult", got.Name)
	assert.Equal(t, "age >= 18", got.Expr)
	assert.Equal(t, "minimum age gate", got.Description)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := rules.NewMemoryStore()
	defer store.Close()

	_, err := store.Get("ghost")
	assert.ErrorIs(t, err, rules.ErrNotFound)
}

func TestMemoryStore_SaveOverwritesByName(t *testing.T) {
	store := rules.NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Save(rules.NewRule("limit", "n < 10")))
	require.NoError(t, store.Save(rules.NewRule("limit", "n < 20")))

	got, err := store.Get("limit")
	require.NoError(t, err)
	assert.Equal(t, "n < 20", got.Expr)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_ListOrderedByName(t *testing.T) {
	store := rules.NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Save(rules.NewRule("zeta", "true")))
	require.NoError(t, store.Save(rules.NewRule("alpha", "true")))
	require.NoError(t, store.Save(rules.NewRule("mid", "true")))

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "mid", all[1].Name)
	assert.Equal(t, "zeta", all[2].Name)
}

func TestMemoryStore_ListEmpty(t *testing.T) {
	store := rules.NewMemoryStore()
	defer store.Close()

	all, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := rules.NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Save(rules.NewRule("tmp", "true")))
	require.NoError(t, store.Delete("tmp"))

	_, err := store.Get("tmp")
	assert.ErrorIs(t, err, rules.ErrNotFound)

	// Deleting a missing rule is not an error
	assert.NoError(t, store.Delete("tmp"))
}

func TestMemoryStore_Closed(t *testing.T) {
	store := rules.NewMemoryStore()
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Save(rules.NewRule("x", "true")), rules.ErrStoreClosed)

	_, err := store.Get("x")
	assert.ErrorIs(t, err, rules.ErrStoreClosed)

	_, err = store.List()
	assert.ErrorIs(t, err, rules.ErrStoreClosed)

	assert.ErrorIs(t, store.Delete("x"), rules.ErrStoreClosed)
}

func TestMemoryStore_Len(t *testing.T) {
	store := rules.NewMemoryStore()
	defer store.Close()

	assert.Equal(t, 0, store.Len())

	require.NoError(t, store.Save(rules.NewRule("a", "true")))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Save(rules.NewRule("b", "true")))
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.Delete("a"))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := rules.NewMemoryStore()
	defer store.Close()

	const numGoroutines = 100
	const numOps = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()

			name := "rule-" + string(rune('a'+id%26))
			for j := 0; j < numOps; j++ {
				// Mix of operations
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

	// Should not panic or deadlock
	// Final state doesn't matter, just verifying concurrent safety
}
