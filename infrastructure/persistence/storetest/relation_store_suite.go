// Package storetest holds the behaviour every ports.RelationStore implementation
// must share. Each store package runs the suite from its own tests.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexivault/application/ports"
	"lexivault/domain/core/valueobjects"
)

// Harness is a freshly initialised store plus a way to make word ids valid
// endpoints for stores that enforce referential integrity.
type Harness struct {
	Store     ports.RelationStore
	SeedWords func(t *testing.T, ids ...valueobjects.WordID)
}

type pair = valueobjects.WordPair

var mustPair = valueobjects.MustWordPair

// RunRelationStoreSuite runs the shared conformance tests.
func RunRelationStoreSuite(t *testing.T, newHarness func(t *testing.T) Harness) {
	t.Run("create is idempotent per canonical pair", func(t *testing.T) {
		h := newHarness(t)
		h.SeedWords(t, 1, 2)
		ctx := context.Background()

		res, err := h.Store.TryCreateEdge(ctx, mustPair(1, 2))
		require.NoError(t, err)
		assert.Equal(t, ports.Created, res)

		res, err = h.Store.TryCreateEdge(ctx, mustPair(2, 1))
		require.NoError(t, err)
		assert.Equal(t, ports.AlreadyExists, res)

		edges, err := h.Store.AllEdges(ctx, []valueobjects.WordID{1, 2})
		require.NoError(t, err)
		assert.Equal(t, []pair{mustPair(1, 2)}, edges)
	})

	t.Run("remove reports whether a pair existed", func(t *testing.T) {
		h := newHarness(t)
		h.SeedWords(t, 1, 2)
		ctx := context.Background()

		res, err := h.Store.RemoveEdge(ctx, mustPair(1, 2))
		require.NoError(t, err)
		assert.Equal(t, ports.NotFound, res)

		_, err = h.Store.TryCreateEdge(ctx, mustPair(1, 2))
		require.NoError(t, err)

		res, err = h.Store.RemoveEdge(ctx, mustPair(2, 1))
		require.NoError(t, err)
		assert.Equal(t, ports.Removed, res)

		res, err = h.Store.RemoveEdge(ctx, mustPair(1, 2))
		require.NoError(t, err)
		assert.Equal(t, ports.NotFound, res)
	})

	t.Run("neighbors are symmetric", func(t *testing.T) {
		h := newHarness(t)
		h.SeedWords(t, 1, 2, 3, 4)
		ctx := context.Background()

		for _, p := range []pair{mustPair(1, 2), mustPair(3, 2), mustPair(4, 1)} {
			_, err := h.Store.TryCreateEdge(ctx, p)
			require.NoError(t, err)
		}

		n, err := h.Store.NeighborsOf(ctx, 2)
		require.NoError(t, err)
		assert.ElementsMatch(t, []valueobjects.WordID{1, 3}, n)

		n, err = h.Store.NeighborsOf(ctx, 1)
		require.NoError(t, err)
		assert.ElementsMatch(t, []valueobjects.WordID{2, 4}, n)

		n, err = h.Store.NeighborsOf(ctx, 3)
		require.NoError(t, err)
		assert.ElementsMatch(t, []valueobjects.WordID{2}, n)
	})

	t.Run("neighbors of an isolated word is empty", func(t *testing.T) {
		h := newHarness(t)
		h.SeedWords(t, 9)

		n, err := h.Store.NeighborsOf(context.Background(), 9)
		require.NoError(t, err)
		assert.Empty(t, n)
	})

	t.Run("remove all edges touching a word", func(t *testing.T) {
		h := newHarness(t)
		h.SeedWords(t, 1, 2, 3, 4)
		ctx := context.Background()

		for _, p := range []pair{mustPair(1, 2), mustPair(1, 3), mustPair(4, 1), mustPair(2, 3)} {
			_, err := h.Store.TryCreateEdge(ctx, p)
			require.NoError(t, err)
		}

		removed, err := h.Store.RemoveAllEdgesTouching(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, removed)

		n, err := h.Store.NeighborsOf(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, n)

		edges, err := h.Store.AllEdges(ctx, []valueobjects.WordID{1, 2, 3, 4})
		require.NoError(t, err)
		assert.Equal(t, []pair{mustPair(2, 3)}, edges)

		removed, err = h.Store.RemoveAllEdgesTouching(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("all edges deduplicates and orders pairs", func(t *testing.T) {
		h := newHarness(t)
		h.SeedWords(t, 1, 2, 3, 5, 7)
		ctx := context.Background()

		for _, p := range []pair{mustPair(5, 3), mustPair(1, 2), mustPair(2, 3), mustPair(7, 5)} {
			_, err := h.Store.TryCreateEdge(ctx, p)
			require.NoError(t, err)
		}

		// Both endpoints of 1-2 and 2-3 are in the set; each must appear once.
		edges, err := h.Store.AllEdges(ctx, []valueobjects.WordID{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, []pair{mustPair(1, 2), mustPair(2, 3), mustPair(3, 5)}, edges)

		edges, err = h.Store.AllEdges(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, edges)
	})

	t.Run("concurrent creates of one pair succeed once", func(t *testing.T) {
		h := newHarness(t)
		h.SeedWords(t, 10, 20)
		ctx := context.Background()

		const workers = 16
		results := make(chan ports.CreateResult, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p := mustPair(10, 20)
				if i%2 == 1 {
					p = mustPair(20, 10)
				}
				res, err := h.Store.TryCreateEdge(ctx, p)
				if assert.NoError(t, err) {
					results <- res
				}
			}(i)
		}
		wg.Wait()
		close(results)

		created := 0
		for r := range results {
			if r == ports.Created {
				created++
			}
		}
		assert.Equal(t, 1, created)
	})
}

// NoopSeed is a SeedWords for stores without referential integrity.
func NoopSeed(*testing.T, ...valueobjects.WordID) {}
