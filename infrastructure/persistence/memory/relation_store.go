package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"lexivault/application/ports"
	"lexivault/domain/core/valueobjects"
)

// RelationStore keeps canonical pairs in a map guarded by a single mutex. Holding
// the write lock for the whole of each mutation makes every operation atomic.
type RelationStore struct {
	mu    sync.RWMutex
	pairs map[valueobjects.WordPair]time.Time

	// words, when set, enforces referential integrity on create.
	words *WordStore
}

// NewRelationStore creates a store. words may be nil to skip existence checks.
func NewRelationStore(words *WordStore) *RelationStore {
	return &RelationStore{
		pairs: make(map[valueobjects.WordPair]time.Time),
		words: words,
	}
}

func (s *RelationStore) TryCreateEdge(ctx context.Context, pair valueobjects.WordPair) (ports.CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// Existence is checked under s.mu so a purge after a word deletion always
	// observes the pair.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.words != nil && (!s.words.exists(pair.Low) || !s.words.exists(pair.High)) {
		return 0, ports.ErrWordMissing
	}
	if _, ok := s.pairs[pair]; ok {
		return ports.AlreadyExists, nil
	}
	s.pairs[pair] = time.Now().UTC()
	return ports.Created, nil
}

func (s *RelationStore) RemoveEdge(ctx context.Context, pair valueobjects.WordPair) (ports.RemoveResult, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pairs[pair]; !ok {
		return ports.NotFound, nil
	}
	delete(s.pairs, pair)
	return ports.Removed, nil
}

func (s *RelationStore) NeighborsOf(ctx context.Context, id valueobjects.WordID) ([]valueobjects.WordID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []valueobjects.WordID
	for p := range s.pairs {
		if other, ok := p.Other(id); ok {
			out = append(out, other)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *RelationStore) RemoveAllEdgesTouching(ctx context.Context, id valueobjects.WordID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for p := range s.pairs {
		if p.Touches(id) {
			delete(s.pairs, p)
			removed++
		}
	}
	return removed, nil
}

func (s *RelationStore) AllEdges(ctx context.Context, ids []valueobjects.WordID) ([]valueobjects.WordPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set := make(map[valueobjects.WordID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []valueobjects.WordPair
	for p := range s.pairs {
		_, low := set[p.Low]
		_, high := set[p.High]
		if low || high {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, comparePairs)
	return out, nil
}

// Len returns the number of stored pairs
func (s *RelationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pairs)
}

func comparePairs(a, b valueobjects.WordPair) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
