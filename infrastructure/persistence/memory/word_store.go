package memory

import (
	"context"
	"fmt"
	"sync"

	"lexivault/application/ports"
	"lexivault/domain/core/entities"
	"lexivault/domain/core/valueobjects"
)

// WordStore is an in-memory ports.WordStore used in development and tests.
type WordStore struct {
	mu     sync.RWMutex
	vaults map[valueobjects.VaultID]*entities.Vault
	words  map[valueobjects.WordID]*entities.Word
}

// NewWordStore creates an empty store
func NewWordStore() *WordStore {
	return &WordStore{
		vaults: make(map[valueobjects.VaultID]*entities.Vault),
		words:  make(map[valueobjects.WordID]*entities.Word),
	}
}

// PutVault inserts or replaces a vault
func (s *WordStore) PutVault(ctx context.Context, v entities.Vault) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaults[v.ID] = &v
	return nil
}

// PutWord inserts or replaces a word. The vault must exist.
func (s *WordStore) PutWord(ctx context.Context, w entities.Word) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vaults[w.VaultID]; !ok {
		return fmt.Errorf("vault %d: %w", w.VaultID, ports.ErrVaultNotFound)
	}
	w.Translations = append([]string(nil), w.Translations...)
	s.words[w.ID] = &w
	return nil
}

// DeleteWord removes a word. Relations are not touched; that is the purge operation's job.
func (s *WordStore) DeleteWord(ctx context.Context, id valueobjects.WordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.words, id)
	return nil
}

func (s *WordStore) exists(id valueobjects.WordID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.words[id]
	return ok
}

func (s *WordStore) Get(ctx context.Context, id valueobjects.WordID) (*entities.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.words[id]
	if !ok {
		return nil, nil
	}
	return copyWord(w), nil
}

func (s *WordStore) GetMany(ctx context.Context, ids []valueobjects.WordID) ([]*entities.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entities.Word, 0, len(ids))
	seen := make(map[valueobjects.WordID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if w, ok := s.words[id]; ok {
			out = append(out, copyWord(w))
		}
	}
	return out, nil
}

func (s *WordStore) ListByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entities.Word
	for _, w := range s.words {
		if v, ok := s.vaults[w.VaultID]; ok && v.UserID == userID {
			out = append(out, copyWord(w))
		}
	}
	return out, nil
}

func (s *WordStore) GetVault(ctx context.Context, id valueobjects.VaultID) (*entities.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vaults[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (s *WordStore) GetVaultOwner(ctx context.Context, id valueobjects.VaultID) (valueobjects.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vaults[id]
	if !ok {
		return 0, ports.ErrVaultNotFound
	}
	return v.UserID, nil
}

func copyWord(w *entities.Word) *entities.Word {
	cp := *w
	cp.Translations = append([]string(nil), w.Translations...)
	if w.Category != nil {
		c := *w.Category
		cp.Category = &c
	}
	return &cp
}
