package services

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"lexivault/application/ports"
	"lexivault/domain/core/entities"
	"lexivault/domain/core/valueobjects"
	"lexivault/domain/events"
	pkgerrors "lexivault/pkg/errors"
)

// RelatedPair is one relation with both endpoints resolved.
type RelatedPair struct {
	Pair valueobjects.WordPair `json:"pair"`
	Low  *entities.Word        `json:"low"`
	High *entities.Word        `json:"high"`
}

// GraphService owns the word relation graph: linking, unlinking and the views
// built from it. It holds no locks; atomicity comes from the RelationStore.
type GraphService struct {
	words     ports.WordStore
	relations ports.RelationStore
	guard     *AccessGuard
	notifier  ports.ChangeNotifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewGraphService creates a new graph service. notifier may be nil.
func NewGraphService(
	words ports.WordStore,
	relations ports.RelationStore,
	guard *AccessGuard,
	notifier ports.ChangeNotifier,
	logger *zap.Logger,
) *GraphService {
	return &GraphService{
		words:     words,
		relations: relations,
		guard:     guard,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Guard exposes the access guard so read paths can share it.
func (s *GraphService) Guard() *AccessGuard {
	return s.guard
}

// Link creates an undirected relation between two words the user owns.
func (s *GraphService) Link(ctx context.Context, userID valueobjects.UserID, a, b valueobjects.WordID) error {
	pair, err := newPair(a, b)
	if err != nil {
		return err
	}

	_, vaultA, err := s.guard.LoadOwned(ctx, userID, a)
	if err != nil {
		return err
	}
	_, vaultB, err := s.guard.LoadOwned(ctx, userID, b)
	if err != nil {
		return err
	}

	res, err := s.relations.TryCreateEdge(ctx, pair)
	switch {
	case errors.Is(err, ports.ErrWordMissing):
		// One endpoint was deleted between the ownership check and the insert.
		return pkgerrors.NewNotFoundError("word").WithCode(pkgerrors.CodeWordNotFound).
			WithDetails(pairDetails(pair))
	case err != nil:
		return storageError("tryCreateEdge", pair, err)
	case res == ports.AlreadyExists:
		return pkgerrors.NewConflictError("words are already linked").
			WithCode(pkgerrors.CodeAlreadyLinked).
			WithDetails(pairDetails(pair))
	}

	s.logger.Info("Words linked",
		zap.Int64("userID", int64(userID)),
		zap.Int64("low", int64(pair.Low)),
		zap.Int64("high", int64(pair.High)),
	)

	at := s.now().UTC()
	s.notify(ctx, ports.InvalidationScope{
		Reason:     events.TypeWordsLinked,
		UserIDs:    []valueobjects.UserID{userID},
		WordIDs:    []valueobjects.WordID{pair.Low, pair.High},
		VaultIDs:   uniqueVaults(vaultA.ID, vaultB.ID),
		OccurredAt: at,
		Event:      events.NewWordsLinked(pair, userID, at),
	})
	return nil
}

// Unlink removes the relation between a and b if present. Removing a relation that
// does not exist succeeds. Ownership is not checked here; see UnlinkOwned.
func (s *GraphService) Unlink(ctx context.Context, a, b valueobjects.WordID) error {
	if !a.Valid() || !b.Valid() {
		return pkgerrors.NewValidationError("word ids must be positive integers")
	}
	if a == b {
		// No self relation can exist.
		return nil
	}
	pair := valueobjects.MustWordPair(a, b)

	res, err := s.relations.RemoveEdge(ctx, pair)
	if err != nil {
		return storageError("removeEdge", pair, err)
	}
	if res == ports.NotFound {
		s.logger.Debug("Unlink of absent relation",
			zap.Int64("low", int64(pair.Low)),
			zap.Int64("high", int64(pair.High)),
		)
		return nil
	}

	s.logger.Info("Words unlinked",
		zap.Int64("low", int64(pair.Low)),
		zap.Int64("high", int64(pair.High)),
	)

	at := s.now().UTC()
	scope := s.resolveScope(ctx, []valueobjects.WordID{pair.Low, pair.High})
	scope.Reason = events.TypeWordsUnlinked
	scope.OccurredAt = at
	scope.Event = events.NewWordsUnlinked(pair, at)
	s.notify(ctx, scope)
	return nil
}

// UnlinkOwned is Unlink preceded by the same ownership checks as Link.
func (s *GraphService) UnlinkOwned(ctx context.Context, userID valueobjects.UserID, a, b valueobjects.WordID) error {
	if a.Valid() && b.Valid() && a != b {
		if _, err := s.guard.AssertOwned(ctx, userID, a); err != nil {
			return err
		}
		if _, err := s.guard.AssertOwned(ctx, userID, b); err != nil {
			return err
		}
	}
	return s.Unlink(ctx, a, b)
}

// RelatedWords returns the neighbors of wordID ordered by id.
func (s *GraphService) RelatedWords(ctx context.Context, wordID valueobjects.WordID) ([]*entities.Word, error) {
	word, err := s.words.Get(ctx, wordID)
	if err != nil {
		return nil, pkgerrors.NewStorageError("getWord", err).
			WithDetails(map[string]interface{}{"word_id": int64(wordID)})
	}
	if word == nil {
		return nil, wordNotFound(wordID)
	}

	neighbors, err := s.relations.NeighborsOf(ctx, wordID)
	if err != nil {
		return nil, pkgerrors.NewStorageError("neighborsOf", err).
			WithDetails(map[string]interface{}{"word_id": int64(wordID)})
	}
	if len(neighbors) == 0 {
		return []*entities.Word{}, nil
	}

	related, err := s.words.GetMany(ctx, neighbors)
	if err != nil {
		return nil, pkgerrors.NewStorageError("getWords", err)
	}
	if len(related) < len(neighbors) {
		s.logger.Warn("Skipping dangling relations",
			zap.Int64("wordID", int64(wordID)),
			zap.Int("neighbors", len(neighbors)),
			zap.Int("resolved", len(related)),
		)
	}

	slices.SortFunc(related, entities.ByID)
	return related, nil
}

// LinkableWords lists the user's words that could be linked to wordID: everything
// in scope except the word itself and its current neighbors, ordered by name.
func (s *GraphService) LinkableWords(ctx context.Context, userID valueobjects.UserID, wordID valueobjects.WordID, scope valueobjects.LinkScope) ([]*entities.Word, error) {
	word, _, err := s.guard.LoadOwned(ctx, userID, wordID)
	if err != nil {
		return nil, err
	}

	neighbors, err := s.relations.NeighborsOf(ctx, wordID)
	if err != nil {
		return nil, pkgerrors.NewStorageError("neighborsOf", err).
			WithDetails(map[string]interface{}{"word_id": int64(wordID)})
	}
	excluded := make(map[valueobjects.WordID]struct{}, len(neighbors)+1)
	excluded[wordID] = struct{}{}
	for _, id := range neighbors {
		excluded[id] = struct{}{}
	}

	all, err := s.words.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.NewStorageError("listWordsByUser", err).
			WithDetails(map[string]interface{}{"user_id": int64(userID)})
	}

	candidates := make([]*entities.Word, 0, len(all))
	for _, w := range all {
		if _, skip := excluded[w.ID]; skip {
			continue
		}
		if scope != valueobjects.ScopeAllVaults && w.VaultID != word.VaultID {
			continue
		}
		candidates = append(candidates, w)
	}

	slices.SortFunc(candidates, entities.ByName)
	return candidates, nil
}

// AllRelations lists every relation touching any of the user's words, one entry
// per pair ordered by (Low, High).
func (s *GraphService) AllRelations(ctx context.Context, userID valueobjects.UserID) ([]RelatedPair, error) {
	owned, err := s.words.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.NewStorageError("listWordsByUser", err).
			WithDetails(map[string]interface{}{"user_id": int64(userID)})
	}
	if len(owned) == 0 {
		return []RelatedPair{}, nil
	}

	byID := make(map[valueobjects.WordID]*entities.Word, len(owned))
	ids := make([]valueobjects.WordID, 0, len(owned))
	for _, w := range owned {
		byID[w.ID] = w
		ids = append(ids, w.ID)
	}

	pairs, err := s.relations.AllEdges(ctx, ids)
	if err != nil {
		return nil, pkgerrors.NewStorageError("allEdges", err).
			WithDetails(map[string]interface{}{"user_id": int64(userID)})
	}

	var missing []valueobjects.WordID
	for _, p := range pairs {
		for _, id := range [2]valueobjects.WordID{p.Low, p.High} {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id)
				byID[id] = nil
			}
		}
	}
	if len(missing) > 0 {
		extra, err := s.words.GetMany(ctx, missing)
		if err != nil {
			return nil, pkgerrors.NewStorageError("getWords", err)
		}
		for _, w := range extra {
			byID[w.ID] = w
		}
	}

	out := make([]RelatedPair, 0, len(pairs))
	for _, p := range pairs {
		low, high := byID[p.Low], byID[p.High]
		if low == nil || high == nil {
			s.logger.Warn("Skipping relation with unresolved endpoint",
				zap.Int64("low", int64(p.Low)),
				zap.Int64("high", int64(p.High)),
			)
			continue
		}
		out = append(out, RelatedPair{Pair: p, Low: low, High: high})
	}
	return out, nil
}

// PurgeWordRelations removes every relation touching wordID. It is called when a
// word is deleted and therefore works whether or not the word still exists.
func (s *GraphService) PurgeWordRelations(ctx context.Context, wordID valueobjects.WordID) (int, error) {
	if !wordID.Valid() {
		return 0, pkgerrors.NewValidationError("word id must be a positive integer")
	}

	neighbors, err := s.relations.NeighborsOf(ctx, wordID)
	if err != nil {
		return 0, pkgerrors.NewStorageError("neighborsOf", err).
			WithDetails(map[string]interface{}{"word_id": int64(wordID)})
	}

	removed, err := s.relations.RemoveAllEdgesTouching(ctx, wordID)
	if err != nil {
		return 0, pkgerrors.NewStorageError("removeAllEdgesTouching", err).
			WithDetails(map[string]interface{}{"word_id": int64(wordID)})
	}
	if removed == 0 {
		s.invalidateAfterCascade(ctx, wordID)
		return 0, nil
	}

	s.logger.Info("Purged word relations",
		zap.Int64("wordID", int64(wordID)),
		zap.Int("removed", removed),
	)

	at := s.now().UTC()
	touched := append([]valueobjects.WordID{wordID}, neighbors...)
	scope := s.resolveScope(ctx, touched)
	scope.Reason = events.TypeWordRelationsPurged
	scope.WordIDs = touched
	scope.OccurredAt = at
	scope.Event = events.NewWordRelationsPurged(wordID, neighbors, removed, at)
	s.notify(ctx, scope)
	return removed, nil
}

// invalidateAfterCascade handles a purge that found nothing to remove. If the word
// is gone, its relations may already have been deleted by the word store (the SQL
// foreign keys cascade) without a notification, and their neighbors can no longer
// be named. Every cached relation view is dropped in that case.
func (s *GraphService) invalidateAfterCascade(ctx context.Context, wordID valueobjects.WordID) {
	word, err := s.words.Get(ctx, wordID)
	if err == nil && word != nil {
		return
	}
	if err != nil {
		s.logger.Warn("Could not check purged word", zap.Int64("wordID", int64(wordID)), zap.Error(err))
	}
	s.notify(ctx, ports.InvalidationScope{
		Reason:     events.TypeWordRelationsPurged,
		WordIDs:    []valueobjects.WordID{wordID},
		OccurredAt: s.now().UTC(),
		Unbounded:  true,
	})
}

// resolveScope finds the vaults and owners of ids. It runs after a mutation has
// been committed, so lookup failures only narrow the scope.
func (s *GraphService) resolveScope(ctx context.Context, ids []valueobjects.WordID) ports.InvalidationScope {
	scope := ports.InvalidationScope{WordIDs: ids}

	words, err := s.words.GetMany(ctx, ids)
	if err != nil {
		s.logger.Warn("Could not resolve invalidation scope", zap.Error(err))
		return scope
	}

	seenVault := make(map[valueobjects.VaultID]struct{})
	seenUser := make(map[valueobjects.UserID]struct{})
	for _, w := range words {
		if _, ok := seenVault[w.VaultID]; ok {
			continue
		}
		seenVault[w.VaultID] = struct{}{}
		scope.VaultIDs = append(scope.VaultIDs, w.VaultID)

		owner, err := s.words.GetVaultOwner(ctx, w.VaultID)
		if err != nil {
			s.logger.Warn("Could not resolve vault owner",
				zap.Int64("vaultID", int64(w.VaultID)),
				zap.Error(err),
			)
			continue
		}
		if _, ok := seenUser[owner]; !ok {
			seenUser[owner] = struct{}{}
			scope.UserIDs = append(scope.UserIDs, owner)
		}
	}
	return scope
}

func (s *GraphService) notify(ctx context.Context, scope ports.InvalidationScope) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Invalidate(ctx, scope); err != nil {
		s.logger.Warn("Change notification failed",
			zap.String("reason", scope.Reason),
			zap.Error(err),
		)
	}
}

func newPair(a, b valueobjects.WordID) (valueobjects.WordPair, error) {
	pair, err := valueobjects.NewWordPair(a, b)
	switch {
	case errors.Is(err, valueobjects.ErrSelfPair):
		return pair, pkgerrors.NewValidationError("a word cannot be linked to itself").
			WithCode(pkgerrors.CodeSelfLink)
	case err != nil:
		return pair, pkgerrors.NewValidationError("word ids must be positive integers")
	}
	return pair, nil
}

func storageError(op string, pair valueobjects.WordPair, err error) *pkgerrors.AppError {
	return pkgerrors.NewStorageError(op, err).WithDetails(pairDetails(pair))
}

func pairDetails(pair valueobjects.WordPair) map[string]interface{} {
	return map[string]interface{}{"low": int64(pair.Low), "high": int64(pair.High)}
}

func uniqueVaults(ids ...valueobjects.VaultID) []valueobjects.VaultID {
	out := make([]valueobjects.VaultID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
