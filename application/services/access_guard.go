package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"lexivault/application/ports"
	"lexivault/domain/core/entities"
	"lexivault/domain/core/valueobjects"
	pkgerrors "lexivault/pkg/errors"
)

// AccessGuard answers "does this word belong to this user". A missing word and a
// word in someone else's vault produce the same NotFound error so callers cannot
// probe for ids they do not own.
type AccessGuard struct {
	words  ports.WordStore
	logger *zap.Logger
}

// NewAccessGuard creates a guard over the word store
func NewAccessGuard(words ports.WordStore, logger *zap.Logger) *AccessGuard {
	return &AccessGuard{words: words, logger: logger}
}

// AssertOwned returns the vault holding wordID if userID owns it.
func (g *AccessGuard) AssertOwned(ctx context.Context, userID valueobjects.UserID, wordID valueobjects.WordID) (*entities.Vault, error) {
	_, vault, err := g.LoadOwned(ctx, userID, wordID)
	return vault, err
}

// LoadOwned is AssertOwned that also hands back the word record.
func (g *AccessGuard) LoadOwned(ctx context.Context, userID valueobjects.UserID, wordID valueobjects.WordID) (*entities.Word, *entities.Vault, error) {
	word, err := g.words.Get(ctx, wordID)
	if err != nil {
		return nil, nil, pkgerrors.NewStorageError("getWord", err).
			WithDetails(map[string]interface{}{"word_id": int64(wordID)})
	}
	if word == nil {
		return nil, nil, wordNotFound(wordID)
	}

	vault, err := g.words.GetVault(ctx, word.VaultID)
	if err != nil && !errors.Is(err, ports.ErrVaultNotFound) {
		return nil, nil, pkgerrors.NewStorageError("getVault", err).
			WithDetails(map[string]interface{}{"vault_id": int64(word.VaultID)})
	}
	if !vault.OwnedBy(userID) {
		g.logger.Debug("Word not owned by caller",
			zap.Int64("wordID", int64(wordID)),
			zap.Int64("userID", int64(userID)),
		)
		return nil, nil, wordNotFound(wordID)
	}

	return word, vault, nil
}

func wordNotFound(id valueobjects.WordID) *pkgerrors.AppError {
	return pkgerrors.NewNotFoundError("word").
		WithCode(pkgerrors.CodeWordNotFound).
		WithDetails(map[string]interface{}{"word_id": int64(id)})
}
