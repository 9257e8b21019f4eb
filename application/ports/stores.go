package ports

import (
	"context"
	"errors"

	"lexivault/domain/core/entities"
	"lexivault/domain/core/valueobjects"
)

// Sentinel errors stores return for conditions the service layer translates into
// typed application errors.
var (
	// ErrWordMissing is returned by TryCreateEdge when an endpoint does not exist.
	ErrWordMissing = errors.New("word does not exist")
	// ErrVaultNotFound is returned by GetVaultOwner for unknown vaults.
	ErrVaultNotFound = errors.New("vault not found")
)

// CreateResult is the outcome of TryCreateEdge.
type CreateResult int

const (
	Created CreateResult = iota + 1
	AlreadyExists
)

func (r CreateResult) String() string {
	switch r {
	case Created:
		return "created"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// RemoveResult is the outcome of RemoveEdge.
type RemoveResult int

const (
	Removed RemoveResult = iota + 1
	NotFound
)

func (r RemoveResult) String() string {
	switch r {
	case Removed:
		return "removed"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// RelationStore persists canonical word pairs. Every mutating method is a single
// atomic storage operation; callers never need to lock around it.
type RelationStore interface {
	// TryCreateEdge inserts pair unless it already exists.
	TryCreateEdge(ctx context.Context, pair valueobjects.WordPair) (CreateResult, error)

	// RemoveEdge deletes pair if present.
	RemoveEdge(ctx context.Context, pair valueobjects.WordPair) (RemoveResult, error)

	// NeighborsOf returns every word related to id, in either role.
	NeighborsOf(ctx context.Context, id valueobjects.WordID) ([]valueobjects.WordID, error)

	// RemoveAllEdgesTouching deletes every pair with id as an endpoint in one
	// transaction and returns how many were removed.
	RemoveAllEdgesTouching(ctx context.Context, id valueobjects.WordID) (int, error)

	// AllEdges returns each distinct pair with at least one endpoint in ids,
	// ordered by (Low, High).
	AllEdges(ctx context.Context, ids []valueobjects.WordID) ([]valueobjects.WordPair, error)
}

// WordStore is the read side of the vocabulary owned by another component.
type WordStore interface {
	// Get returns nil, nil when the word does not exist.
	Get(ctx context.Context, id valueobjects.WordID) (*entities.Word, error)

	// GetMany omits ids that do not exist.
	GetMany(ctx context.Context, ids []valueobjects.WordID) ([]*entities.Word, error)

	// ListByUser returns every word in every vault the user owns.
	ListByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Word, error)

	// GetVault returns nil, nil when the vault does not exist.
	GetVault(ctx context.Context, id valueobjects.VaultID) (*entities.Vault, error)

	// GetVaultOwner returns ErrVaultNotFound for unknown vaults.
	GetVaultOwner(ctx context.Context, id valueobjects.VaultID) (valueobjects.UserID, error)
}

// VocabularyWriter seeds and maintains vocabulary data. The graph engine never
// calls it; it exists for local development, the operator CLI and tests.
type VocabularyWriter interface {
	PutVault(ctx context.Context, vault entities.Vault) error
	PutWord(ctx context.Context, word entities.Word) error
	DeleteWord(ctx context.Context, id valueobjects.WordID) error
}
