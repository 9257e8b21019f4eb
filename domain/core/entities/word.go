package entities

import (
	"strings"

	"lexivault/domain/core/valueobjects"
)

// Word is the engine's read model of a vocabulary entry. The engine never mutates
// words; they are owned by the vocabulary collaborator.
type Word struct {
	ID               valueobjects.WordID  `json:"id"`
	VaultID          valueobjects.VaultID `json:"vault_id"`
	Name             string               `json:"name"`
	GrammaticalClass string               `json:"grammatical_class"`
	Category         *string              `json:"category,omitempty"`
	Translations     []string             `json:"translations"`
	Confidence       int                  `json:"confidence"`
	IsSaved          bool                 `json:"is_saved"`
	Frequency        int                  `json:"frequency"`
}

// Vault groups words and carries their ownership.
type Vault struct {
	ID     valueobjects.VaultID `json:"id"`
	Name   string               `json:"name"`
	UserID valueobjects.UserID  `json:"user_id"`
}

// OwnedBy reports whether the vault belongs to user.
func (v *Vault) OwnedBy(user valueobjects.UserID) bool {
	return v != nil && v.UserID == user
}

// ByName orders words for pickers: case-insensitive name, then exact name, then id.
func ByName(a, b *Word) int {
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return compareIDs(a.ID, b.ID)
}

// ByID orders words by id.
func ByID(a, b *Word) int {
	return compareIDs(a.ID, b.ID)
}

func compareIDs(a, b valueobjects.WordID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
