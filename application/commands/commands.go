package commands

import (
	"lexivault/domain/core/valueobjects"
	pkgerrors "lexivault/pkg/errors"
	"lexivault/pkg/utils"
)

// LinkWordsCommand relates two words owned by UserID. Self links are rejected by
// the graph service so they surface with their dedicated error code.
type LinkWordsCommand struct {
	UserID valueobjects.UserID `json:"user_id" validate:"required,gt=0"`
	WordA  valueobjects.WordID `json:"word_a" validate:"required,gt=0"`
	WordB  valueobjects.WordID `json:"word_b" validate:"required,gt=0"`
}

func (c LinkWordsCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// UnlinkWordsCommand removes the relation between two words. When EnforceOwnership
// is set both words must belong to UserID.
type UnlinkWordsCommand struct {
	UserID           valueobjects.UserID `json:"user_id"`
	WordA            valueobjects.WordID `json:"word_a" validate:"required,gt=0"`
	WordB            valueobjects.WordID `json:"word_b" validate:"required,gt=0"`
	EnforceOwnership bool                `json:"-"`
}

func (c UnlinkWordsCommand) Validate() error {
	if c.EnforceOwnership && !c.UserID.Valid() {
		return pkgerrors.NewValidationError("userid is required")
	}
	return utils.ValidateStruct(c)
}

// PurgeWordRelationsCommand removes every relation of a word. Event consumers leave
// UserID empty because the word is already gone; API callers set it and must own the word.
type PurgeWordRelationsCommand struct {
	UserID valueobjects.UserID `json:"user_id,omitempty"`
	WordID valueobjects.WordID `json:"word_id" validate:"required,gt=0"`
}

func (c PurgeWordRelationsCommand) Validate() error {
	return utils.ValidateStruct(c)
}
