package queries

import (
	"fmt"

	"lexivault/domain/core/entities"
	"lexivault/domain/core/valueobjects"
	"lexivault/pkg/utils"
)

// Cache key prefixes. The cache invalidator deletes by these prefixes.
const (
	RelatedKeyPrefix   = "related:"
	RelationsKeyPrefix = "relations:"
)

// RelatedKeyPrefixFor returns the prefix of every cached RelatedWords result for a word.
func RelatedKeyPrefixFor(id valueobjects.WordID) string {
	return fmt.Sprintf("%s%d:", RelatedKeyPrefix, id)
}

// RelationsKeyFor returns the cache key of a user's AllRelations result.
func RelationsKeyFor(id valueobjects.UserID) string {
	return fmt.Sprintf("%s%d", RelationsKeyPrefix, id)
}

// RelatedWordsQuery lists the neighbors of a word the user owns.
type RelatedWordsQuery struct {
	UserID valueobjects.UserID `validate:"required,gt=0"`
	WordID valueobjects.WordID `validate:"required,gt=0"`
}

func (q RelatedWordsQuery) Validate() error { return utils.ValidateStruct(q) }

func (q RelatedWordsQuery) CacheKey() string {
	return fmt.Sprintf("%s%d", RelatedKeyPrefixFor(q.WordID), q.UserID)
}

// RelatedWordsResult is the response of RelatedWordsQuery
type RelatedWordsResult struct {
	WordID  valueobjects.WordID `json:"word_id"`
	Related []*entities.Word    `json:"related"`
}

// LinkableWordsQuery lists link candidates for a word. An empty Scope falls back
// to the configured default.
type LinkableWordsQuery struct {
	UserID valueobjects.UserID    `validate:"required,gt=0"`
	WordID valueobjects.WordID    `validate:"required,gt=0"`
	Scope  valueobjects.LinkScope `validate:"omitempty,oneof=vault all"`
}

func (q LinkableWordsQuery) Validate() error { return utils.ValidateStruct(q) }

// LinkableWordsResult is the response of LinkableWordsQuery
type LinkableWordsResult struct {
	WordID     valueobjects.WordID    `json:"word_id"`
	Scope      valueobjects.LinkScope `json:"scope"`
	Candidates []*entities.Word       `json:"candidates"`
}

// AllRelationsQuery lists every relation among the user's words.
type AllRelationsQuery struct {
	UserID valueobjects.UserID `validate:"required,gt=0"`
}

func (q AllRelationsQuery) Validate() error { return utils.ValidateStruct(q) }

func (q AllRelationsQuery) CacheKey() string { return RelationsKeyFor(q.UserID) }

// RelationView is one relation with both endpoints resolved.
type RelationView struct {
	Low  *entities.Word `json:"low"`
	High *entities.Word `json:"high"`
}

// AllRelationsResult is the response of AllRelationsQuery
type AllRelationsResult struct {
	Relations []RelationView `json:"relations"`
	Count     int            `json:"count"`
}
