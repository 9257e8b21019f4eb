package events

import (
	"time"

	"github.com/google/uuid"

	"lexivault/domain/core/valueobjects"
)

// Event types published on the event bus
const (
	TypeWordsLinked         = "words.linked"
	TypeWordsUnlinked       = "words.unlinked"
	TypeWordRelationsPurged = "word.relations_purged"
	TypeWordDeleted         = "word.deleted"
)

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	GetEventID() string
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventID     string    `json:"event_id"`
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetEventID() string      { return e.EventID }
func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, at time.Time) BaseEvent {
	return BaseEvent{
		EventID:     uuid.NewString(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   at,
		Version:     1,
	}
}

// WordsLinked is raised when a new relation is created.
type WordsLinked struct {
	BaseEvent
	Pair   valueobjects.WordPair `json:"pair"`
	UserID valueobjects.UserID   `json:"user_id"`
}

func NewWordsLinked(pair valueobjects.WordPair, userID valueobjects.UserID, at time.Time) WordsLinked {
	return WordsLinked{
		BaseEvent: newBase(pair.String(), TypeWordsLinked, at),
		Pair:      pair,
		UserID:    userID,
	}
}

// WordsUnlinked is raised when an existing relation is removed.
type WordsUnlinked struct {
	BaseEvent
	Pair valueobjects.WordPair `json:"pair"`
}

func NewWordsUnlinked(pair valueobjects.WordPair, at time.Time) WordsUnlinked {
	return WordsUnlinked{
		BaseEvent: newBase(pair.String(), TypeWordsUnlinked, at),
		Pair:      pair,
	}
}

// WordRelationsPurged is raised after every relation of a word was removed.
type WordRelationsPurged struct {
	BaseEvent
	WordID    valueobjects.WordID   `json:"word_id"`
	Neighbors []valueobjects.WordID `json:"neighbors"`
	Removed   int                   `json:"removed"`
}

func NewWordRelationsPurged(wordID valueobjects.WordID, neighbors []valueobjects.WordID, removed int, at time.Time) WordRelationsPurged {
	return WordRelationsPurged{
		BaseEvent: newBase(wordID.String(), TypeWordRelationsPurged, at),
		WordID:    wordID,
		Neighbors: neighbors,
		Removed:   removed,
	}
}

// WordDeleted is consumed, not produced: the vocabulary service emits it and the
// purge worker reacts by removing the word's relations.
type WordDeleted struct {
	WordID  valueobjects.WordID  `json:"word_id"`
	VaultID valueobjects.VaultID `json:"vault_id"`
	UserID  valueobjects.UserID  `json:"user_id"`
}
