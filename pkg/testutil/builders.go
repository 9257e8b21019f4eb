// Package testutil provides fixtures shared by tests across packages.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"

	"lexivault/application/ports"
	"lexivault/domain/core/entities"
	"lexivault/domain/core/valueobjects"
)

var nextWordID atomic.Int64

// WordBuilder helps create test words with default values
type WordBuilder struct {
	word entities.Word
}

func NewWordBuilder() *WordBuilder {
	id := valueobjects.WordID(nextWordID.Add(1) + 1000)
	return &WordBuilder{word: entities.Word{
		ID:               id,
		VaultID:          1,
		Name:             fmt.Sprintf("word-%d", id),
		GrammaticalClass: "noun",
		Translations:     []string{},
		Confidence:       1,
	}}
}

func (b *WordBuilder) WithID(id valueobjects.WordID) *WordBuilder {
	b.word.ID = id
	return b
}

func (b *WordBuilder) InVault(id valueobjects.VaultID) *WordBuilder {
	b.word.VaultID = id
	return b
}

func (b *WordBuilder) Named(name string) *WordBuilder {
	b.word.Name = name
	return b
}

func (b *WordBuilder) WithClass(class string) *WordBuilder {
	b.word.GrammaticalClass = class
	return b
}

func (b *WordBuilder) WithCategory(category string) *WordBuilder {
	b.word.Category = &category
	return b
}

func (b *WordBuilder) WithTranslations(t ...string) *WordBuilder {
	b.word.Translations = t
	return b
}

func (b *WordBuilder) Build() entities.Word {
	return b.word
}

// Vocabulary is a set of vaults and words that can be loaded into any store.
type Vocabulary struct {
	Vaults []entities.Vault
	Words  []entities.Word
}

// Vault appends a vault owned by user
func (v *Vocabulary) Vault(id valueobjects.VaultID, user valueobjects.UserID) *Vocabulary {
	v.Vaults = append(v.Vaults, entities.Vault{ID: id, Name: fmt.Sprintf("vault-%d", id), UserID: user})
	return v
}

// Word appends a word
func (v *Vocabulary) Word(b *WordBuilder) *Vocabulary {
	v.Words = append(v.Words, b.Build())
	return v
}

// Load writes the vocabulary through w
func (v *Vocabulary) Load(ctx context.Context, w ports.VocabularyWriter) error {
	for _, vault := range v.Vaults {
		if err := w.PutVault(ctx, vault); err != nil {
			return err
		}
	}
	for _, word := range v.Words {
		if err := w.PutWord(ctx, word); err != nil {
			return err
		}
	}
	return nil
}

// Scenario is the vocabulary used by most graph tests:
//
//	user 7: vault 10 {1 "hello", 2 "hi", 3 "goodbye"}, vault 20 {4 "farewell"}
//	user 8: vault 30 {5 "hallo"}
func Scenario() *Vocabulary {
	v := &Vocabulary{}
	v.Vault(10, 7).Vault(20, 7).Vault(30, 8)
	v.Word(NewWordBuilder().WithID(1).InVault(10).Named("hello").WithTranslations("hola"))
	v.Word(NewWordBuilder().WithID(2).InVault(10).Named("hi").WithClass("interjection"))
	v.Word(NewWordBuilder().WithID(3).InVault(10).Named("goodbye"))
	v.Word(NewWordBuilder().WithID(4).InVault(20).Named("farewell"))
	v.Word(NewWordBuilder().WithID(5).InVault(30).Named("hallo"))
	return v
}
