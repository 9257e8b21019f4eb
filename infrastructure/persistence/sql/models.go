package sql

import (
	"time"

	"gorm.io/datatypes"

	"lexivault/domain/core/entities"
	"lexivault/domain/core/valueobjects"
)

type vaultModel struct {
	ID     int64  `gorm:"primaryKey;autoIncrement:false"`
	Name   string `gorm:"not null"`
	UserID int64  `gorm:"not null;index"`
}

func (vaultModel) TableName() string { return "vaults" }

type wordModel struct {
	ID               int64       `gorm:"primaryKey;autoIncrement:false"`
	VaultID          int64       `gorm:"not null;index"`
	Vault            *vaultModel `gorm:"constraint:OnDelete:CASCADE"`
	Name             string      `gorm:"not null"`
	GrammaticalClass string
	Category         *string
	Translations     datatypes.JSONSlice[string]
	Confidence       int
	IsSaved          bool
	Frequency        int
}

func (wordModel) TableName() string { return "words" }

// relationModel stores one canonical pair. The composite primary key enforces
// uniqueness, the check constraint forbids self pairs and unordered rows, and the
// foreign keys cascade word deletion.
type relationModel struct {
	LowID     int64      `gorm:"primaryKey;autoIncrement:false;check:chk_word_relations_order,low_id < high_id"`
	HighID    int64      `gorm:"primaryKey;autoIncrement:false;index"`
	Low       *wordModel `gorm:"foreignKey:LowID;constraint:OnDelete:CASCADE"`
	High      *wordModel `gorm:"foreignKey:HighID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (relationModel) TableName() string { return "word_relations" }

func (m *wordModel) toEntity() *entities.Word {
	return &entities.Word{
		ID:               valueobjects.WordID(m.ID),
		VaultID:          valueobjects.VaultID(m.VaultID),
		Name:             m.Name,
		GrammaticalClass: m.GrammaticalClass,
		Category:         m.Category,
		Translations:     append([]string{}, m.Translations...),
		Confidence:       m.Confidence,
		IsSaved:          m.IsSaved,
		Frequency:        m.Frequency,
	}
}

func wordFromEntity(w entities.Word) *wordModel {
	return &wordModel{
		ID:               int64(w.ID),
		VaultID:          int64(w.VaultID),
		Name:             w.Name,
		GrammaticalClass: w.GrammaticalClass,
		Category:         w.Category,
		Translations:     datatypes.JSONSlice[string](w.Translations),
		Confidence:       w.Confidence,
		IsSaved:          w.IsSaved,
		Frequency:        w.Frequency,
	}
}

func (m *vaultModel) toEntity() *entities.Vault {
	return &entities.Vault{
		ID:     valueobjects.VaultID(m.ID),
		Name:   m.Name,
		UserID: valueobjects.UserID(m.UserID),
	}
}
