package sql

import (
	"context"
	"errors"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lexivault/application/ports"
	"lexivault/domain/core/entities"
	"lexivault/domain/core/valueobjects"
)

// WordStore implements ports.WordStore and ports.VocabularyWriter
type WordStore struct {
	db *gorm.DB
}

func NewWordStore(db *gorm.DB) *WordStore {
	return &WordStore{db: db}
}

func (s *WordStore) Get(ctx context.Context, id valueobjects.WordID) (*entities.Word, error) {
	var m wordModel
	err := s.db.WithContext(ctx).Where("id = ?", int64(id)).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.toEntity(), nil
}

func (s *WordStore) GetMany(ctx context.Context, ids []valueobjects.WordID) ([]*entities.Word, error) {
	out := make([]*entities.Word, 0, len(ids))
	for chunk := range slices.Chunk(toInt64s(ids), inChunk) {
		var rows []wordModel
		if err := s.db.WithContext(ctx).Where("id IN ?", chunk).Order("id").Find(&rows).Error; err != nil {
			return nil, err
		}
		for i := range rows {
			out = append(out, rows[i].toEntity())
		}
	}
	return out, nil
}

func (s *WordStore) ListByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Word, error) {
	var rows []wordModel
	err := s.db.WithContext(ctx).
		Joins("JOIN vaults ON vaults.id = words.vault_id").
		Where("vaults.user_id = ?", int64(userID)).
		Order("words.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*entities.Word, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out, nil
}

func (s *WordStore) GetVault(ctx context.Context, id valueobjects.VaultID) (*entities.Vault, error) {
	var m vaultModel
	err := s.db.WithContext(ctx).Where("id = ?", int64(id)).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.toEntity(), nil
}

func (s *WordStore) GetVaultOwner(ctx context.Context, id valueobjects.VaultID) (valueobjects.UserID, error) {
	v, err := s.GetVault(ctx, id)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, ports.ErrVaultNotFound
	}
	return v.UserID, nil
}

// PutVault inserts or updates a vault
func (s *WordStore) PutVault(ctx context.Context, v entities.Vault) error {
	m := vaultModel{ID: int64(v.ID), Name: v.Name, UserID: int64(v.UserID)}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&m).Error
}

// PutWord inserts or updates a word. The vault must exist.
func (s *WordStore) PutWord(ctx context.Context, w entities.Word) error {
	err := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(wordFromEntity(w)).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ports.ErrVaultNotFound
	}
	return err
}

// DeleteWord removes a word; the foreign keys cascade to its relations.
func (s *WordStore) DeleteWord(ctx context.Context, id valueobjects.WordID) error {
	return s.db.WithContext(ctx).Where("id = ?", int64(id)).Delete(&wordModel{}).Error
}
