package sql

import (
	"context"
	"errors"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lexivault/application/ports"
	"lexivault/domain/core/valueobjects"
)

// inChunk bounds IN lists below SQLite's bind variable limit.
const inChunk = 400

// RelationStore implements ports.RelationStore on the word_relations table
type RelationStore struct {
	db *gorm.DB
}

func NewRelationStore(db *gorm.DB) *RelationStore {
	return &RelationStore{db: db}
}

// TryCreateEdge is a single INSERT ... ON CONFLICT DO NOTHING. Zero affected rows
// means the primary key already existed.
func (s *RelationStore) TryCreateEdge(ctx context.Context, pair valueobjects.WordPair) (ports.CreateResult, error) {
	row := relationModel{LowID: int64(pair.Low), HighID: int64(pair.High)}
	res := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return 0, ports.ErrWordMissing
		}
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return ports.AlreadyExists, nil
	}
	return ports.Created, nil
}

func (s *RelationStore) RemoveEdge(ctx context.Context, pair valueobjects.WordPair) (ports.RemoveResult, error) {
	res := s.db.WithContext(ctx).
		Where("low_id = ? AND high_id = ?", int64(pair.Low), int64(pair.High)).
		Delete(&relationModel{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return ports.NotFound, nil
	}
	return ports.Removed, nil
}

func (s *RelationStore) NeighborsOf(ctx context.Context, id valueobjects.WordID) ([]valueobjects.WordID, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT high_id FROM word_relations WHERE low_id = ?
		 UNION
		 SELECT low_id FROM word_relations WHERE high_id = ?`,
		int64(id), int64(id),
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}

	out := make([]valueobjects.WordID, 0, len(ids))
	for _, n := range ids {
		out = append(out, valueobjects.WordID(n))
	}
	slices.Sort(out)
	return out, nil
}

func (s *RelationStore) RemoveAllEdgesTouching(ctx context.Context, id valueobjects.WordID) (int, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("low_id = ? OR high_id = ?", int64(id), int64(id)).Delete(&relationModel{})
		removed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

func (s *RelationStore) AllEdges(ctx context.Context, ids []valueobjects.WordID) ([]valueobjects.WordPair, error) {
	seen := make(map[valueobjects.WordPair]struct{})
	var out []valueobjects.WordPair

	for chunk := range slices.Chunk(toInt64s(ids), inChunk) {
		var rows []relationModel
		err := s.db.WithContext(ctx).
			Select("low_id", "high_id").
			Where("low_id IN ? OR high_id IN ?", chunk, chunk).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			p := valueobjects.WordPair{Low: valueobjects.WordID(r.LowID), High: valueobjects.WordID(r.HighID)}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	slices.SortFunc(out, func(a, b valueobjects.WordPair) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return out, nil
}

func toInt64s(ids []valueobjects.WordID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
