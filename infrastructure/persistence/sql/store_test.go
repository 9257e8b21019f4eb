package sql

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lexivault/application/ports"
	"lexivault/domain/core/entities"
	"lexivault/domain/core/valueobjects"
	"lexivault/infrastructure/persistence/storetest"
	"lexivault/pkg/testutil"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := Open(Options{Driver: DriverSQLite, DSN: dsn, AutoMigrate: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestRelationStore_Conformance(t *testing.T) {
	storetest.RunRelationStoreSuite(t, func(t *testing.T) storetest.Harness {
		db := newTestDB(t)
		words := NewWordStore(db)
		require.NoError(t, words.PutVault(context.Background(), entities.Vault{ID: 1, Name: "v", UserID: 1}))
		return storetest.Harness{
			Store: NewRelationStore(db),
			SeedWords: func(t *testing.T, ids ...valueobjects.WordID) {
				for _, id := range ids {
					w := testutil.NewWordBuilder().WithID(id).InVault(1).Build()
					require.NoError(t, words.PutWord(context.Background(), w))
				}
			},
		}
	})
}

func TestRelationStore_ForeignKeys(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	words := NewWordStore(db)
	relations := NewRelationStore(db)
	require.NoError(t, testutil.Scenario().Load(ctx, words))

	_, err := relations.TryCreateEdge(ctx, valueobjects.MustWordPair(1, 999))
	assert.ErrorIs(t, err, ports.ErrWordMissing)

	res, err := relations.TryCreateEdge(ctx, valueobjects.MustWordPair(1, 2))
	require.NoError(t, err)
	assert.Equal(t, ports.Created, res)

	// Deleting a word cascades to its relations.
	require.NoError(t, words.DeleteWord(ctx, 2))
	n, err := relations.NeighborsOf(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, n)
}

func TestRelationStore_RejectsUnorderedRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, testutil.Scenario().Load(ctx, NewWordStore(db)))

	err := db.WithContext(ctx).Omit("Low", "High").Create(&relationModel{LowID: 3, HighID: 1}).Error
	assert.Error(t, err)

	err = db.WithContext(ctx).Omit("Low", "High").Create(&relationModel{LowID: 2, HighID: 2}).Error
	assert.Error(t, err)
}

func TestWordStore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	words := NewWordStore(db)
	require.NoError(t, testutil.Scenario().Load(ctx, words))

	t.Run("get", func(t *testing.T) {
		w, err := words.Get(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, "hello", w.Name)
		assert.Equal(t, []string{"hola"}, w.Translations)

		missing, err := words.Get(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("get many omits missing", func(t *testing.T) {
		ws, err := words.GetMany(ctx, []valueobjects.WordID{3, 999, 1})
		require.NoError(t, err)
		require.Len(t, ws, 2)
		assert.Equal(t, valueobjects.WordID(1), ws[0].ID)
		assert.Equal(t, valueobjects.WordID(3), ws[1].ID)
	})

	t.Run("list by user spans vaults", func(t *testing.T) {
		ws, err := words.ListByUser(ctx, 7)
		require.NoError(t, err)
		assert.Len(t, ws, 4)

		ws, err = words.ListByUser(ctx, 8)
		require.NoError(t, err)
		assert.Len(t, ws, 1)
	})

	t.Run("vault owner", func(t *testing.T) {
		owner, err := words.GetVaultOwner(ctx, 30)
		require.NoError(t, err)
		assert.Equal(t, valueobjects.UserID(8), owner)

		_, err = words.GetVaultOwner(ctx, 404)
		assert.ErrorIs(t, err, ports.ErrVaultNotFound)
	})

	t.Run("put word into missing vault", func(t *testing.T) {
		err := words.PutWord(ctx, testutil.NewWordBuilder().InVault(404).Build())
		assert.ErrorIs(t, err, ports.ErrVaultNotFound)
	})

	t.Run("put word updates", func(t *testing.T) {
		w := testutil.NewWordBuilder().WithID(3).InVault(10).Named("bye").Build()
		require.NoError(t, words.PutWord(ctx, w))
		got, err := words.Get(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, "bye", got.Name)
	})

	t.Run("nullable category round-trips", func(t *testing.T) {
		w := testutil.NewWordBuilder().WithID(6).InVault(10).Named("greetings").WithCategory("social").Build()
		require.NoError(t, words.PutWord(ctx, w))

		got, err := words.Get(ctx, 6)
		require.NoError(t, err)
		require.NotNil(t, got.Category)
		assert.Equal(t, "social", *got.Category)

		plain, err := words.Get(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, plain.Category)
	})
}
