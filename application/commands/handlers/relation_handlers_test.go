package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lexivault/application/commands"
	"lexivault/application/commands/bus"
	"lexivault/application/ports"
	"lexivault/application/services"
	"lexivault/domain/core/valueobjects"
	"lexivault/infrastructure/persistence/memory"
	pkgerrors "lexivault/pkg/errors"
	"lexivault/pkg/testutil"
)

type discardNotifier struct{}

func (discardNotifier) Invalidate(context.Context, ports.InvalidationScope) error { return nil }

func newCommandBus(t *testing.T) (*bus.CommandBus, *memory.RelationStore) {
	t.Helper()
	words := memory.NewWordStore()
	require.NoError(t, testutil.Scenario().Load(context.Background(), words))
	relations := memory.NewRelationStore(words)
	logger := zap.NewNop()
	graph := services.NewGraphService(words, relations, services.NewAccessGuard(words, logger), discardNotifier{}, logger)

	b := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	require.NoError(t, Register(b, graph))
	return b, relations
}

func TestLinkWordsHandler(t *testing.T) {
	ctx := context.Background()
	b, relations := newCommandBus(t)

	require.NoError(t, b.Send(ctx, commands.LinkWordsCommand{UserID: 7, WordA: 2, WordB: 1}))
	neighbors, err := relations.NeighborsOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.WordID{2}, neighbors)

	err = b.Send(ctx, commands.LinkWordsCommand{UserID: 7, WordA: 1, WordB: 2})
	assert.True(t, pkgerrors.IsConflict(err))

	err = b.Send(ctx, commands.LinkWordsCommand{UserID: 8, WordA: 1, WordB: 5})
	assert.True(t, pkgerrors.IsNotFound(err))

	err = b.Send(ctx, commands.LinkWordsCommand{UserID: 7, WordA: 1})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestUnlinkWordsHandler(t *testing.T) {
	ctx := context.Background()
	b, relations := newCommandBus(t)
	require.NoError(t, b.Send(ctx, commands.LinkWordsCommand{UserID: 7, WordA: 1, WordB: 2}))
	require.NoError(t, b.Send(ctx, commands.LinkWordsCommand{UserID: 7, WordA: 1, WordB: 3}))

	t.Run("ownership enforced", func(t *testing.T) {
		err := b.Send(ctx, commands.UnlinkWordsCommand{UserID: 8, WordA: 1, WordB: 2, EnforceOwnership: true})
		assert.True(t, pkgerrors.IsNotFound(err))

		err = b.Send(ctx, commands.UnlinkWordsCommand{WordA: 1, WordB: 2, EnforceOwnership: true})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("unlink by pair", func(t *testing.T) {
		require.NoError(t, b.Send(ctx, commands.UnlinkWordsCommand{WordA: 2, WordB: 1}))
		neighbors, err := relations.NeighborsOf(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []valueobjects.WordID{3}, neighbors)

		// Absent relations unlink cleanly.
		assert.NoError(t, b.Send(ctx, commands.UnlinkWordsCommand{WordA: 1, WordB: 2}))
	})
}

func TestPurgeWordRelationsHandler(t *testing.T) {
	ctx := context.Background()
	b, _ := newCommandBus(t)
	require.NoError(t, b.Send(ctx, commands.LinkWordsCommand{UserID: 7, WordA: 1, WordB: 2}))
	require.NoError(t, b.Send(ctx, commands.LinkWordsCommand{UserID: 7, WordA: 1, WordB: 4}))

	_, err := b.Dispatch(ctx, commands.PurgeWordRelationsCommand{UserID: 8, WordID: 1})
	assert.True(t, pkgerrors.IsNotFound(err))

	out, err := b.Dispatch(ctx, commands.PurgeWordRelationsCommand{UserID: 7, WordID: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, out)

	out, err = b.Dispatch(ctx, commands.PurgeWordRelationsCommand{WordID: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, out)
}
