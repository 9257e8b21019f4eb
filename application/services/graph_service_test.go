package services

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lexivault/application/ports"
	"lexivault/application/ports/mocks"
	"lexivault/domain/core/entities"
	"lexivault/domain/core/valueobjects"
	"lexivault/domain/events"
	"lexivault/infrastructure/persistence/memory"
	pkgerrors "lexivault/pkg/errors"
	"lexivault/pkg/testutil"
)

type graphFixture struct {
	svc       *GraphService
	words     *memory.WordStore
	relations *memory.RelationStore
	notifier  *mocks.MockChangeNotifier
}

func newGraphFixture(t *testing.T, vocab *testutil.Vocabulary) *graphFixture {
	t.Helper()
	words := memory.NewWordStore()
	require.NoError(t, vocab.Load(context.Background(), words))
	relations := memory.NewRelationStore(words)
	notifier := new(mocks.MockChangeNotifier)
	notifier.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Maybe()

	logger := zap.NewNop()
	return &graphFixture{
		svc:       NewGraphService(words, relations, NewAccessGuard(words, logger), notifier, logger),
		words:     words,
		relations: relations,
		notifier:  notifier,
	}
}

func wordIDs(ws []*entities.Word) []valueobjects.WordID {
	out := make([]valueobjects.WordID, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.ID)
	}
	return out
}

func TestGraphService_EndToEndScenario(t *testing.T) {
	// Arrange
	ctx := context.Background()
	vocab := &testutil.Vocabulary{}
	vocab.Vault(10, 7).
		Word(testutil.NewWordBuilder().WithID(1).InVault(10).Named("hello")).
		Word(testutil.NewWordBuilder().WithID(2).InVault(10).Named("hi")).
		Word(testutil.NewWordBuilder().WithID(3).InVault(10).Named("goodbye"))
	f := newGraphFixture(t, vocab)

	// Act & Assert
	require.NoError(t, f.svc.Link(ctx, 7, 1, 2))

	err := f.svc.Link(ctx, 7, 1, 2)
	assert.True(t, pkgerrors.IsConflict(err))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAlreadyLinked))

	related, err := f.svc.RelatedWords(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.WordID{2}, wordIDs(related))

	linkable, err := f.svc.LinkableWords(ctx, 7, 1, valueobjects.ScopeVault)
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.WordID{3}, wordIDs(linkable))

	require.NoError(t, f.svc.Unlink(ctx, 1, 2))

	related, err = f.svc.RelatedWords(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, related)

	assert.NoError(t, f.svc.Unlink(ctx, 1, 2))
}

func TestGraphService_Link_Validation(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t, testutil.Scenario())

	t.Run("self link", func(t *testing.T) {
		err := f.svc.Link(ctx, 7, 1, 1)
		assert.True(t, pkgerrors.IsValidation(err))
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeSelfLink))
		assert.Zero(t, f.relations.Len())
	})

	t.Run("self link checked before ownership", func(t *testing.T) {
		err := f.svc.Link(ctx, 7, 999, 999)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("non positive id", func(t *testing.T) {
		err := f.svc.Link(ctx, 7, 0, 2)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("missing word", func(t *testing.T) {
		err := f.svc.Link(ctx, 7, 1, 999)
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestGraphService_CrossUserIsolation(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t, testutil.Scenario())

	// Word 5 belongs to user 8.
	err := f.svc.Link(ctx, 7, 1, 5)
	assert.True(t, pkgerrors.IsNotFound(err))

	err = f.svc.Link(ctx, 8, 5, 1)
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = f.svc.LinkableWords(ctx, 8, 1, valueobjects.ScopeAllVaults)
	assert.True(t, pkgerrors.IsNotFound(err))

	// Not-owned and nonexistent are indistinguishable.
	errOther := f.svc.Link(ctx, 7, 1, 5)
	errMissing := f.svc.Link(ctx, 7, 1, 12345)
	assert.Equal(t, pkgerrors.GetAppError(errOther).Type, pkgerrors.GetAppError(errMissing).Type)
	assert.Equal(t, pkgerrors.GetAppError(errOther).Message, pkgerrors.GetAppError(errMissing).Message)

	assert.Zero(t, f.relations.Len())
}

func TestGraphService_Symmetry(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t, testutil.Scenario())

	require.NoError(t, f.svc.Link(ctx, 7, 3, 1))

	fromLow, err := f.svc.RelatedWords(ctx, 1)
	require.NoError(t, err)
	fromHigh, err := f.svc.RelatedWords(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, []valueobjects.WordID{3}, wordIDs(fromLow))
	assert.Equal(t, []valueobjects.WordID{1}, wordIDs(fromHigh))
}

func TestGraphService_NoDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t, testutil.Scenario())

	require.NoError(t, f.svc.Link(ctx, 7, 1, 2))
	err := f.svc.Link(ctx, 7, 2, 1)

	assert.True(t, pkgerrors.IsConflict(err))
	assert.Equal(t, 1, f.relations.Len())
}

func TestGraphService_ConcurrentLinkSameCanonicalPair(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t, testutil.Scenario())

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := valueobjects.WordID(1), valueobjects.WordID(2)
			if i%2 == 0 {
				a, b = b, a
			}
			err := f.svc.Link(ctx, 7, a, b)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case pkgerrors.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, 1, f.relations.Len())
}

func TestGraphService_LinkableWords_ScopeCorrectness(t *testing.T) {
	ctx := context.Background()
	vocab := &testutil.Vocabulary{}
	vocab.Vault(10, 7).Vault(20, 7).
		Word(testutil.NewWordBuilder().WithID(1).InVault(10).Named("apple")).
		Word(testutil.NewWordBuilder().WithID(3).InVault(10).Named("banana")).
		Word(testutil.NewWordBuilder().WithID(4).InVault(20).Named("cherry"))
	f := newGraphFixture(t, vocab)

	inVault, err := f.svc.LinkableWords(ctx, 7, 1, valueobjects.ScopeVault)
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.WordID{3}, wordIDs(inVault))

	all, err := f.svc.LinkableWords(ctx, 7, 1, valueobjects.ScopeAllVaults)
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.WordID{3, 4}, wordIDs(all))
}

func TestGraphService_LinkableWords_ExcludesNeighborsAndOrdersByName(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t, testutil.Scenario())
	require.NoError(t, f.svc.Link(ctx, 7, 1, 2))

	all, err := f.svc.LinkableWords(ctx, 7, 1, valueobjects.ScopeAllVaults)
	require.NoError(t, err)

	// "farewell" (4) sorts before "goodbye" (3); 1 is the word, 2 is linked, 5 is user 8's.
	assert.Equal(t, []valueobjects.WordID{4, 3}, wordIDs(all))
}

func TestGraphService_AllRelations_Deduplicated(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t, testutil.Scenario())

	require.NoError(t, f.svc.Link(ctx, 7, 2, 1))
	require.NoError(t, f.svc.Link(ctx, 7, 1, 3))
	require.NoError(t, f.svc.Link(ctx, 7, 4, 2))

	got, err := f.svc.AllRelations(ctx, 7)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, valueobjects.MustWordPair(1, 2), got[0].Pair)
	assert.Equal(t, valueobjects.MustWordPair(1, 3), got[1].Pair)
	assert.Equal(t, valueobjects.MustWordPair(2, 4), got[2].Pair)
	assert.Equal(t, "hello", got[0].Low.Name)
	assert.Equal(t, "hi", got[0].High.Name)

	other, err := f.svc.AllRelations(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestGraphService_Unlink_NotifiesOnlyWhenRemoved(t *testing.T) {
	ctx := context.Background()
	words := memory.NewWordStore()
	require.NoError(t, testutil.Scenario().Load(ctx, words))
	relations := memory.NewRelationStore(words)
	notifier := new(mocks.MockChangeNotifier)
	logger := zap.NewNop()
	svc := NewGraphService(words, relations, NewAccessGuard(words, logger), notifier, logger)

	notifier.On("Invalidate", ctx, mock.MatchedBy(func(s ports.InvalidationScope) bool {
		return s.Reason == events.TypeWordsLinked
	})).Return(nil).Once()
	notifier.On("Invalidate", ctx, mock.MatchedBy(func(s ports.InvalidationScope) bool {
		return s.Reason == events.TypeWordsUnlinked &&
			assert.ObjectsAreEqual([]valueobjects.WordID{1, 4}, s.WordIDs) &&
			assert.ObjectsAreEqual([]valueobjects.VaultID{10, 20}, s.VaultIDs) &&
			assert.ObjectsAreEqual([]valueobjects.UserID{7}, s.UserIDs)
	})).Return(nil).Once()

	require.NoError(t, svc.Link(ctx, 7, 1, 4))
	require.NoError(t, svc.Unlink(ctx, 4, 1))
	require.NoError(t, svc.Unlink(ctx, 4, 1))
	require.NoError(t, svc.Unlink(ctx, 3, 3))

	notifier.AssertExpectations(t)
}

func TestGraphService_NotifierFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	words := memory.NewWordStore()
	require.NoError(t, testutil.Scenario().Load(ctx, words))
	notifier := new(mocks.MockChangeNotifier)
	notifier.On("Invalidate", mock.Anything, mock.Anything).Return(stderrors.New("redis down"))
	logger := zap.NewNop()
	svc := NewGraphService(words, memory.NewRelationStore(words), NewAccessGuard(words, logger), notifier, logger)

	assert.NoError(t, svc.Link(ctx, 7, 1, 2))
	notifier.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestGraphService_StorageErrorsCarryContext(t *testing.T) {
	ctx := context.Background()
	words := memory.NewWordStore()
	require.NoError(t, testutil.Scenario().Load(ctx, words))
	relations := new(mocks.MockRelationStore)
	cause := stderrors.New("connection refused")
	relations.On("TryCreateEdge", ctx, valueobjects.MustWordPair(1, 2)).Return(ports.CreateResult(0), cause)
	logger := zap.NewNop()
	svc := NewGraphService(words, relations, NewAccessGuard(words, logger), nil, logger)

	err := svc.Link(ctx, 7, 2, 1)

	require.True(t, pkgerrors.IsStorage(err))
	assert.ErrorIs(t, err, cause)
	appErr := pkgerrors.GetAppError(err)
	assert.Equal(t, "tryCreateEdge", appErr.Details["operation"])
	assert.Equal(t, int64(1), appErr.Details["low"])
	assert.Equal(t, int64(2), appErr.Details["high"])
}

func TestGraphService_LinkRacingDeletion(t *testing.T) {
	ctx := context.Background()
	words := memory.NewWordStore()
	require.NoError(t, testutil.Scenario().Load(ctx, words))
	relations := new(mocks.MockRelationStore)
	relations.On("TryCreateEdge", ctx, valueobjects.MustWordPair(1, 2)).Return(ports.CreateResult(0), ports.ErrWordMissing)
	logger := zap.NewNop()
	svc := NewGraphService(words, relations, NewAccessGuard(words, logger), nil, logger)

	err := svc.Link(ctx, 7, 1, 2)

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestGraphService_RelatedWords(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t, testutil.Scenario())

	_, err := f.svc.RelatedWords(ctx, 999)
	assert.True(t, pkgerrors.IsNotFound(err))

	require.NoError(t, f.svc.Link(ctx, 7, 1, 3))
	require.NoError(t, f.svc.Link(ctx, 7, 1, 2))
	require.NoError(t, f.svc.Link(ctx, 7, 1, 4))

	// A word deleted without purging leaves a dangling relation; it is skipped.
	require.NoError(t, f.words.DeleteWord(ctx, 4))

	related, err := f.svc.RelatedWords(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.WordID{2, 3}, wordIDs(related))
}

func TestGraphService_PurgeWordRelations(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t, testutil.Scenario())

	require.NoError(t, f.svc.Link(ctx, 7, 1, 2))
	require.NoError(t, f.svc.Link(ctx, 7, 1, 3))
	require.NoError(t, f.svc.Link(ctx, 7, 2, 3))
	require.NoError(t, f.words.DeleteWord(ctx, 1))

	removed, err := f.svc.PurgeWordRelations(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	related, err := f.svc.RelatedWords(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.WordID{3}, wordIDs(related))

	removed, err = f.svc.PurgeWordRelations(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, removed)

	f.notifier.AssertCalled(t, "Invalidate", mock.Anything, mock.MatchedBy(func(s ports.InvalidationScope) bool {
		return s.Reason == events.TypeWordRelationsPurged
	}))
}

func TestGraphService_PurgeWithoutRelations(t *testing.T) {
	ctx := context.Background()
	unbounded := mock.MatchedBy(func(s ports.InvalidationScope) bool { return s.Unbounded })

	t.Run("existing word sends nothing", func(t *testing.T) {
		f := newGraphFixture(t, testutil.Scenario())
		removed, err := f.svc.PurgeWordRelations(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, removed)
		f.notifier.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})

	t.Run("deleted word drops every relation view", func(t *testing.T) {
		f := newGraphFixture(t, testutil.Scenario())
		require.NoError(t, f.words.DeleteWord(ctx, 2))
		removed, err := f.svc.PurgeWordRelations(ctx, 2)
		require.NoError(t, err)
		assert.Zero(t, removed)
		f.notifier.AssertCalled(t, "Invalidate", mock.Anything, unbounded)
	})
}

func TestGraphService_UnlinkOwned(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t, testutil.Scenario())
	require.NoError(t, f.svc.Link(ctx, 7, 1, 2))

	err := f.svc.UnlinkOwned(ctx, 8, 1, 2)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, 1, f.relations.Len())

	require.NoError(t, f.svc.UnlinkOwned(ctx, 7, 1, 2))
	assert.Zero(t, f.relations.Len())
}

func TestAccessGuard_AssertOwned(t *testing.T) {
	ctx := context.Background()
	words := memory.NewWordStore()
	require.NoError(t, testutil.Scenario().Load(ctx, words))
	guard := NewAccessGuard(words, zap.NewNop())

	vault, err := guard.AssertOwned(ctx, 7, 4)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.VaultID(20), vault.ID)

	_, err = guard.AssertOwned(ctx, 7, 5)
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = guard.AssertOwned(ctx, 7, 404)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestAccessGuard_StorageFailure(t *testing.T) {
	ctx := context.Background()
	words := new(mocks.MockWordStore)
	words.On("Get", ctx, valueobjects.WordID(1)).Return(nil, stderrors.New("db down"))
	guard := NewAccessGuard(words, zap.NewNop())

	_, err := guard.AssertOwned(ctx, 7, 1)

	assert.True(t, pkgerrors.IsStorage(err))
}
