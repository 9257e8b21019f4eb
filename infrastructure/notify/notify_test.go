package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lexivault/application/ports"
	"lexivault/application/ports/mocks"
	"lexivault/application/queries"
	"lexivault/domain/core/valueobjects"
	"lexivault/domain/events"
	"lexivault/infrastructure/cache"
)

func linkedScope() ports.InvalidationScope {
	at := time.Unix(1700000000, 0).UTC()
	pair := valueobjects.MustWordPair(1, 2)
	return ports.InvalidationScope{
		Reason:     events.TypeWordsLinked,
		UserIDs:    []valueobjects.UserID{7},
		WordIDs:    []valueobjects.WordID{1, 2},
		VaultIDs:   []valueobjects.VaultID{10},
		OccurredAt: at,
		Event:      events.NewWordsLinked(pair, 7, at),
	}
}

func TestCacheInvalidator(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMemoryCache(time.Hour)
	defer c.Close()

	related1 := queries.RelatedWordsQuery{UserID: 7, WordID: 1}.CacheKey()
	related3 := queries.RelatedWordsQuery{UserID: 7, WordID: 3}.CacheKey()
	relations7 := queries.AllRelationsQuery{UserID: 7}.CacheKey()
	relations8 := queries.AllRelationsQuery{UserID: 8}.CacheKey()
	for _, k := range []string{related1, related3, relations7, relations8} {
		require.NoError(t, c.Set(ctx, k, true, 60))
	}

	inv := NewCacheInvalidator(c, zap.NewNop())
	require.NoError(t, inv.Invalidate(ctx, linkedScope()))

	_, ok := c.Get(ctx, related1)
	assert.False(t, ok)
	_, ok = c.Get(ctx, relations7)
	assert.False(t, ok)
	_, ok = c.Get(ctx, related3)
	assert.True(t, ok)
	_, ok = c.Get(ctx, relations8)
	assert.True(t, ok)
}

func TestCacheInvalidator_UnknownOwnersDropsAllRelations(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMemoryCache(time.Hour)
	defer c.Close()
	require.NoError(t, c.Set(ctx, queries.RelationsKeyFor(8), true, 60))

	inv := NewCacheInvalidator(c, zap.NewNop())
	require.NoError(t, inv.Invalidate(ctx, ports.InvalidationScope{WordIDs: []valueobjects.WordID{3}}))

	assert.Zero(t, c.Len())
}

func TestCacheInvalidator_UnboundedDropsEveryRelationView(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMemoryCache(time.Hour)
	defer c.Close()
	require.NoError(t, c.Set(ctx, queries.RelatedWordsQuery{UserID: 7, WordID: 1}.CacheKey(), true, 60))
	require.NoError(t, c.Set(ctx, queries.RelatedWordsQuery{UserID: 8, WordID: 5}.CacheKey(), true, 60))
	require.NoError(t, c.Set(ctx, queries.RelationsKeyFor(7), true, 60))
	require.NoError(t, c.Set(ctx, "other:1", true, 60))

	inv := NewCacheInvalidator(c, zap.NewNop())
	require.NoError(t, inv.Invalidate(ctx, ports.InvalidationScope{
		Reason:    events.TypeWordRelationsPurged,
		WordIDs:   []valueobjects.WordID{2},
		Unbounded: true,
	}))

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(ctx, "other:1")
	assert.True(t, ok)
}

func TestFanout_DeliversToAllAndJoinsErrors(t *testing.T) {
	ctx := context.Background()
	scope := linkedScope()
	first := new(mocks.MockChangeNotifier)
	second := new(mocks.MockChangeNotifier)
	third := new(mocks.MockChangeNotifier)
	first.On("Invalidate", ctx, scope).Return(stderrors.New("redis down"))
	second.On("Invalidate", ctx, scope).Return(nil)
	third.On("Invalidate", ctx, scope).Return(stderrors.New("throttled"))

	f := NewFanout(Named{"redis", first}, Named{"cache", second})
	f.Add("events", third)

	err := f.Invalidate(ctx, scope)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: redis down")
	assert.Contains(t, err.Error(), "events: throttled")
	assert.Equal(t, 3, f.Len())
	first.AssertExpectations(t)
	second.AssertExpectations(t)
	third.AssertExpectations(t)
}

func TestEventNotifier(t *testing.T) {
	ctx := context.Background()
	scope := linkedScope()
	pub := new(mocks.MockEventPublisher)
	pub.On("Publish", ctx, scope.Event).Return(nil).Once()

	n := NewEventNotifier(pub)
	require.NoError(t, n.Invalidate(ctx, scope))
	require.NoError(t, n.Invalidate(ctx, ports.InvalidationScope{Reason: "manual"}))

	pub.AssertExpectations(t)
}

type fakeRedis struct {
	channel string
	payload []byte
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	return goredis.NewIntResult(1, f.err)
}

func TestRedisNotifier_PublishAndApply(t *testing.T) {
	ctx := context.Background()
	rdb := &fakeRedis{}
	sender := NewRedisNotifier(rdb, "relations", "instance-a", zap.NewNop())

	require.NoError(t, sender.Invalidate(ctx, linkedScope()))
	assert.Equal(t, "relations", rdb.channel)

	var msg invalidationMessage
	require.NoError(t, json.Unmarshal(rdb.payload, &msg))
	assert.Equal(t, "instance-a", msg.Origin)
	assert.Equal(t, []valueobjects.WordID{1, 2}, msg.Scope.WordIDs)

	target := new(mocks.MockChangeNotifier)
	target.On("Invalidate", ctx, mock.MatchedBy(func(s ports.InvalidationScope) bool {
		return s.Reason == events.TypeWordsLinked && len(s.UserIDs) == 1 && s.UserIDs[0] == 7
	})).Return(nil).Once()

	// Own messages are ignored, remote ones applied, garbage skipped.
	sender.apply(ctx, string(rdb.payload), target)
	receiver := NewRedisNotifier(rdb, "relations", "instance-b", zap.NewNop())
	receiver.apply(ctx, string(rdb.payload), target)
	receiver.apply(ctx, "{not json", target)

	target.AssertExpectations(t)
}

func TestRedisNotifier_PublishError(t *testing.T) {
	n := NewRedisNotifier(&fakeRedis{err: stderrors.New("connection refused")}, "relations", "a", zap.NewNop())

	err := n.Invalidate(context.Background(), linkedScope())

	assert.ErrorContains(t, err, "connection refused")
}

type fakeConnections struct {
	byUser  map[string][]string
	deleted []string
}

func (f *fakeConnections) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	pk := in.ExpressionAttributeValues[":userpk"].(*types.AttributeValueMemberS).Value
	out := &dynamodb.QueryOutput{}
	for _, id := range f.byUser[pk] {
		out.Items = append(out.Items, map[string]types.AttributeValue{
			"ConnectionID": &types.AttributeValueMemberS{Value: id},
		})
	}
	return out, nil
}

func (f *fakeConnections) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deleted = append(f.deleted, in.Key["PK"].(*types.AttributeValueMemberS).Value)
	return &dynamodb.DeleteItemOutput{}, nil
}

type fakeGateway struct {
	gone map[string]bool
	sent map[string][]byte
}

func (f *fakeGateway) PostToConnection(ctx context.Context, in *apigatewaymanagementapi.PostToConnectionInput, _ ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	id := aws.ToString(in.ConnectionId)
	if f.gone[id] {
		return nil, &apigwTypes.GoneException{}
	}
	f.sent[id] = in.Data
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func TestWebSocketNotifier(t *testing.T) {
	conns := &fakeConnections{byUser: map[string][]string{"USER#7": {"c1", "c2"}}}
	gw := &fakeGateway{gone: map[string]bool{"c2": true}, sent: map[string][]byte{}}
	n := NewWebSocketNotifier(conns, gw, "connections", "user-index", zap.NewNop())

	require.NoError(t, n.Invalidate(context.Background(), linkedScope()))

	require.Contains(t, gw.sent, "c1")
	var msg WebSocketMessage
	require.NoError(t, json.Unmarshal(gw.sent["c1"], &msg))
	assert.Equal(t, MessageTypeInvalidated, msg.Type)
	assert.Equal(t, events.TypeWordsLinked, msg.Data["reason"])
	assert.Equal(t, []string{"CONNECTION#c2"}, conns.deleted)
}

func TestWebSocketNotifier_NoUsers(t *testing.T) {
	n := NewWebSocketNotifier(&fakeConnections{}, &fakeGateway{}, "connections", "user-index", zap.NewNop())
	assert.NoError(t, n.Invalidate(context.Background(), ports.InvalidationScope{}))
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Invalidate(context.Background(), linkedScope()))
}
