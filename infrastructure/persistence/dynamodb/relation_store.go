// Package dynamodb stores word relations in a single DynamoDB table. Each
// canonical pair is one item keyed by its low endpoint, with GSI1 keyed by the
// high endpoint so either side can be queried.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lexivault/application/ports"
	"lexivault/domain/core/valueobjects"
)

const (
	entityRelation = "RELATION"
	wordKeyPrefix  = "WORD#"
	relKeyPrefix   = "REL#"

	// maxTransactItems is the TransactWriteItems limit.
	maxTransactItems = 100
	// edgeQueryConcurrency bounds parallel queries in AllEdges.
	edgeQueryConcurrency = 8
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// relationItem is the DynamoDB item for one canonical pair
type relationItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	LowID      int64  `dynamodbav:"LowID"`
	HighID     int64  `dynamodbav:"HighID"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// RelationStore implements ports.RelationStore on DynamoDB
type RelationStore struct {
	client    API
	tableName string
	indexName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewRelationStore creates a RelationStore. indexName is the GSI keyed by
// GSI1PK/GSI1SK.
func NewRelationStore(client API, tableName, indexName string, logger *zap.Logger) *RelationStore {
	if indexName == "" {
		indexName = "GSI1"
	}
	return &RelationStore{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
		now:       time.Now,
	}
}

func wordKey(id valueobjects.WordID) string { return wordKeyPrefix + strconv.FormatInt(int64(id), 10) }
func relKey(id valueobjects.WordID) string  { return relKeyPrefix + strconv.FormatInt(int64(id), 10) }

func pairKey(pair valueobjects.WordPair) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: wordKey(pair.Low)},
		"SK": &types.AttributeValueMemberS{Value: relKey(pair.High)},
	}
}

// TryCreateEdge writes the pair item with attribute_not_exists(PK). A failed
// condition means the pair already exists.
func (s *RelationStore) TryCreateEdge(ctx context.Context, pair valueobjects.WordPair) (ports.CreateResult, error) {
	item := relationItem{
		PK:         wordKey(pair.Low),
		SK:         relKey(pair.High),
		GSI1PK:     wordKey(pair.High),
		GSI1SK:     relKey(pair.Low),
		EntityType: entityRelation,
		LowID:      int64(pair.Low),
		HighID:     int64(pair.High),
		CreatedAt:  s.now().UTC().Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal relation: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ports.AlreadyExists, nil
		}
		return 0, classifyError("put relation", err)
	}
	return ports.Created, nil
}

func (s *RelationStore) RemoveEdge(ctx context.Context, pair valueobjects.WordPair) (ports.RemoveResult, error) {
	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.tableName),
		Key:          pairKey(pair),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return 0, classifyError("delete relation", err)
	}
	if len(out.Attributes) == 0 {
		return ports.NotFound, nil
	}
	return ports.Removed, nil
}

func (s *RelationStore) NeighborsOf(ctx context.Context, id valueobjects.WordID) ([]valueobjects.WordID, error) {
	pairs, err := s.pairsTouching(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]valueobjects.WordID, 0, len(pairs))
	for _, p := range pairs {
		if other, ok := p.Other(id); ok {
			out = append(out, other)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// RemoveAllEdgesTouching deletes the word's pairs with TransactWriteItems. Words
// with more than maxTransactItems relations are purged in several transactions.
func (s *RelationStore) RemoveAllEdgesTouching(ctx context.Context, id valueobjects.WordID) (int, error) {
	pairs, err := s.pairsTouching(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(pairs) > maxTransactItems {
		s.logger.Warn("Purging relations across multiple transactions",
			zap.Int64("wordID", int64(id)),
			zap.Int("relations", len(pairs)),
		)
	}

	removed := 0
	for chunk := range slices.Chunk(pairs, maxTransactItems) {
		n, err := s.deleteChunk(ctx, chunk)
		removed += n
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// deleteChunk deletes pairs in one transaction, each guarded by
// attribute_exists(PK). Pairs removed since they were read cancel the
// transaction; they are dropped and the rest retried, so the count only covers
// items this call deleted.
func (s *RelationStore) deleteChunk(ctx context.Context, chunk []valueobjects.WordPair) (int, error) {
	for len(chunk) > 0 {
		items := make([]types.TransactWriteItem, 0, len(chunk))
		for _, p := range chunk {
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName:           aws.String(s.tableName),
					Key:                 pairKey(p),
					ConditionExpression: aws.String("attribute_exists(PK)"),
				},
			})
		}
		_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
		if err == nil {
			return len(chunk), nil
		}

		var tce *types.TransactionCanceledException
		if !errors.As(err, &tce) {
			return 0, classifyError("delete relations", err)
		}
		kept := make([]valueobjects.WordPair, 0, len(chunk))
		for i, p := range chunk {
			if i < len(tce.CancellationReasons) && aws.ToString(tce.CancellationReasons[i].Code) == "ConditionalCheckFailed" {
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == len(chunk) {
			return 0, classifyError("delete relations", err)
		}
		s.logger.Debug("Relations already removed during purge",
			zap.Int("gone", len(chunk)-len(kept)),
		)
		chunk = kept
	}
	return 0, nil
}

func (s *RelationStore) AllEdges(ctx context.Context, ids []valueobjects.WordID) ([]valueobjects.WordPair, error) {
	var (
		mu   sync.Mutex
		seen = make(map[valueobjects.WordPair]struct{})
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(edgeQueryConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			pairs, err := s.pairsTouching(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			for _, p := range pairs {
				seen[p] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]valueobjects.WordPair, 0, len(seen))
	for p := range seen {
		out = append(out, p)
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

// pairsTouching queries the base table (id as low endpoint) and GSI1 (id as
// high endpoint) concurrently.
func (s *RelationStore) pairsTouching(ctx context.Context, id valueobjects.WordID) ([]valueobjects.WordPair, error) {
	var asLow, asHigh []valueobjects.WordPair

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		asLow, err = s.query(gctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: wordKey(id)},
				":sk": &types.AttributeValueMemberS{Value: relKeyPrefix},
			},
		})
		return err
	})
	g.Go(func() error {
		var err error
		asHigh, err = s.query(gctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			IndexName:              aws.String(s.indexName),
			KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :sk)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: wordKey(id)},
				":sk": &types.AttributeValueMemberS{Value: relKeyPrefix},
			},
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append(asLow, asHigh...), nil
}

func (s *RelationStore) query(ctx context.Context, input *dynamodb.QueryInput) ([]valueobjects.WordPair, error) {
	var out []valueobjects.WordPair
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyError("query relations", err)
		}
		var items []relationItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal relations: %w", err)
		}
		for _, it := range items {
			if it.EntityType != entityRelation {
				continue
			}
			pair, err := valueobjects.NewWordPair(valueobjects.WordID(it.LowID), valueobjects.WordID(it.HighID))
			if err != nil {
				s.logger.Warn("Skipping malformed relation item",
					zap.String("pk", it.PK),
					zap.String("sk", it.SK),
					zap.Error(err),
				)
				continue
			}
			out = append(out, pair)
		}
	}
	return out, nil
}
