package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"lexivault/application/ports"
	"lexivault/domain/core/valueobjects"
)

// MessageTypeInvalidated is the "type" of every push sent to browsers.
const MessageTypeInvalidated = "relations.invalidated"

// ConnectionsAPI is the DynamoDB subset used to track WebSocket connections
type ConnectionsAPI interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// PostAPI is the API Gateway Management subset used to push messages
type PostAPI interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// WebSocketMessage is the payload pushed to connected clients
type WebSocketMessage struct {
	Type      string                 `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// WebSocketNotifier tells the owners' open browser sessions to refresh their
// relation views.
type WebSocketNotifier struct {
	connections ConnectionsAPI
	gateway     PostAPI
	table       string
	userIndex   string
	logger      *zap.Logger
}

// NewAPIGatewayClient builds a management client for a WebSocket API endpoint
// such as "abc123.execute-api.eu-west-1.amazonaws.com/prod".
func NewAPIGatewayClient(cfg aws.Config, endpoint string) *apigatewaymanagementapi.Client {
	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", endpoint))
	})
}

func NewWebSocketNotifier(connections ConnectionsAPI, gateway PostAPI, table, userIndex string, logger *zap.Logger) *WebSocketNotifier {
	return &WebSocketNotifier{
		connections: connections,
		gateway:     gateway,
		table:       table,
		userIndex:   userIndex,
		logger:      logger.With(zap.String("component", "WebSocketNotifier")),
	}
}

func (n *WebSocketNotifier) Invalidate(ctx context.Context, scope ports.InvalidationScope) error {
	if len(scope.UserIDs) == 0 {
		return nil
	}

	raw, err := json.Marshal(WebSocketMessage{
		Type:      MessageTypeInvalidated,
		Timestamp: scope.OccurredAt.Unix(),
		Data: map[string]interface{}{
			"reason":    scope.Reason,
			"word_ids":  scope.WordIDs,
			"vault_ids": scope.VaultIDs,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal websocket message: %w", err)
	}

	var errs []error
	for _, user := range scope.UserIDs {
		ids, err := n.connectionsFor(ctx, user)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, id := range ids {
			if err := n.send(ctx, id, raw); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (n *WebSocketNotifier) connectionsFor(ctx context.Context, user valueobjects.UserID) ([]string, error) {
	out, err := n.connections.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(n.table),
		IndexName:              aws.String(n.userIndex),
		KeyConditionExpression: aws.String("GSI1PK = :userpk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userpk": &types.AttributeValueMemberS{Value: "USER#" + user.String()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	ids := make([]string, 0, len(out.Items))
	for _, item := range out.Items {
		if connID, ok := item["ConnectionID"].(*types.AttributeValueMemberS); ok {
			ids = append(ids, connID.Value)
		}
	}
	return ids, nil
}

func (n *WebSocketNotifier) send(ctx context.Context, connectionID string, message []byte) error {
	_, err := n.gateway.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         message,
	})
	if err == nil {
		return nil
	}

	var gone *apigwTypes.GoneException
	if errors.As(err, &gone) {
		n.removeStale(ctx, connectionID)
		return nil
	}
	return fmt.Errorf("post to connection %s: %w", connectionID, err)
}

func (n *WebSocketNotifier) removeStale(ctx context.Context, connectionID string) {
	_, err := n.connections.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(n.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "CONNECTION#" + connectionID},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		n.logger.Warn("Failed to remove stale connection",
			zap.String("connectionID", connectionID),
			zap.Error(err),
		)
		return
	}
	n.logger.Debug("Removed stale connection", zap.String("connectionID", connectionID))
}
