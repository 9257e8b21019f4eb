//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"lexivault/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogging,
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideDatabase,
	ProvideVocabulary,
	ProvideWordStore,
	ProvideVocabularyWriter,
	ProvideTracing,
	ProvideCollector,
	ProvideRecorder,
	ProvideRelationStore,
	ProvideCache,
	ProvideRedisClient,
	ProvideRedisNotifier,
	ProvideNotifier,
	ProvideGraphService,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideJWTValidator,
	ProvideReadiness,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned cleanup
// releases connections and flushes the logger.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
