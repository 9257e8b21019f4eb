package di

import (
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lexivault/application/commands/bus"
	"lexivault/application/ports"
	querybus "lexivault/application/queries/bus"
	"lexivault/application/services"
	"lexivault/infrastructure/cache"
	"lexivault/infrastructure/config"
	"lexivault/infrastructure/notify"
	"lexivault/interfaces/http/rest"
	"lexivault/pkg/auth"
	"lexivault/pkg/observability"
)

// Container holds all application dependencies. DB, Redis, RedisNotifier and
// Tracing are nil when their feature is not configured.
type Container struct {
	Config        *config.Config
	Logging       *Logging
	Logger        *zap.Logger
	DB            *gorm.DB
	Words         ports.WordStore
	Vocabulary    ports.VocabularyWriter
	Relations     ports.RelationStore
	Cache         *cache.InMemoryCache
	Redis         *goredis.Client
	RedisNotifier *notify.RedisNotifier
	Notifier      *notify.Fanout
	Graph         *services.GraphService
	CommandBus    *bus.CommandBus
	QueryBus      *querybus.QueryBus
	Metrics       *observability.Collector
	Tracing       *observability.TracerProvider
	Tokens        *auth.JWTValidator
	Ready         rest.ReadinessCheck
}
