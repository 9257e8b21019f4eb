// Package di wires the graph engine from configuration.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lexivault/application/commands/bus"
	cmdhandlers "lexivault/application/commands/handlers"
	"lexivault/application/ports"
	"lexivault/application/queries"
	querybus "lexivault/application/queries/bus"
	"lexivault/application/services"
	"lexivault/domain/core/valueobjects"
	"lexivault/infrastructure/cache"
	"lexivault/infrastructure/config"
	"lexivault/infrastructure/messaging/eventbridge"
	"lexivault/infrastructure/notify"
	"lexivault/infrastructure/persistence/decorators"
	dynamostore "lexivault/infrastructure/persistence/dynamodb"
	"lexivault/infrastructure/persistence/memory"
	sqlstore "lexivault/infrastructure/persistence/sql"
	"lexivault/interfaces/http/rest"
	"lexivault/pkg/auth"
	"lexivault/pkg/observability"
)

// DevJWTSecret signs and validates tokens when JWT_SECRET is unset outside production.
const DevJWTSecret = "development-secret-change-in-production"

// Logging carries the root logger and the level the config watcher adjusts.
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// Vocabulary is the configured word store seen through its read and write ports.
// Memory is set only for the in-memory backend, which the memory relation store
// uses to check word existence.
type Vocabulary struct {
	Store  ports.WordStore
	Writer ports.VocabularyWriter
	Memory *memory.WordStore
}

// ProvideLogging creates the root logger
func ProvideLogging(cfg *config.Config) (*Logging, func(), error) {
	logger, level, err := config.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = logger.Sync() }
	return &Logging{Logger: logger, Level: level}, cleanup, nil
}

// ProvideLogger exposes the root logger
func ProvideLogger(l *Logging) *zap.Logger {
	return l.Logger
}

// ProvideAWSConfig creates AWS configuration. With X-Ray enabled every client
// built from it is instrumented.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.EnableXRay {
		observability.InstrumentAWS(&awsCfg)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideDatabase opens the SQL database when either store is sql. It returns a
// nil handle otherwise.
func ProvideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	if !cfg.UsesSQL() {
		return nil, func() {}, nil
	}
	db, err := sqlstore.Open(sqlstore.Options{
		Driver:          cfg.DatabaseDriver,
		DSN:             cfg.DatabaseDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		SlowThreshold:   200 * time.Millisecond,
		AutoMigrate:     cfg.DBAutoMigrate,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

// ProvideVocabulary selects the word store backend
func ProvideVocabulary(cfg *config.Config, db *gorm.DB) (*Vocabulary, error) {
	switch cfg.WordStore {
	case config.StoreSQL:
		s := sqlstore.NewWordStore(db)
		return &Vocabulary{Store: s, Writer: s}, nil
	case config.StoreMemory:
		s := memory.NewWordStore()
		return &Vocabulary{Store: s, Writer: s, Memory: s}, nil
	default:
		return nil, fmt.Errorf("unsupported word store %q", cfg.WordStore)
	}
}

// ProvideWordStore exposes the read side of the vocabulary
func ProvideWordStore(v *Vocabulary) ports.WordStore {
	return v.Store
}

// ProvideVocabularyWriter exposes the write side of the vocabulary
func ProvideVocabularyWriter(v *Vocabulary) ports.VocabularyWriter {
	return v.Writer
}

// ProvideTracing installs the OTLP tracer provider when tracing is enabled. It
// returns nil otherwise.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "lexivault",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRate:  cfg.TraceSampleRate,
		Insecure:    cfg.IsDevelopment(),
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideCollector creates the Prometheus collector. It always exists so the cache
// and store decorators have somewhere to report; ENABLE_METRICS controls /metrics.
func ProvideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.MetricsNamespace)
}

// ProvideRecorder fans store metrics out to Prometheus and, in Lambda, CloudWatch.
func ProvideRecorder(cfg *config.Config, collector *observability.Collector, cw *awscloudwatch.Client, logger *zap.Logger) observability.Recorder {
	recorders := observability.Recorders{collector}
	if cfg.IsLambda {
		recorders = append(recorders, observability.NewCloudWatchEmitter(cw, cfg.MetricsNamespace, logger))
	}
	return recorders
}

// ProvideRelationStore selects the relation store backend and wraps it as
// Metrics(Tracing(CircuitBreaker(store))). Disabled layers are skipped.
func ProvideRelationStore(
	cfg *config.Config,
	vocab *Vocabulary,
	db *gorm.DB,
	dynamo *awsdynamodb.Client,
	tp *observability.TracerProvider,
	recorder observability.Recorder,
	logger *zap.Logger,
) (ports.RelationStore, error) {
	var store ports.RelationStore
	switch cfg.RelationStore {
	case config.StoreMemory:
		store = memory.NewRelationStore(vocab.Memory)
	case config.StoreSQL:
		store = sqlstore.NewRelationStore(db)
	case config.StoreDynamoDB:
		store = dynamostore.NewRelationStore(dynamo, cfg.DynamoDBTable, cfg.IndexName, logger)
	default:
		return nil, fmt.Errorf("unsupported relation store %q", cfg.RelationStore)
	}

	if cfg.EnableCircuitBreaker {
		cbConfig := decorators.DefaultCircuitBreakerConfig("relation-store")
		cbConfig.FailureThreshold = cfg.CBFailureThreshold
		cbConfig.MinRequests = uint32(cfg.CBMinRequests)
		cbConfig.Timeout = cfg.CBTimeout
		store = decorators.NewCircuitBreakerRelationStore(store, cbConfig, logger)
	}
	if tp != nil {
		store = decorators.NewTracingRelationStore(store, tp.Tracer(), cfg.RelationStore)
	}
	store = decorators.NewMetricsRelationStore(store, recorder)

	logger.Info("Relation store configured",
		zap.String("backend", cfg.RelationStore),
		zap.Bool("circuitBreaker", cfg.EnableCircuitBreaker),
		zap.Bool("tracing", tp != nil),
	)
	return store, nil
}

// ProvideCache creates the query cache
func ProvideCache() (*cache.InMemoryCache, func()) {
	c := cache.NewInMemoryCache(time.Minute)
	return c, c.Close
}

// ProvideRedisClient connects to Redis when REDIS_ADDR is set. It returns nil otherwise.
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*goredis.Client, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}
	rdb, err := notify.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return rdb, func() { _ = rdb.Close() }, nil
}

// ProvideRedisNotifier publishes invalidations for other replicas. It returns nil
// without a Redis client.
func ProvideRedisNotifier(cfg *config.Config, rdb *goredis.Client, logger *zap.Logger) *notify.RedisNotifier {
	if rdb == nil {
		return nil
	}
	return notify.NewRedisNotifier(rdb, cfg.RedisChannel, uuid.NewString(), logger)
}

// ProvideNotifier assembles the change notifier fan-out. The local cache is always
// first so this replica never serves stale reads after its own writes.
func ProvideNotifier(
	cfg *config.Config,
	awsCfg aws.Config,
	queryCache *cache.InMemoryCache,
	redisNotifier *notify.RedisNotifier,
	eb *awseventbridge.Client,
	dynamo *awsdynamodb.Client,
	logger *zap.Logger,
) *notify.Fanout {
	fanout := notify.NewFanout(notify.Named{
		Name:     "cache",
		Notifier: notify.NewCacheInvalidator(queryCache, logger),
	})
	if redisNotifier != nil {
		fanout.Add("redis", redisNotifier)
	}
	if cfg.EnableEvents {
		fanout.Add("eventbridge", notify.NewEventNotifier(eventbridge.NewPublisher(eb, cfg.EventBusName, logger)))
	}
	if cfg.WebSocketEndpoint != "" {
		gateway := notify.NewAPIGatewayClient(awsCfg, cfg.WebSocketEndpoint)
		fanout.Add("websocket", notify.NewWebSocketNotifier(dynamo, gateway, cfg.ConnectionsTable, cfg.ConnectionsUserIndex, logger))
	}
	logger.Info("Change notifiers configured", zap.Int("count", fanout.Len()))
	return fanout
}

// ProvideGraphService creates the graph service
func ProvideGraphService(words ports.WordStore, relations ports.RelationStore, notifier *notify.Fanout, logger *zap.Logger) *services.GraphService {
	return services.NewGraphService(words, relations, services.NewAccessGuard(words, logger), notifier, logger)
}

// ProvideCommandBus creates the command bus with all handlers registered
func ProvideCommandBus(graph *services.GraphService, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	if err := cmdhandlers.Register(commandBus, graph); err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates the query bus with all handlers registered
func ProvideQueryBus(
	cfg *config.Config,
	graph *services.GraphService,
	queryCache *cache.InMemoryCache,
	collector *observability.Collector,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	var middlewares []querybus.Middleware
	if cfg.EnableCaching {
		middlewares = append(middlewares, querybus.CachingMiddleware(queryCache, int(cfg.CacheTTL.Seconds()), collector, logger))
	}
	queryBus := querybus.NewQueryBus(middlewares...)

	defaultScope := valueobjects.ScopeVault
	if cfg.UseAllVaultsForLinks {
		defaultScope = valueobjects.ScopeAllVaults
	}
	if err := queries.Register(queryBus, graph, defaultScope); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return queryBus, nil
}

// ProvideJWTValidator creates the session token validator. Outside production a
// fixed development secret stands in for a missing JWT_SECRET.
func ProvideJWTValidator(cfg *config.Config, logger *zap.Logger) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using development secret")
		secret = DevJWTSecret
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		Leeway:    30 * time.Second,
	})
}

// ProvideReadiness pings the database when there is one
func ProvideReadiness(db *gorm.DB) rest.ReadinessCheck {
	return func(ctx context.Context) error {
		if db == nil {
			return nil
		}
		return sqlstore.Ping(ctx, db)
	}
}

// RouterOptions derives the HTTP router options from configuration
func RouterOptions(cfg *config.Config) rest.Options {
	return rest.Options{
		EnableCORS:             cfg.EnableCORS,
		AllowedOrigins:         cfg.CORSAllowedOrigins,
		EnforceUnlinkOwnership: cfg.EnforceUnlinkOwnership,
		Debug:                  cfg.IsDevelopment(),
	}
}

// NewRouter builds the HTTP router from a container
func (c *Container) NewRouter() *rest.Router {
	var metrics *observability.Collector
	if c.Config.EnableMetrics {
		metrics = c.Metrics
	}
	return rest.NewRouter(c.CommandBus, c.QueryBus, c.Tokens, metrics, c.Ready, RouterOptions(c.Config), c.Logger)
}
