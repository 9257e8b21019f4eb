package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StoreMemory   = "memory"
	StoreSQL      = "sql"
	StoreDynamoDB = "dynamodb"
)

// Config holds all application configuration. Values come from, in rising
// priority: defaults, the YAML file named by CONFIG_FILE, environment variables.
type Config struct {
	// Server configuration
	ServerAddress   string        `yaml:"server_address"`
	Environment     string        `yaml:"environment"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Storage
	WordStore     string `yaml:"word_store"`
	RelationStore string `yaml:"relation_store"`

	// SQL configuration
	DatabaseDriver    string        `yaml:"database_driver"`
	DatabaseDSN       string        `yaml:"database_dsn"`
	DBMaxOpenConns    int           `yaml:"db_max_open_conns"`
	DBMaxIdleConns    int           `yaml:"db_max_idle_conns"`
	DBConnMaxLifetime time.Duration `yaml:"db_conn_max_lifetime"`
	DBAutoMigrate     bool          `yaml:"db_auto_migrate"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	IndexName     string `yaml:"index_name"` // GSI1 - relations by high endpoint
	EventBusName  string `yaml:"event_bus_name"`

	// Redis invalidation fan-out
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisChannel  string `yaml:"redis_channel"`

	// WebSocket configuration
	WebSocketEndpoint    string `yaml:"websocket_endpoint"`
	ConnectionsTable     string `yaml:"connections_table"`
	ConnectionsUserIndex string `yaml:"connections_user_index"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	// Feature flags
	EnableMetrics      bool     `yaml:"enable_metrics"`
	EnableTracing      bool     `yaml:"enable_tracing"`
	EnableXRay         bool     `yaml:"enable_xray"`
	EnableCaching      bool     `yaml:"enable_caching"`
	EnableEvents       bool     `yaml:"enable_events"`
	EnableCORS         bool     `yaml:"enable_cors"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// Graph behaviour
	EnforceUnlinkOwnership bool `yaml:"enforce_unlink_ownership"`
	UseAllVaultsForLinks   bool `yaml:"use_all_vaults_for_links"`

	CacheTTL time.Duration `yaml:"cache_ttl"`

	// Circuit breaker around the relation store
	EnableCircuitBreaker bool          `yaml:"enable_circuit_breaker"`
	CBFailureThreshold   float64       `yaml:"cb_failure_threshold"`
	CBMinRequests        int           `yaml:"cb_min_requests"`
	CBTimeout            time.Duration `yaml:"cb_timeout"`

	// Observability
	OTLPEndpoint     string  `yaml:"otlp_endpoint"`
	TraceSampleRate  float64 `yaml:"trace_sample_rate"`
	MetricsNamespace string  `yaml:"metrics_namespace"`

	// Lambda configuration
	IsLambda bool `yaml:"is_lambda"`

	// ConfigFile is the YAML overlay that was applied, if any
	ConfigFile string `yaml:"-"`
}

func defaults() *Config {
	return &Config{
		ServerAddress:        ":8080",
		Environment:          "development",
		ShutdownTimeout:      15 * time.Second,
		WordStore:            StoreMemory,
		RelationStore:        StoreMemory,
		DatabaseDriver:       "postgres",
		DBMaxOpenConns:       25,
		DBMaxIdleConns:       5,
		DBConnMaxLifetime:    30 * time.Minute,
		DBAutoMigrate:        true,
		AWSRegion:            "us-west-2",
		DynamoDBTable:        "lexivault-relations",
		IndexName:            "GSI1",
		EventBusName:         "lexivault-events",
		RedisChannel:         "lexivault:invalidations",
		ConnectionsTable:     "lexivault-connections",
		ConnectionsUserIndex: "GSI1",
		LogLevel:             "info",
		JWTIssuer:            "lexivault",
		EnableCaching:        true,
		EnableCORS:           true,
		CORSAllowedOrigins:   []string{"*"},
		CacheTTL:             5 * time.Minute,
		CBFailureThreshold:   0.8,
		CBMinRequests:        5,
		CBTimeout:            60 * time.Second,
		OTLPEndpoint:         "localhost:4317",
		TraceSampleRate:      1,
		MetricsNamespace:     "lexivault",
	}
}

// LoadConfig loads configuration from .env, the optional YAML file and the
// environment, then validates it.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays the YAML file at path.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.WordStore = strings.ToLower(getEnv("WORD_STORE", c.WordStore))
	c.RelationStore = strings.ToLower(getEnv("RELATION_STORE", c.RelationStore))

	c.DatabaseDriver = getEnv("DATABASE_DRIVER", c.DatabaseDriver)
	c.DatabaseDSN = getEnv("DATABASE_URL", c.DatabaseDSN)
	c.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.DBMaxOpenConns)
	c.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.DBMaxIdleConns)
	c.DBConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", c.DBConnMaxLifetime)
	c.DBAutoMigrate = getEnvBool("DB_AUTO_MIGRATE", c.DBAutoMigrate)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.IndexName = getEnv("INDEX_NAME", c.IndexName)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.RedisChannel = getEnv("REDIS_CHANNEL", c.RedisChannel)

	c.WebSocketEndpoint = getEnv("WEBSOCKET_ENDPOINT", c.WebSocketEndpoint)
	c.ConnectionsTable = getEnv("CONNECTIONS_TABLE", c.ConnectionsTable)
	c.ConnectionsUserIndex = getEnv("CONNECTIONS_USER_INDEX", c.ConnectionsUserIndex)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableXRay = getEnvBool("ENABLE_XRAY", c.EnableXRay)
	c.EnableCaching = getEnvBool("ENABLE_CACHING", c.EnableCaching)
	c.EnableEvents = getEnvBool("ENABLE_EVENTS", c.EnableEvents)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CORSAllowedOrigins = getEnvSlice("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)

	c.EnforceUnlinkOwnership = getEnvBool("ENFORCE_UNLINK_OWNERSHIP", c.EnforceUnlinkOwnership)
	c.UseAllVaultsForLinks = getEnvBool("USE_ALL_VAULTS_FOR_LINKS", c.UseAllVaultsForLinks)
	c.CacheTTL = getEnvDuration("CACHE_TTL", c.CacheTTL)

	c.EnableCircuitBreaker = getEnvBool("ENABLE_CIRCUIT_BREAKER", c.EnableCircuitBreaker)
	c.CBFailureThreshold = getEnvFloat("CB_FAILURE_THRESHOLD", c.CBFailureThreshold)
	c.CBMinRequests = getEnvInt("CB_MIN_REQUESTS", c.CBMinRequests)
	c.CBTimeout = getEnvDuration("CB_TIMEOUT", c.CBTimeout)

	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.TraceSampleRate = getEnvFloat("TRACE_SAMPLE_RATE", c.TraceSampleRate)
	c.MetricsNamespace = getEnv("METRICS_NAMESPACE", c.MetricsNamespace)

	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if !slices.Contains([]string{StoreMemory, StoreSQL}, c.WordStore) {
		return fmt.Errorf("WORD_STORE must be one of memory, sql (got %q)", c.WordStore)
	}
	if !slices.Contains([]string{StoreMemory, StoreSQL, StoreDynamoDB}, c.RelationStore) {
		return fmt.Errorf("RELATION_STORE must be one of memory, sql, dynamodb (got %q)", c.RelationStore)
	}
	if c.RelationStore == StoreSQL && c.WordStore != StoreSQL {
		return fmt.Errorf("RELATION_STORE=sql requires WORD_STORE=sql")
	}
	if c.UsesSQL() && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_URL is required for the sql store")
	}
	if c.RelationStore == StoreDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb store")
	}
	if c.CBFailureThreshold <= 0 || c.CBFailureThreshold > 1 {
		return fmt.Errorf("CB_FAILURE_THRESHOLD must be in (0, 1]")
	}
	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when ENABLE_EVENTS is set")
	}
	if c.Environment == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

// UsesSQL reports whether either store needs the database.
func (c *Config) UsesSQL() bool {
	return c.WordStore == StoreSQL || c.RelationStore == StoreSQL
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
