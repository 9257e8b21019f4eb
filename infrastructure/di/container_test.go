package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexivault/application/commands"
	"lexivault/application/queries"
	"lexivault/infrastructure/config"
	"lexivault/pkg/testutil"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	t.Setenv("AWS_REGION", "us-west-2")
	t.Setenv("LOG_LEVEL", "error")
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestInitializeContainer(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"memory", map[string]string{"WORD_STORE": "memory", "RELATION_STORE": "memory"}},
		{"sqlite", map[string]string{
			"WORD_STORE":             "sql",
			"RELATION_STORE":         "sql",
			"DATABASE_DRIVER":        "sqlite",
			"DATABASE_URL":           "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on",
			"ENABLE_CIRCUIT_BREAKER": "true",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := loadConfig(t, tt.env)

			c, cleanup, err := InitializeContainer(ctx, cfg)
			require.NoError(t, err)
			t.Cleanup(cleanup)

			require.NoError(t, testutil.Scenario().Load(ctx, c.Vocabulary))
			require.NoError(t, c.CommandBus.Send(ctx, commands.LinkWordsCommand{UserID: 7, WordA: 1, WordB: 2}))

			out, err := c.QueryBus.Ask(ctx, queries.RelatedWordsQuery{UserID: 7, WordID: 1})
			require.NoError(t, err)
			assert.Len(t, out.(*queries.RelatedWordsResult).Related, 1)

			// The cache is cleared by the link notifier, so a second link shows up.
			require.NoError(t, c.CommandBus.Send(ctx, commands.LinkWordsCommand{UserID: 7, WordA: 1, WordB: 3}))
			out, err = c.QueryBus.Ask(ctx, queries.RelatedWordsQuery{UserID: 7, WordID: 1})
			require.NoError(t, err)
			assert.Len(t, out.(*queries.RelatedWordsResult).Related, 2)

			require.NoError(t, c.Ready(ctx))
		})
	}
}

func TestContainer_NewRouter(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"ENABLE_METRICS": "true"})
	c, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	handler := c.NewRouter().Setup()
	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestProvideRelationStore_RejectsUnknownBackend(t *testing.T) {
	cfg := loadConfig(t, nil)
	cfg.RelationStore = "cassandra"
	_, err := ProvideRelationStore(cfg, &Vocabulary{}, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}
