package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lexivault/application/commands/bus"
	cmdhandlers "lexivault/application/commands/handlers"
	"lexivault/application/queries"
	querybus "lexivault/application/queries/bus"
	"lexivault/application/services"
	"lexivault/domain/core/valueobjects"
	"lexivault/infrastructure/notify"
	"lexivault/infrastructure/persistence/memory"
	"lexivault/pkg/auth"
	"lexivault/pkg/observability"
	"lexivault/pkg/testutil"
)

var jwtConfig = auth.JWTConfig{SecretKey: "router-test-secret", Issuer: "lexivault"}

type apiFixture struct {
	handler http.Handler
	metrics *observability.Collector
}

func newAPI(t *testing.T, ready ReadinessCheck, opts Options) *apiFixture {
	t.Helper()
	logger := zap.NewNop()
	words := memory.NewWordStore()
	require.NoError(t, testutil.Scenario().Load(context.Background(), words))
	relations := memory.NewRelationStore(words)
	graph := services.NewGraphService(words, relations, services.NewAccessGuard(words, logger), notify.Noop{}, logger)

	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	require.NoError(t, cmdhandlers.Register(commandBus, graph))
	queryBus := querybus.NewQueryBus()
	require.NoError(t, queries.Register(queryBus, graph, valueobjects.ScopeVault))

	validator, err := auth.NewJWTValidator(jwtConfig)
	require.NoError(t, err)
	metrics := observability.NewCollector("lexivault")

	router := NewRouter(commandBus, queryBus, validator, metrics, ready, opts, logger)
	return &apiFixture{handler: router.Setup(), metrics: metrics}
}

func (f *apiFixture) do(t *testing.T, user valueobjects.UserID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != 0 {
		token, err := auth.GenerateToken(jwtConfig, user, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_HealthAndReady(t *testing.T) {
	api := newAPI(t, nil, Options{})
	assert.Equal(t, http.StatusOK, api.do(t, 0, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, api.do(t, 0, http.MethodGet, "/ready", "").Code)

	down := newAPI(t, func(context.Context) error { return errors.New("db down") }, Options{})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, 0, http.MethodGet, "/ready", "").Code)
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	api := newAPI(t, nil, Options{})

	rec := api.do(t, 0, http.MethodGet, "/api/v1/relations", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec)["type"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/relations", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	bad := httptest.NewRecorder()
	api.handler.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
}

func TestRouter_LinkFlow(t *testing.T) {
	api := newAPI(t, nil, Options{})

	rec := api.do(t, 7, http.MethodPost, "/api/v1/relations", `{"word_a": 2, "word_b": 1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["low"])
	assert.EqualValues(t, 2, body["high"])

	rec = api.do(t, 7, http.MethodPost, "/api/v1/relations", `{"word_a": 1, "word_b": 2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_LINKED", decode(t, rec)["code"])

	rec = api.do(t, 7, http.MethodPost, "/api/v1/relations", `{"word_a": 1, "word_b": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, 8, http.MethodPost, "/api/v1/relations", `{"word_a": 5, "word_b": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, 7, http.MethodPost, "/api/v1/relations", `{"word_a": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, 7, http.MethodGet, "/api/v1/words/1/related", "")
	require.Equal(t, http.StatusOK, rec.Code)
	related := decode(t, rec)["related"].([]interface{})
	require.Len(t, related, 1)
	assert.Equal(t, "hi", related[0].(map[string]interface{})["name"])

	rec = api.do(t, 8, http.MethodGet, "/api/v1/words/1/related", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, 7, http.MethodGet, "/api/v1/relations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = api.do(t, 7, http.MethodDelete, "/api/v1/relations/2/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, 7, http.MethodGet, "/api/v1/relations", "")
	assert.EqualValues(t, 0, decode(t, rec)["count"])
}

func TestRouter_Linkable(t *testing.T) {
	api := newAPI(t, nil, Options{})

	rec := api.do(t, 7, http.MethodGet, "/api/v1/words/1/linkable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "vault", body["scope"])
	assert.Len(t, body["candidates"], 2)

	rec = api.do(t, 7, http.MethodGet, "/api/v1/words/1/linkable?scope=all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["candidates"], 3)

	rec = api.do(t, 7, http.MethodGet, "/api/v1/words/1/linkable?scope=galaxy", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, 7, http.MethodGet, "/api/v1/words/abc/linkable", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_UnlinkOwnership(t *testing.T) {
	api := newAPI(t, nil, Options{EnforceUnlinkOwnership: true})
	require.Equal(t, http.StatusCreated, api.do(t, 7, http.MethodPost, "/api/v1/relations", `{"word_a": 1, "word_b": 3}`).Code)

	assert.Equal(t, http.StatusNotFound, api.do(t, 8, http.MethodDelete, "/api/v1/relations/1/3", "").Code)
	assert.Equal(t, http.StatusNoContent, api.do(t, 7, http.MethodDelete, "/api/v1/relations/1/3", "").Code)
}

func TestRouter_PurgeRelations(t *testing.T) {
	api := newAPI(t, nil, Options{})
	require.Equal(t, http.StatusCreated, api.do(t, 7, http.MethodPost, "/api/v1/relations", `{"word_a": 1, "word_b": 2}`).Code)
	require.Equal(t, http.StatusCreated, api.do(t, 7, http.MethodPost, "/api/v1/relations", `{"word_a": 1, "word_b": 4}`).Code)

	assert.Equal(t, http.StatusNotFound, api.do(t, 8, http.MethodDelete, "/api/v1/words/1/relations", "").Code)

	rec := api.do(t, 7, http.MethodDelete, "/api/v1/words/1/relations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["removed"])
}

func TestRouter_Metrics(t *testing.T) {
	api := newAPI(t, nil, Options{})
	api.do(t, 0, http.MethodGet, "/health", "")

	rec := api.do(t, 0, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lexivault_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRouter_CORS(t *testing.T) {
	api := newAPI(t, nil, Options{EnableCORS: true, AllowedOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/relations", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
