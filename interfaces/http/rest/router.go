// Package rest exposes the relation graph over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"lexivault/application/commands/bus"
	querybus "lexivault/application/queries/bus"
	"lexivault/interfaces/http/rest/handlers"
	"lexivault/interfaces/http/rest/middleware"
	pkgerrors "lexivault/pkg/errors"
	"lexivault/pkg/observability"
)

// ReadinessCheck reports whether backing stores can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Options tune the router from configuration.
type Options struct {
	EnableCORS             bool
	AllowedOrigins         []string
	EnforceUnlinkOwnership bool
	Debug                  bool
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	tokens     middleware.TokenResolver
	metrics    *observability.Collector
	ready      ReadinessCheck
	opts       Options
	logger     *zap.Logger
}

// NewRouter creates a new router instance. metrics and ready may be nil.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	tokens middleware.TokenResolver,
	metrics *observability.Collector,
	ready ReadinessCheck,
	opts Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		tokens:     tokens,
		metrics:    metrics,
		ready:      ready,
		opts:       opts,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	errs := pkgerrors.NewErrorHandler(rt.logger, rt.opts.Debug)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestContext)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}
	router.Use(errs.Middleware)

	if rt.opts.EnableCORS {
		origins := rt.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.tokens, errs, rt.logger))

		r.Route("/relations", func(r chi.Router) {
			relationHandler := handlers.NewRelationHandler(rt.commandBus, rt.queryBus, errs, rt.opts.EnforceUnlinkOwnership, rt.logger)
			r.Post("/", relationHandler.Link)
			r.Get("/", relationHandler.List)
			r.Delete("/{a}/{b}", relationHandler.Unlink)
		})

		r.Route("/words/{wordID}", func(r chi.Router) {
			wordHandler := handlers.NewWordHandler(rt.commandBus, rt.queryBus, errs, rt.logger)
			r.Get("/related", wordHandler.Related)
			r.Get("/linkable", wordHandler.Linkable)
			r.Delete("/relations", wordHandler.PurgeRelations)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
