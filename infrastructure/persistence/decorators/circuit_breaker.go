// Package decorators wraps ports.RelationStore with cross-cutting behaviour:
// circuit breaking, tracing and metrics. Each decorator returns the inner
// store's results and errors unchanged apart from its own concern.
package decorators

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"lexivault/application/ports"
	"lexivault/domain/core/valueobjects"
	pkgerrors "lexivault/pkg/errors"
)

// CircuitBreakerConfig holds configuration for the store circuit breaker
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// CircuitBreakerRelationStore rejects calls while the backing store keeps failing.
type CircuitBreakerRelationStore struct {
	inner ports.RelationStore
	cb    *gobreaker.CircuitBreaker
	name  string
}

func NewCircuitBreakerRelationStore(inner ports.RelationStore, config CircuitBreakerConfig, logger *zap.Logger) *CircuitBreakerRelationStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isStoreSuccess,
	})
	return &CircuitBreakerRelationStore{inner: inner, cb: cb, name: config.Name}
}

// isStoreSuccess treats outcomes the caller caused as successes so they never
// trip the breaker.
func isStoreSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, ports.ErrWordMissing) ||
		errors.Is(err, context.Canceled)
}

// State reports the breaker state
func (s *CircuitBreakerRelationStore) State() gobreaker.State { return s.cb.State() }

func execute[T any](s *CircuitBreakerRelationStore, fn func() (T, error)) (T, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, pkgerrors.NewUnavailableError(s.name).WithCause(err)
	}
	v, _ := out.(T)
	return v, err
}

func (s *CircuitBreakerRelationStore) TryCreateEdge(ctx context.Context, pair valueobjects.WordPair) (ports.CreateResult, error) {
	return execute(s, func() (ports.CreateResult, error) { return s.inner.TryCreateEdge(ctx, pair) })
}

func (s *CircuitBreakerRelationStore) RemoveEdge(ctx context.Context, pair valueobjects.WordPair) (ports.RemoveResult, error) {
	return execute(s, func() (ports.RemoveResult, error) { return s.inner.RemoveEdge(ctx, pair) })
}

func (s *CircuitBreakerRelationStore) NeighborsOf(ctx context.Context, id valueobjects.WordID) ([]valueobjects.WordID, error) {
	return execute(s, func() ([]valueobjects.WordID, error) { return s.inner.NeighborsOf(ctx, id) })
}

func (s *CircuitBreakerRelationStore) RemoveAllEdgesTouching(ctx context.Context, id valueobjects.WordID) (int, error) {
	return execute(s, func() (int, error) { return s.inner.RemoveAllEdgesTouching(ctx, id) })
}

func (s *CircuitBreakerRelationStore) AllEdges(ctx context.Context, ids []valueobjects.WordID) ([]valueobjects.WordPair, error) {
	return execute(s, func() ([]valueobjects.WordPair, error) { return s.inner.AllEdges(ctx, ids) })
}
