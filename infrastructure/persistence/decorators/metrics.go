package decorators

import (
	"context"
	"time"

	"lexivault/application/ports"
	"lexivault/domain/core/valueobjects"
	"lexivault/pkg/observability"
)

// MetricsRelationStore records latency, outcome and relation churn for every call.
type MetricsRelationStore struct {
	inner    ports.RelationStore
	recorder observability.Recorder
	now      func() time.Time
}

func NewMetricsRelationStore(inner ports.RelationStore, recorder observability.Recorder) *MetricsRelationStore {
	return &MetricsRelationStore{inner: inner, recorder: recorder, now: time.Now}
}

func (s *MetricsRelationStore) observe(ctx context.Context, op string, start time.Time, err error) {
	s.recorder.ObserveStoreOperation(ctx, op, s.now().Sub(start), err)
}

func (s *MetricsRelationStore) TryCreateEdge(ctx context.Context, pair valueobjects.WordPair) (ports.CreateResult, error) {
	start := s.now()
	res, err := s.inner.TryCreateEdge(ctx, pair)
	s.observe(ctx, "try_create_edge", start, err)
	if err == nil && res == ports.Created {
		s.recorder.AddRelationChanges(ctx, observability.ChangeCreated, 1)
	}
	return res, err
}

func (s *MetricsRelationStore) RemoveEdge(ctx context.Context, pair valueobjects.WordPair) (ports.RemoveResult, error) {
	start := s.now()
	res, err := s.inner.RemoveEdge(ctx, pair)
	s.observe(ctx, "remove_edge", start, err)
	if err == nil && res == ports.Removed {
		s.recorder.AddRelationChanges(ctx, observability.ChangeRemoved, 1)
	}
	return res, err
}

func (s *MetricsRelationStore) NeighborsOf(ctx context.Context, id valueobjects.WordID) ([]valueobjects.WordID, error) {
	start := s.now()
	out, err := s.inner.NeighborsOf(ctx, id)
	s.observe(ctx, "neighbors_of", start, err)
	return out, err
}

func (s *MetricsRelationStore) RemoveAllEdgesTouching(ctx context.Context, id valueobjects.WordID) (int, error) {
	start := s.now()
	n, err := s.inner.RemoveAllEdgesTouching(ctx, id)
	s.observe(ctx, "remove_all_edges_touching", start, err)
	s.recorder.AddRelationChanges(ctx, observability.ChangeRemoved, n)
	return n, err
}

func (s *MetricsRelationStore) AllEdges(ctx context.Context, ids []valueobjects.WordID) ([]valueobjects.WordPair, error) {
	start := s.now()
	out, err := s.inner.AllEdges(ctx, ids)
	s.observe(ctx, "all_edges", start, err)
	return out, err
}
