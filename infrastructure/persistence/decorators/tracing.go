package decorators

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lexivault/application/ports"
	"lexivault/domain/core/valueobjects"
)

// TracingRelationStore opens one span per store call
type TracingRelationStore struct {
	inner  ports.RelationStore
	tracer trace.Tracer
	store  string
}

func NewTracingRelationStore(inner ports.RelationStore, tracer trace.Tracer, store string) *TracingRelationStore {
	return &TracingRelationStore{inner: inner, tracer: tracer, store: store}
}

func (s *TracingRelationStore) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("db.system", s.store),
		attribute.String("db.operation", op),
	)
	return s.tracer.Start(ctx, "RelationStore."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func pairAttrs(pair valueobjects.WordPair) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64("relation.low", int64(pair.Low)),
		attribute.Int64("relation.high", int64(pair.High)),
	}
}

func (s *TracingRelationStore) TryCreateEdge(ctx context.Context, pair valueobjects.WordPair) (ports.CreateResult, error) {
	ctx, span := s.start(ctx, "TryCreateEdge", pairAttrs(pair)...)
	res, err := s.inner.TryCreateEdge(ctx, pair)
	span.SetAttributes(attribute.String("relation.result", res.String()))
	finish(span, err)
	return res, err
}

func (s *TracingRelationStore) RemoveEdge(ctx context.Context, pair valueobjects.WordPair) (ports.RemoveResult, error) {
	ctx, span := s.start(ctx, "RemoveEdge", pairAttrs(pair)...)
	res, err := s.inner.RemoveEdge(ctx, pair)
	span.SetAttributes(attribute.String("relation.result", res.String()))
	finish(span, err)
	return res, err
}

func (s *TracingRelationStore) NeighborsOf(ctx context.Context, id valueobjects.WordID) ([]valueobjects.WordID, error) {
	ctx, span := s.start(ctx, "NeighborsOf", attribute.Int64("word.id", int64(id)))
	out, err := s.inner.NeighborsOf(ctx, id)
	span.SetAttributes(attribute.Int("relation.count", len(out)))
	finish(span, err)
	return out, err
}

func (s *TracingRelationStore) RemoveAllEdgesTouching(ctx context.Context, id valueobjects.WordID) (int, error) {
	ctx, span := s.start(ctx, "RemoveAllEdgesTouching", attribute.Int64("word.id", int64(id)))
	n, err := s.inner.RemoveAllEdgesTouching(ctx, id)
	span.SetAttributes(attribute.Int("relation.removed", n))
	finish(span, err)
	return n, err
}

func (s *TracingRelationStore) AllEdges(ctx context.Context, ids []valueobjects.WordID) ([]valueobjects.WordPair, error) {
	ctx, span := s.start(ctx, "AllEdges", attribute.Int("word.count", len(ids)))
	out, err := s.inner.AllEdges(ctx, ids)
	span.SetAttributes(attribute.Int("relation.count", len(out)))
	finish(span, err)
	return out, err
}
