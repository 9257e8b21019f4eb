package queries

import (
	"context"
	"fmt"

	"lexivault/application/queries/bus"
	"lexivault/application/services"
	"lexivault/domain/core/valueobjects"
)

// RelatedWordsHandler checks ownership, then lists neighbors.
type RelatedWordsHandler struct {
	graph *services.GraphService
}

func NewRelatedWordsHandler(graph *services.GraphService) *RelatedWordsHandler {
	return &RelatedWordsHandler{graph: graph}
}

func (h *RelatedWordsHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(RelatedWordsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}
	if _, err := h.graph.Guard().AssertOwned(ctx, query.UserID, query.WordID); err != nil {
		return nil, err
	}
	related, err := h.graph.RelatedWords(ctx, query.WordID)
	if err != nil {
		return nil, err
	}
	return &RelatedWordsResult{WordID: query.WordID, Related: related}, nil
}

// LinkableWordsHandler resolves the scope and lists candidates.
type LinkableWordsHandler struct {
	graph        *services.GraphService
	defaultScope valueobjects.LinkScope
}

func NewLinkableWordsHandler(graph *services.GraphService, defaultScope valueobjects.LinkScope) *LinkableWordsHandler {
	if defaultScope == "" {
		defaultScope = valueobjects.ScopeVault
	}
	return &LinkableWordsHandler{graph: graph, defaultScope: defaultScope}
}

func (h *LinkableWordsHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(LinkableWordsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}
	scope := query.Scope
	if scope == "" {
		scope = h.defaultScope
	}
	candidates, err := h.graph.LinkableWords(ctx, query.UserID, query.WordID, scope)
	if err != nil {
		return nil, err
	}
	return &LinkableWordsResult{WordID: query.WordID, Scope: scope, Candidates: candidates}, nil
}

// AllRelationsHandler lists the user's relations.
type AllRelationsHandler struct {
	graph *services.GraphService
}

func NewAllRelationsHandler(graph *services.GraphService) *AllRelationsHandler {
	return &AllRelationsHandler{graph: graph}
}

func (h *AllRelationsHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(AllRelationsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}
	pairs, err := h.graph.AllRelations(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	views := make([]RelationView, 0, len(pairs))
	for _, p := range pairs {
		views = append(views, RelationView{Low: p.Low, High: p.High})
	}
	return &AllRelationsResult{Relations: views, Count: len(views)}, nil
}

// Register wires every relation query handler into b.
func Register(b *bus.QueryBus, graph *services.GraphService, defaultScope valueobjects.LinkScope) error {
	if err := b.Register(RelatedWordsQuery{}, NewRelatedWordsHandler(graph)); err != nil {
		return err
	}
	if err := b.Register(LinkableWordsQuery{}, NewLinkableWordsHandler(graph, defaultScope)); err != nil {
		return err
	}
	return b.Register(AllRelationsQuery{}, NewAllRelationsHandler(graph))
}
