package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"lexivault/application/commands"
	"lexivault/application/commands/bus"
	"lexivault/application/queries"
	querybus "lexivault/application/queries/bus"
	"lexivault/domain/core/valueobjects"
	pkgerrors "lexivault/pkg/errors"
)

// WordHandler serves the relation views of a single word under /words/{wordID}
type WordHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

func NewWordHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *WordHandler {
	return &WordHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errs,
		logger:     logger,
	}
}

// Related handles GET /words/{wordID}/related
func (h *WordHandler) Related(w http.ResponseWriter, r *http.Request) {
	user, word, ok := h.target(w, r)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.RelatedWordsQuery{UserID: user, WordID: word})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// Linkable handles GET /words/{wordID}/linkable?scope=vault|all
func (h *WordHandler) Linkable(w http.ResponseWriter, r *http.Request) {
	user, word, ok := h.target(w, r)
	if !ok {
		return
	}

	// An empty scope lets the query handler apply the configured default.
	scope, err := valueobjects.ParseLinkScope(r.URL.Query().Get("scope"), "")
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.LinkableWordsQuery{UserID: user, WordID: word, Scope: scope})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// PurgeRelations handles DELETE /words/{wordID}/relations
func (h *WordHandler) PurgeRelations(w http.ResponseWriter, r *http.Request) {
	user, word, ok := h.target(w, r)
	if !ok {
		return
	}

	out, err := h.commandBus.Dispatch(r.Context(), commands.PurgeWordRelationsCommand{UserID: user, WordID: word})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	removed, _ := out.(int)

	h.logger.Info("Relations purged via API",
		zap.Int64("wordID", int64(word)),
		zap.Int("removed", removed),
	)
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"word_id": word,
		"removed": removed,
	})
}

func (h *WordHandler) target(w http.ResponseWriter, r *http.Request) (valueobjects.UserID, valueobjects.WordID, bool) {
	user, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return 0, 0, false
	}
	word, err := wordParam(r, "wordID")
	if err != nil {
		h.errors.Handle(w, r, err)
		return 0, 0, false
	}
	return user, word, true
}
