package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"lexivault/application/commands"
	"lexivault/application/commands/bus"
	"lexivault/application/queries"
	querybus "lexivault/application/queries/bus"
	"lexivault/domain/core/valueobjects"
	pkgerrors "lexivault/pkg/errors"
	"lexivault/pkg/utils"
)

// RelationHandler serves /relations
type RelationHandler struct {
	commandBus             *bus.CommandBus
	queryBus               *querybus.QueryBus
	errors                 *pkgerrors.ErrorHandler
	enforceUnlinkOwnership bool
	logger                 *zap.Logger
}

func NewRelationHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	enforceUnlinkOwnership bool,
	logger *zap.Logger,
) *RelationHandler {
	return &RelationHandler{
		commandBus:             commandBus,
		queryBus:               queryBus,
		errors:                 errs,
		enforceUnlinkOwnership: enforceUnlinkOwnership,
		logger:                 logger,
	}
}

// LinkRequest is the body of POST /relations
type LinkRequest struct {
	WordA int64 `json:"word_a" validate:"required,gt=0"`
	WordB int64 `json:"word_b" validate:"required,gt=0"`
}

// LinkResponse echoes the stored, canonical pair.
type LinkResponse struct {
	Low  valueobjects.WordID `json:"low"`
	High valueobjects.WordID `json:"high"`
}

// Link handles POST /relations
func (h *RelationHandler) Link(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("Invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	a, b := valueobjects.WordID(req.WordA), valueobjects.WordID(req.WordB)
	if err := h.commandBus.Send(r.Context(), commands.LinkWordsCommand{UserID: user, WordA: a, WordB: b}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	resp := LinkResponse{Low: a, High: b}
	if b < a {
		resp = LinkResponse{Low: b, High: a}
	}
	respondJSON(w, h.logger, http.StatusCreated, resp)
}

// Unlink handles DELETE /relations/{a}/{b}
func (h *RelationHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	a, err := wordParam(r, "a")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	b, err := wordParam(r, "b")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cmd := commands.UnlinkWordsCommand{UserID: user, WordA: a, WordB: b, EnforceOwnership: h.enforceUnlinkOwnership}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /relations
func (h *RelationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.AllRelationsQuery{UserID: user})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}
