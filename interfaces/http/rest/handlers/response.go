package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"lexivault/domain/core/valueobjects"
	"lexivault/pkg/common"
	pkgerrors "lexivault/pkg/errors"
)

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// currentUser reads the authenticated caller. The auth middleware guarantees it on
// /api routes; its absence is still reported rather than assumed.
func currentUser(r *http.Request) (valueobjects.UserID, error) {
	user, ok := common.GetUserID(r.Context())
	if !ok {
		return 0, pkgerrors.NewUnauthorizedError("Unauthorized")
	}
	return user, nil
}

func wordParam(r *http.Request, name string) (valueobjects.WordID, error) {
	id, err := valueobjects.ParseWordID(chi.URLParam(r, name))
	if err != nil {
		return 0, pkgerrors.NewValidationError(err.Error()).
			WithDetails(map[string]interface{}{"param": name})
	}
	return id, nil
}
