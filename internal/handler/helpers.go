package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"sortabletree/internal/domain"
	"sortabletree/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	extras := map[string]interface{}{}
	if id := httputil.RequestID(r.Context()); id != "" {
		extras["request_id"] = id
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondErrorWithExtras(w, http.StatusBadRequest, err.Error(), extras)
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondErrorWithExtras(w, http.StatusNotFound, err.Error(), extras)
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondErrorWithExtras(w, http.StatusUnauthorized, err.Error(), extras)
	case errors.Is(err, domain.ErrInvalidMove),
		errors.Is(err, domain.ErrInconsistent),
		errors.Is(err, domain.ErrConflict):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, err.Error(), extras)
	default:
		logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", extras["request_id"],
		)
		httputil.RespondErrorWithExtras(w, http.StatusInternalServerError, "internal server error", extras)
	}
}
