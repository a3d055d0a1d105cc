package handler

import (
	"context"
	"net/http"
	"time"

	"sortabletree/internal/httputil"
)

// Health answers GET /health. ping, when set, checks the database.
func Health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				httputil.RespondError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
