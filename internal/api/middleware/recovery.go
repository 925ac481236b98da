package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/competition-console/internal/api/apierr"
	"github.com/mcoot/competition-console/internal/middleware"
)

// Recovery creates panic recovery middleware for the API.
// Panics become the standard JSON internal error.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
