package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/farklegame/internal/api/apierr"
	"github.com/mcoot/farklegame/internal/middleware"
)

// Logging creates request logging middleware for the API.
// Requests under /rooms/{id} carry the room ID in their log line.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	logRequests := middleware.Logging(logger)
	return func(next http.Handler) http.Handler {
		return logRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := mux.Vars(r)["id"]; id != "" {
				middleware.Annotate(r.Context(), slog.String("room_id", id))
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// Recovery creates panic recovery middleware that answers with a JSON 500
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
