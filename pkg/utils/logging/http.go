package logging

import (
	"net/http"

	"github.com/google/uuid"
)

// Middleware gives every request a logger tagged with a request ID, method and path
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := From(r.Context()).With(
			"request_id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
		)
		next.ServeHTTP(w, r.WithContext(With(r.Context(), logger)))
	})
}
