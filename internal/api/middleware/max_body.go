package middleware

import (
	"net/http"

	"github.com/veralex-legal/casebrain/internal/api"
)

// MaxBodyBytes caps request bodies at limit bytes. Requests declaring a
// larger Content-Length are rejected up front; chunked bodies are capped
// while reading via http.MaxBytesReader.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
