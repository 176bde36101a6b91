// Package middleware holds the HTTP middleware for the development backend.
package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/pethealthai/advisor/pkg/utils"
)

// CORS permits browser clients during development. The deployed backend
// sits behind its own gateway policy.
var CORS = cors.Handler(cors.Options{
	AllowedOrigins:   []string{"*"},
	AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
	AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
	AllowCredentials: false,
	MaxAge:           300,
})

// RequireBearer rejects requests without a bearer token. The development
// backend accepts any non-empty token; it verifies presence, not identity.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header || strings.TrimSpace(token) == "" {
			utils.RespondError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
