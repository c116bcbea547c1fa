package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"

	"github.com/landlordheaven/heaven-backend/pkg/config"
)

const devOrigin = "http://localhost:3000"

// CORS allows the marketing site, the admin dashboard and, in dev, the local
// Next.js server. Idempotency and request id headers pass through both ways.
func CORS(app config.AppConfig) func(http.Handler) http.Handler {
	origins := slices.Clone(app.CORSOrigins)
	if app.IsDev() && !slices.Contains(origins, devOrigin) {
		origins = append(origins, devOrigin)
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", idempotencyKeyHeader, requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, replayedHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
