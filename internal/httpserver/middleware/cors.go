package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/quotekit/internal/config"
)

// CORS applies the configured cross-origin policy with github.com/rs/cors.
// Trace headers and Content-Disposition are exposed so browsers can read
// request ids and export filenames.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return c.Handler
}
