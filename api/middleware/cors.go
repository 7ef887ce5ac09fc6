package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/danilompg/sitescope-backend/pkg/config"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS(siteCfg config.SiteConfig) func(http.Handler) http.Handler {
	origins := defaultCORSOrigins
	if base := strings.TrimRight(siteCfg.PublicBaseURL, "/"); base != "" {
		origins = append(origins, base)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
