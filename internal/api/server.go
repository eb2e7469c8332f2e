// Package api exposes the estimator over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/enviro-impact/internal/model"
)

// Estimator is the pipeline the handlers call.
type Estimator interface {
	Estimate(ctx context.Context, req model.Request) (*model.Result, error)
	Regions() []string
	FacilityTypes() []string
}

// Options configures the router.
type Options struct {
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
	// MaxBodyBytes caps the /calculate request body. Default: 1 MiB.
	MaxBodyBytes int64
}

// NewRouter builds the HTTP handler for the estimator.
func NewRouter(est Estimator, opts Options) http.Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	h := &handlers{est: est, maxBody: opts.MaxBodyBytes}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         int((10 * time.Minute).Seconds()),
	}))

	r.Get("/health", h.health)
	r.Get("/regions", h.regions)
	r.Get("/facility-types", h.facilityTypes)
	r.Post("/calculate", h.calculate)

	return r
}
