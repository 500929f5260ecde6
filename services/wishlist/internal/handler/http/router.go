package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pawmart/storefront/pkg/health"
	"github.com/pawmart/storefront/pkg/middleware"
)

// RouterConfig carries the cross-cutting settings of the HTTP surface.
type RouterConfig struct {
	CORS              middleware.CORSConfig
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all wishlist routes registered.
func NewRouter(
	svc WishlistService,
	validate middleware.TokenValidator,
	limiter *middleware.Limiter,
	checks *health.Registry,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("wishlist"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Metrics("wishlist"))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/health/live", checks.LivenessHandler())
	r.Get("/health/ready", checks.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.MountPprof(r, cfg.PprofAllowedCIDRs, logger)

	h := NewWishlistHandler(svc, logger)
	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(middleware.Auth(validate))
		r.Use(ContentTypeJSON)

		r.Get("/", h.List)

		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Middleware)
			}
			r.Post("/sync", h.Sync)
			r.Post("/add", h.Add)
			r.Delete("/", h.Clear)
			r.Delete("/{productId}", h.Remove)
		})
	})

	return r
}
