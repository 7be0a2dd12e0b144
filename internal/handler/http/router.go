package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SudaisX/DB-Project/pkg/health"
	"github.com/SudaisX/DB-Project/pkg/middleware"

	"github.com/SudaisX/DB-Project/internal/service"
)

// catalogMaxAge is the client cache lifetime of public catalog reads.
const catalogMaxAge = 30 * time.Second

// Services groups the application services exposed over HTTP.
type Services struct {
	Catalog *service.CatalogService
	Reviews *service.ReviewService
	Orders  *service.OrderService
	Users   *service.UserService
}

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	AppName           string
	CORS              middleware.CORSConfig
	PprofEnabled      bool
	PprofAllowedCIDRs []string

	// AuthRateLimitRPS throttles register and login per client IP. Zero disables it.
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(svc Services, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.PrometheusMetrics(cfg.AppName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	authenticate := middleware.Authenticate(tokenResolver(svc.Users), logger)
	requireAdmin := middleware.Require(isAdmin, "not authorized as an admin", logger)

	productHandler := NewProductHandler(svc.Catalog, svc.Reviews, logger)
	r.Route("/api/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(catalogMaxAge))
			r.Get("/", productHandler.List)
			r.Get("/top", productHandler.Top)
			r.Get("/{id}", productHandler.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{id}/reviews", productHandler.AddReview)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", productHandler.Create)
				r.Put("/{id}", productHandler.Update)
				r.Delete("/{id}", productHandler.Delete)
			})
		})
	})

	orderHandler := NewOrderHandler(svc.Orders, logger)
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authenticate)

		r.Post("/", orderHandler.Create)
		r.Get("/myorders", orderHandler.Mine)
		r.Get("/{id}", orderHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/", orderHandler.List)
			r.Put("/{id}/pay", orderHandler.Pay)
			r.Put("/{id}/deliver", orderHandler.Deliver)
		})
	})

	credentials := func(next http.Handler) http.Handler { return next }
	if cfg.AuthRateLimitRPS > 0 {
		credentials = middleware.RateLimit(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, logger)
	}

	userHandler := NewUserHandler(svc.Users, logger)
	r.Route("/api/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(credentials).Post("/", userHandler.Register)
		r.With(credentials).Post("/login", userHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/profile", userHandler.GetProfile)
			r.Put("/profile", userHandler.UpdateProfile)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/", userHandler.List)
				r.Get("/{id}", userHandler.Get)
				r.Put("/{id}", userHandler.Update)
				r.Delete("/{id}", userHandler.Delete)
			})
		})
	})

	return r
}
