package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/giftbox-storefront/internal/service"
	"github.com/utafrali/giftbox-storefront/pkg/health"
	"github.com/utafrali/giftbox-storefront/pkg/middleware"
)

// Services are the handlers' dependencies.
type Services struct {
	Carts    *service.CartService
	Checkout *service.CheckoutOrchestrator
	Resolver *service.VariantResolver
	Catalog  *service.CatalogService
}

// RouterConfig holds the router's tunables.
type RouterConfig struct {
	ServiceName       string
	PprofCIDRs        []string
	CORS              middleware.CORSConfig
	CheckoutRateLimit middleware.RateLimitConfig
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(svcs Services, healthHandler *health.Handler, logger *slog.Logger, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	cartHandler := NewCartHandler(svcs.Carts, logger)
	checkoutHandler := NewCheckoutHandler(svcs.Checkout, svcs.Resolver, logger)
	catalogHandler := NewCatalogHandler(svcs.Catalog, logger)

	// One bucket store shared by both checkout entry points.
	checkoutLimit := middleware.RateLimit(cfg.CheckoutRateLimit, logger)

	r.With(ContentTypeJSON, checkoutLimit).Post("/checkout", checkoutHandler.CreateCheckout)
	r.Get("/get-variants", checkoutHandler.GetVariants)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(CartSessionFromHeader)

		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)

		r.Post("/items", cartHandler.AddItem)
		r.Put("/items/{productId}", cartHandler.UpdateItem)
		r.Delete("/items/{productId}", cartHandler.RemoveItem)

		r.With(checkoutLimit).Post("/checkout", checkoutHandler.CheckoutCart)
	})

	r.Get("/api/v1/products", catalogHandler.ListProducts)
	r.Get("/api/v1/products/{handle}", catalogHandler.GetProduct)
	r.Get("/api/v1/collections/{handle}/products", catalogHandler.CollectionProducts)

	return r
}
