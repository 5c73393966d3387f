package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/giftbox-storefront/internal/config"
	"github.com/utafrali/giftbox-storefront/internal/event"
	handler "github.com/utafrali/giftbox-storefront/internal/handler/http"
	"github.com/utafrali/giftbox-storefront/internal/repository"
	"github.com/utafrali/giftbox-storefront/internal/repository/memory"
	redisrepo "github.com/utafrali/giftbox-storefront/internal/repository/redis"
	"github.com/utafrali/giftbox-storefront/internal/service"
	"github.com/utafrali/giftbox-storefront/internal/storefront"
	"github.com/utafrali/giftbox-storefront/internal/transform"
	"github.com/utafrali/giftbox-storefront/pkg/database"
	"github.com/utafrali/giftbox-storefront/pkg/health"
	"github.com/utafrali/giftbox-storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/giftbox-storefront/pkg/kafka"
	"github.com/utafrali/giftbox-storefront/pkg/middleware"
	"github.com/utafrali/giftbox-storefront/pkg/tracing"
)

// ServiceName labels logs, metrics and traces.
const ServiceName = "storefront-bridge"

// App wires together all dependencies and runs the storefront bridge.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Tracing is a no-op unless OTEL_ENABLED is set.
	tcfg := tracing.DefaultConfig(ServiceName)
	tcfg.Environment = cfg.Environment
	tcfg.Enabled = cfg.OTELEnabled
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.Insecure = cfg.OTELInsecure
	tcfg.SampleRate = cfg.OTELSampleRate
	shutdown, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = shutdown

	healthHandler := health.NewHandler()

	// Storefront gateway behind a circuit breaker.
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.GatewayTimeout
	httpCfg.MaxRetries = cfg.GatewayMaxRetries
	cbCfg := httpclient.DefaultCircuitBreakerConfig("shopify-storefront")
	cbCfg.FailureRatio = cfg.CBFailureRatio
	cbCfg.MinRequests = cfg.CBMinRequests
	cbCfg.Timeout = cfg.CBOpenTimeout
	doer := httpclient.NewCircuitBreakerClient(httpclient.New(httpCfg), cbCfg, logger)

	sfCfg := storefront.Config{
		StoreDomain: cfg.ShopifyStoreDomain,
		AccessToken: cfg.ShopifyAccessToken,
		APIVersion:  cfg.ShopifyAPIVersion,
	}
	if err := sfCfg.Validate(); err != nil {
		logger.Warn("storefront gateway is not configured; catalog and checkout requests will fail",
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("storefront gateway configured", slog.String("endpoint", sfCfg.Endpoint()))
	}
	gateway := storefront.NewClient(sfCfg, doer, logger)
	healthHandler.RegisterNonCritical("storefront_config", gateway.CheckConfig)

	// Cart storage.
	repo, err := a.cartRepository(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	// Kafka producer. Without brokers events are dropped.
	var publisher pkgkafka.Publisher = pkgkafka.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("no kafka brokers configured, domain events are dropped")
	}

	// Build the dependency graph.
	rules := transform.DefaultRules()
	rules.DefaultCategory = cfg.DefaultCategory
	eventProducer := event.NewProducer(publisher, logger)
	cartService := service.NewCartService(repo, eventProducer, logger, cfg.CartTTL)
	resolver := service.NewVariantResolver(gateway, cfg.ResolverTimeout, rules, logger)
	orchestrator := service.NewCheckoutOrchestrator(cartService, resolver, gateway, eventProducer, logger, service.CheckoutConfig{
		ResolveConcurrency: cfg.CheckoutResolveConcurrency,
		SubmitTimeout:      cfg.CheckoutSubmitTimeout,
		ReturnURL:          cfg.CheckoutReturnURL,
	})
	catalog := service.NewCatalogService(gateway, transform.New(rules), logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	// HTTP router.
	router := handler.NewRouter(handler.Services{
		Carts:    cartService,
		Checkout: orchestrator,
		Resolver: resolver,
		Catalog:  catalog,
	}, healthHandler, logger, handler.RouterConfig{
		ServiceName: ServiceName,
		PprofCIDRs:  cfg.PprofAllowedCIDRs,
		CORS:        corsCfg,
		CheckoutRateLimit: middleware.RateLimitConfig{
			RPS:   cfg.CheckoutRateLimitRPS,
			Burst: cfg.CheckoutRateLimitBurst,
		},
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

func (a *App) cartRepository(ctx context.Context, healthHandler *health.Handler) (repository.CartRepository, error) {
	if a.cfg.CartStore != config.CartStoreRedis {
		a.logger.Info("using in-memory cart store")
		return memory.NewCartRepository(), nil
	}

	rcfg := database.DefaultRedisConfig()
	rcfg.Host = a.cfg.RedisHost
	rcfg.Port = a.cfg.RedisPort
	rcfg.Password = a.cfg.RedisPass
	rcfg.DB = a.cfg.RedisDB
	rdb, err := database.NewRedisClient(ctx, rcfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	healthHandler.RegisterCritical("redis", database.RedisChecker(rdb))
	a.logger.Info("connected to Redis",
		slog.String("addr", rcfg.Addr()),
		slog.Int("db", rcfg.DB),
	)
	return redisrepo.NewCartRepository(rdb, a.cfg.CartTTL), nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
