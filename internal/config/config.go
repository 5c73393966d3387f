package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/giftbox-storefront/pkg/config"
)

// Cart store backends.
const (
	CartStoreMemory = "memory"
	CartStoreRedis  = "redis"
)

// Config holds all configuration for the storefront bridge.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"HTTP_PORT" envDefault:"8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// Shopify Storefront API. Missing values are reported, not fatal.
	ShopifyStoreDomain string `env:"SHOPIFY_STORE_DOMAIN"`
	ShopifyAccessToken string `env:"SHOPIFY_STOREFRONT_TOKEN"`
	ShopifyAPIVersion  string `env:"SHOPIFY_API_VERSION" envDefault:"2024-01"`

	// Gateway HTTP client and breaker
	GatewayTimeout    time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`
	GatewayMaxRetries int           `env:"GATEWAY_MAX_RETRIES" envDefault:"0"`
	CBFailureRatio    float64       `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests     uint32        `env:"CB_MIN_REQUESTS" envDefault:"5"`
	CBOpenTimeout     time.Duration `env:"CB_OPEN_TIMEOUT" envDefault:"30s"`

	// Checkout workflow
	ResolverTimeout            time.Duration `env:"RESOLVER_TIMEOUT" envDefault:"8s"`
	CheckoutSubmitTimeout      time.Duration `env:"CHECKOUT_SUBMIT_TIMEOUT" envDefault:"15s"`
	CheckoutResolveConcurrency int           `env:"CHECKOUT_RESOLVE_CONCURRENCY" envDefault:"8"`
	CheckoutReturnURL          string        `env:"CHECKOUT_RETURN_URL"`
	CheckoutRateLimitRPS       float64       `env:"CHECKOUT_RATE_LIMIT_RPS" envDefault:"1"`
	CheckoutRateLimitBurst     int           `env:"CHECKOUT_RATE_LIMIT_BURST" envDefault:"3"`

	// Product transform
	DefaultCategory string `env:"DEFAULT_CATEGORY" envDefault:"general"`

	// Cart storage
	CartStore string        `env:"CART_STORE" envDefault:"memory"`
	CartTTL   time.Duration `env:"CART_TTL" envDefault:"168h"`
	RedisHost string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string        `env:"REDIS_PASSWORD"`
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`

	// Kafka. Events are dropped when no brokers are set.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, vars); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.CartStore {
	case CartStoreMemory, CartStoreRedis:
	default:
		return fmt.Errorf("invalid CART_STORE %q: must be %s or %s", c.CartStore, CartStoreMemory, CartStoreRedis)
	}
	if c.ResolverTimeout <= 0 || c.CheckoutSubmitTimeout <= 0 || c.GatewayTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.CheckoutResolveConcurrency < 1 {
		return fmt.Errorf("invalid CHECKOUT_RESOLVE_CONCURRENCY: %d", c.CheckoutResolveConcurrency)
	}
	if c.GatewayMaxRetries < 0 {
		return fmt.Errorf("invalid GATEWAY_MAX_RETRIES: %d", c.GatewayMaxRetries)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("invalid CB_FAILURE_RATIO: %v", c.CBFailureRatio)
	}
	if c.CheckoutRateLimitRPS <= 0 || c.CheckoutRateLimitBurst < 1 {
		return fmt.Errorf("checkout rate limit must be positive")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("invalid OTEL_SAMPLE_RATE: %v", c.OTELSampleRate)
	}
	if c.CheckoutReturnURL != "" {
		u, err := url.Parse(c.CheckoutReturnURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid CHECKOUT_RETURN_URL %q", c.CheckoutReturnURL)
		}
	}
	return nil
}
