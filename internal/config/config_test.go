package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, CartStoreMemory, cfg.CartStore)
	assert.Equal(t, 8*time.Second, cfg.ResolverTimeout)
	assert.Equal(t, 15*time.Second, cfg.CheckoutSubmitTimeout)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 8, cfg.CheckoutResolveConcurrency)
	assert.Equal(t, 0, cfg.GatewayMaxRetries)
	assert.Equal(t, 168*time.Hour, cfg.CartTTL)
	assert.Equal(t, "general", cfg.DefaultCategory)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.OTELEnabled)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"SHOPIFY_STORE_DOMAIN":     "gifts.myshopify.com",
		"SHOPIFY_STOREFRONT_TOKEN": "tok",
		"CART_STORE":               "redis",
		"KAFKA_BROKERS":            "k1:9092,k2:9092",
		"RESOLVER_TIMEOUT":         "2s",
		"CHECKOUT_RETURN_URL":      "https://gifts.example/thanks",
		"PPROF_ALLOWED_CIDRS":      "127.0.0.0/8,10.0.0.0/8",
	})
	require.NoError(t, err)

	assert.Equal(t, CartStoreRedis, cfg.CartStore)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Second, cfg.ResolverTimeout)
	assert.Equal(t, []string{"127.0.0.0/8", "10.0.0.0/8"}, cfg.PprofAllowedCIDRs)
	assert.Equal(t, "gifts.myshopify.com", cfg.ShopifyStoreDomain)
	assert.Equal(t, "tok", cfg.ShopifyAccessToken)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"port", map[string]string{"HTTP_PORT": "70000"}},
		{"cart store", map[string]string{"CART_STORE": "postgres"}},
		{"concurrency", map[string]string{"CHECKOUT_RESOLVE_CONCURRENCY": "0"}},
		{"negative retries", map[string]string{"GATEWAY_MAX_RETRIES": "-1"}},
		{"return url", map[string]string{"CHECKOUT_RETURN_URL": "/thanks"}},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2"}},
		{"unparseable", map[string]string{"RESOLVER_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.vars)
			assert.Error(t, err)
		})
	}
}
