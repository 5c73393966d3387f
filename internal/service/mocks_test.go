package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	"github.com/utafrali/giftbox-storefront/internal/event"
	"github.com/utafrali/giftbox-storefront/internal/repository/memory"
	"github.com/utafrali/giftbox-storefront/internal/storefront"
	"github.com/utafrali/giftbox-storefront/internal/transform"
	pkgkafka "github.com/utafrali/giftbox-storefront/pkg/kafka"
)

// --- Mock Catalog Source ---

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Product(ctx context.Context, ref string) (*storefront.Product, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storefront.Product), args.Error(1)
}

func (m *mockCatalog) SearchProducts(ctx context.Context, query string, first int) ([]storefront.Product, error) {
	args := m.Called(ctx, query, first)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storefront.Product), args.Error(1)
}

func (m *mockCatalog) CollectionProducts(ctx context.Context, handle string, first int) (*storefront.Collection, error) {
	args := m.Called(ctx, handle, first)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storefront.Collection), args.Error(1)
}

// --- Mock Checkout Creator ---

type mockCheckoutCreator struct {
	mock.Mock
}

func (m *mockCheckoutCreator) CreateCart(ctx context.Context, lines []domain.CheckoutLine) (*domain.CheckoutResult, error) {
	args := m.Called(ctx, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutResult), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEventProducer() *event.Producer {
	return event.NewProducer(pkgkafka.NopPublisher{}, newTestLogger())
}

func newTestCartService() *CartService {
	return NewCartService(memory.NewCartRepository(), newTestEventProducer(), newTestLogger(), time.Hour)
}

func newTestResolver(catalog ProductSource) *VariantResolver {
	return NewVariantResolver(catalog, time.Second, transform.DefaultRules(), newTestLogger())
}

func variantGID(n int) string {
	return fmt.Sprintf("gid://shopify/ProductVariant/%d", n)
}

func productGID(n int) string {
	return fmt.Sprintf("gid://shopify/Product/%d", n)
}

func testVariant(n int, available bool, size, color string) storefront.Variant {
	v := storefront.Variant{
		ID:               variantGID(n),
		Title:            fmt.Sprintf("%s / %s", size, color),
		AvailableForSale: available,
		Price:            storefront.Money{Amount: "25.00", CurrencyCode: "USD"},
	}
	if size != "" {
		v.SelectedOptions = append(v.SelectedOptions, storefront.SelectedOption{Name: "Size", Value: size})
	}
	if color != "" {
		v.SelectedOptions = append(v.SelectedOptions, storefront.SelectedOption{Name: "Color", Value: color})
	}
	return v
}

func testProduct(n int, variants ...storefront.Variant) *storefront.Product {
	return &storefront.Product{
		ID:       productGID(n),
		Handle:   fmt.Sprintf("gift-%d", n),
		Title:    fmt.Sprintf("Gift %d", n),
		Variants: storefront.VariantConnection{Nodes: variants},
		PriceRange: storefront.PriceRange{
			MinVariantPrice: storefront.Money{Amount: "25.00", CurrencyCode: "USD"},
		},
	}
}
