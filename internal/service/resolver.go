package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	"github.com/utafrali/giftbox-storefront/internal/storefront"
	"github.com/utafrali/giftbox-storefront/internal/transform"
	apperrors "github.com/utafrali/giftbox-storefront/pkg/errors"
	"github.com/utafrali/giftbox-storefront/pkg/tracing"
	"github.com/utafrali/giftbox-storefront/pkg/validator"
)

// DefaultResolverTimeout bounds a single variant lookup.
const DefaultResolverTimeout = 8 * time.Second

var variantResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_variant_resolutions_total",
	Help: "Variant resolutions by outcome.",
}, []string{"outcome"})

// ProductSource loads a product with its variants by GID or handle.
type ProductSource interface {
	Product(ctx context.Context, ref string) (*storefront.Product, error)
}

// VariantResolver turns a cart line into the variant reference the checkout
// gateway accepts.
type VariantResolver struct {
	products   ProductSource
	timeout    time.Duration
	sizeNames  []string
	colorNames []string
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewVariantResolver creates a resolver. A non-positive timeout uses
// DefaultResolverTimeout.
func NewVariantResolver(products ProductSource, timeout time.Duration, rules transform.Rules, logger *slog.Logger) *VariantResolver {
	if timeout <= 0 {
		timeout = DefaultResolverTimeout
	}
	return &VariantResolver{
		products:   products,
		timeout:    timeout,
		sizeNames:  rules.SizeOptionNames,
		colorNames: rules.ColorOptionNames,
		logger:     logger,
		tracer:     tracing.Tracer("storefront/resolver"),
	}
}

// Resolve returns the hard variant id for item. Failures are *domain.ResolutionError.
func (r *VariantResolver) Resolve(ctx context.Context, item domain.LineItem) (id string, err error) {
	if validator.IsVariantGID(item.VariantID) {
		variantResolutions.WithLabelValues("passthrough").Inc()
		return item.VariantID, nil
	}

	ctx, span := r.tracer.Start(ctx, "resolver.resolve", trace.WithAttributes(
		attribute.String("storefront.product_id", item.ProductID),
	))
	defer func() { tracing.EndSpan(span, err) }()

	variants, err := r.lookup(ctx, item.ProductID)
	if err != nil {
		variantResolutions.WithLabelValues("failed").Inc()
		r.logger.WarnContext(ctx, "variant lookup failed",
			slog.String("product_id", item.ProductID),
			slog.String("error", err.Error()),
		)
		return "", &domain.ResolutionError{ProductID: item.ProductID, Kind: domain.ResolutionLookupFailed, Err: err}
	}
	if len(variants) == 0 {
		variantResolutions.WithLabelValues("failed").Inc()
		return "", &domain.ResolutionError{ProductID: item.ProductID, Kind: domain.ResolutionNoVariants}
	}

	chosen, matched := r.selectVariant(variants, item.SelectedSize, item.SelectedColor)
	if !validator.IsVariantGID(chosen.ID) {
		variantResolutions.WithLabelValues("failed").Inc()
		return "", &domain.ResolutionError{ProductID: item.ProductID, Kind: domain.ResolutionInvalidFormat}
	}

	outcome := "fallback"
	if matched {
		outcome = "matched"
	}
	variantResolutions.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("storefront.variant_id", chosen.ID), attribute.String("storefront.outcome", outcome))
	return chosen.ID, nil
}

// Variants returns every variant of the referenced product.
func (r *VariantResolver) Variants(ctx context.Context, productRef string) (*domain.ProductVariants, error) {
	productRef = strings.TrimSpace(productRef)
	if productRef == "" {
		return nil, apperrors.InvalidInput("productId is required")
	}
	if !validator.IsProductRef(productRef) {
		return nil, apperrors.InvalidInput("productId must be a product id or handle")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	p, err := r.products.Product(ctx, productRef)
	if err != nil {
		return nil, err
	}
	return &domain.ProductVariants{
		ProductID:    p.ID,
		ProductTitle: p.Title,
		Variants:     transform.Variants(*p),
	}, nil
}

func (r *VariantResolver) lookup(ctx context.Context, ref string) ([]domain.Variant, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	p, err := r.products.Product(ctx, ref)
	if err != nil {
		return nil, err
	}
	return transform.Variants(*p), nil
}

// selectVariant picks the first available variant matching every non-empty
// selection. Without a match, or without selections, it falls back to the
// first variant whether or not it is available.
func (r *VariantResolver) selectVariant(variants []domain.Variant, size, color string) (domain.Variant, bool) {
	if size != "" || color != "" {
		for _, v := range variants {
			if !v.AvailableForSale {
				continue
			}
			if size != "" && !v.HasOption(size, r.sizeNames...) {
				continue
			}
			if color != "" && !v.HasOption(color, r.colorNames...) {
				continue
			}
			return v, true
		}
	}
	return variants[0], false
}
