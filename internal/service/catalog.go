package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	"github.com/utafrali/giftbox-storefront/internal/storefront"
	"github.com/utafrali/giftbox-storefront/internal/transform"
	apperrors "github.com/utafrali/giftbox-storefront/pkg/errors"
	"github.com/utafrali/giftbox-storefront/pkg/pagination"
	"github.com/utafrali/giftbox-storefront/pkg/slug"
	"github.com/utafrali/giftbox-storefront/pkg/validator"
)

// Page size bounds for catalog listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 250
)

var catalogPage = pagination.Limits{Default: DefaultPageSize, Max: MaxPageSize}

// CatalogSource is the read side of the commerce platform.
type CatalogSource interface {
	ProductSource
	SearchProducts(ctx context.Context, query string, first int) ([]storefront.Product, error)
	CollectionProducts(ctx context.Context, handle string, first int) (*storefront.Collection, error)
}

// CollectionView is a collection with its products in display form.
type CollectionView struct {
	Handle   string                  `json:"handle"`
	Title    string                  `json:"title"`
	Products []domain.DisplayProduct `json:"products"`
}

// CatalogService serves display products read from the commerce platform.
type CatalogService struct {
	source      CatalogSource
	transformer *transform.Transformer
	logger      *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(source CatalogSource, transformer *transform.Transformer, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		source:      source,
		transformer: transformer,
		logger:      logger,
	}
}

// Product returns one product by handle or GID. Handles are folded to slug
// form first, so "Red Mug" finds red-mug.
func (s *CatalogService) Product(ctx context.Context, ref string) (*domain.DisplayProduct, error) {
	ref = normalizeHandle(ref)
	if !validator.IsProductRef(ref) {
		return nil, apperrors.InvalidInput("product handle is invalid")
	}
	p, err := s.source.Product(ctx, ref)
	if err != nil {
		return nil, err
	}
	dp := s.transformer.Transform(*p)
	return &dp, nil
}

// Search lists products matching query. An empty query lists the catalog.
func (s *CatalogService) Search(ctx context.Context, query string, first int) ([]domain.DisplayProduct, error) {
	products, err := s.source.SearchProducts(ctx, strings.TrimSpace(query), catalogPage.Clamp(first))
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "catalog search",
		slog.String("query", query),
		slog.Int("results", len(products)),
	)
	return s.transformer.TransformAll(products), nil
}

// Collection lists the products of the collection with the given handle.
func (s *CatalogService) Collection(ctx context.Context, handle string, first int) (*CollectionView, error) {
	handle = normalizeHandle(handle)
	if !validator.IsProductRef(handle) || validator.IsProductGID(handle) {
		return nil, apperrors.InvalidInput("collection handle is invalid")
	}
	c, err := s.source.CollectionProducts(ctx, handle, catalogPage.Clamp(first))
	if err != nil {
		return nil, err
	}
	return &CollectionView{
		Handle:   c.Handle,
		Title:    c.Title,
		Products: s.transformer.TransformAll(c.Products.Nodes),
	}, nil
}

// normalizeHandle slugs anything that is not a GID.
func normalizeHandle(ref string) string {
	if strings.HasPrefix(ref, "gid://") {
		return ref
	}
	return slug.Handle(ref)
}
