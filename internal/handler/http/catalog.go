package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/giftbox-storefront/internal/service"
	"github.com/utafrali/giftbox-storefront/pkg/httputil"
	"github.com/utafrali/giftbox-storefront/pkg/pagination"
)

// CatalogHandler serves display products.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: svc, logger: logger}
}

// ListProducts handles GET /api/v1/products?query=&first=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	first, err := pagination.FirstFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	products, err := h.service.Search(r.Context(), r.URL.Query().Get("query"), first)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// GetProduct handles GET /api/v1/products/{handle}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	handle, err := pathParam(r, "handle")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.service.Product(r.Context(), handle)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, product)
}

// CollectionProducts handles GET /api/v1/collections/{handle}/products?first=
func (h *CatalogHandler) CollectionProducts(w http.ResponseWriter, r *http.Request) {
	first, err := pagination.FirstFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	handle, err := pathParam(r, "handle")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	view, err := h.service.Collection(r.Context(), handle, first)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}
