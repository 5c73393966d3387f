package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	"github.com/utafrali/giftbox-storefront/internal/service"
	"github.com/utafrali/giftbox-storefront/pkg/httputil"
	"github.com/utafrali/giftbox-storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Response DTOs ---

// CartResponse is a cart with its totals computed at read time.
type CartResponse struct {
	ID          string             `json:"id"`
	Items       []CartItemResponse `json:"items"`
	Currency    string             `json:"currency"`
	TotalAmount int64              `json:"total_amount"`
	ItemCount   int                `json:"item_count"`
	Version     int                `json:"version"`
	UpdatedAt   time.Time          `json:"updated_at"`
	ExpiresAt   time.Time          `json:"expires_at"`
}

// CartItemResponse is one line of a CartResponse.
type CartItemResponse struct {
	domain.LineItem
	Subtotal int64 `json:"subtotal"`
}

func toCartResponse(c *domain.Cart) CartResponse {
	items := make([]CartItemResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = CartItemResponse{LineItem: it, Subtotal: it.Subtotal()}
	}
	return CartResponse{
		ID:          c.ID,
		Items:       items,
		Currency:    c.Currency,
		TotalAmount: c.TotalAmount(),
		ItemCount:   c.ItemCount(),
		Version:     c.Version,
		UpdatedAt:   c.UpdatedAt,
		ExpiresAt:   c.ExpiresAt,
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, toCartResponse(cart))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddItemInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	cart, err := h.service.AddItem(r.Context(), sessionFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, toCartResponse(cart))
}

// UpdateItem handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathParam(r, "productId")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var req service.UpdateItemInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), sessionFromContext(r.Context()), productID, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, toCartResponse(cart))
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathParam(r, "productId")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), sessionFromContext(r.Context()), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, toCartResponse(cart))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), sessionFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
