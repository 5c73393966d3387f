package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	"github.com/utafrali/giftbox-storefront/internal/service"
	"github.com/utafrali/giftbox-storefront/pkg/httputil"
	"github.com/utafrali/giftbox-storefront/pkg/validator"
)

// CheckoutHandler serves checkout creation and variant lookup.
type CheckoutHandler struct {
	orchestrator *service.CheckoutOrchestrator
	resolver     *service.VariantResolver
	logger       *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(orchestrator *service.CheckoutOrchestrator, resolver *service.VariantResolver, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		orchestrator: orchestrator,
		resolver:     resolver,
		logger:       logger,
	}
}

// --- Request / Response DTOs ---

// CreateCheckoutRequest is the body of POST /checkout.
type CreateCheckoutRequest struct {
	LineItems []CheckoutLineRequest `json:"lineItems" validate:"required,min=1,max=50,dive"`
}

// CheckoutLineRequest is one line of a CreateCheckoutRequest.
type CheckoutLineRequest struct {
	VariantID string `json:"variantId" validate:"required,variant_gid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=100"`
}

// CreateCheckoutResponse is the result of POST /checkout.
type CreateCheckoutResponse struct {
	WebURL        string              `json:"webUrl"`
	CartID        string              `json:"cartId"`
	TotalQuantity int                 `json:"totalQuantity"`
	Cost          domain.CheckoutCost `json:"cost"`
}

// RedirectResponse is the JSON answer of a cart checkout.
type RedirectResponse struct {
	RedirectURL string `json:"redirect_url"`
	AttemptID   string `json:"attempt_id"`
	CheckoutID  string `json:"checkout_id"`
}

// --- Handlers ---

// CreateCheckout handles POST /checkout
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req CreateCheckoutRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	lines := make([]domain.CheckoutLine, len(req.LineItems))
	for i, l := range req.LineItems {
		lines[i] = domain.CheckoutLine{VariantID: l.VariantID, Quantity: l.Quantity}
	}

	result, err := h.orchestrator.CreateCheckout(r.Context(), lines)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, CreateCheckoutResponse{
		WebURL:        result.RedirectURL,
		CartID:        result.CartID,
		TotalQuantity: result.TotalQuantity,
		Cost:          result.Cost,
	})
}

// CheckoutCart handles POST /api/v1/cart/checkout. Browsers are redirected with
// 303; other clients get the URL as JSON.
func (h *CheckoutHandler) CheckoutCart(w http.ResponseWriter, r *http.Request) {
	result, err := h.orchestrator.CheckoutCart(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if httputil.PrefersHTML(r) {
		http.Redirect(w, r, result.RedirectURL, http.StatusSeeOther)
		return
	}
	httputil.WriteData(w, http.StatusOK, RedirectResponse{
		RedirectURL: result.RedirectURL,
		AttemptID:   result.AttemptID,
		CheckoutID:  result.CartID,
	})
}

// GetVariants handles GET /get-variants?productId=
func (h *CheckoutHandler) GetVariants(w http.ResponseWriter, r *http.Request) {
	pv, err := h.resolver.Variants(r.Context(), r.URL.Query().Get("productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, pv)
}
