package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	"github.com/utafrali/giftbox-storefront/internal/event"
	"github.com/utafrali/giftbox-storefront/internal/repository"
	apperrors "github.com/utafrali/giftbox-storefront/pkg/errors"
	"github.com/utafrali/giftbox-storefront/pkg/logger"
)

// DefaultCurrency is used for carts created before any priced item is added.
const DefaultCurrency = "USD"

// AddItemInput holds the parameters for adding an item to the cart.
type AddItemInput struct {
	ProductID     string   `json:"product_id" validate:"required,product_ref"`
	Name          string   `json:"name" validate:"required,max=255"`
	UnitPrice     int64    `json:"unit_price" validate:"gte=0,lte=10000000"`
	Currency      string   `json:"currency" validate:"omitempty,len=3"`
	ImageURL      string   `json:"image_url" validate:"omitempty,url"`
	Images        []string `json:"images" validate:"omitempty,max=20,dive,url"`
	Quantity      int      `json:"quantity" validate:"gte=0,lte=100"`
	SelectedSize  string   `json:"selected_size" validate:"max=64"`
	SelectedColor string   `json:"selected_color" validate:"max=64"`
	VariantID     string   `json:"variant_id" validate:"omitempty,startswith=gid://shopify/"`
}

// UpdateItemInput holds the parameters for changing a line. A quantity of zero
// or less removes the line. Nil selections keep the stored values.
type UpdateItemInput struct {
	Quantity      *int    `json:"quantity" validate:"required,lte=100"`
	SelectedSize  *string `json:"selected_size" validate:"omitempty,max=64"`
	SelectedColor *string `json:"selected_color" validate:"omitempty,max=64"`
}

// CartService owns the per-session cart. Every mutation loads the cart, applies
// the change to a copy and saves it with an optimistic version check, so a
// failed or conflicting write leaves the stored cart untouched.
type CartService struct {
	repo     repository.CartRepository
	producer *event.Producer
	logger   *slog.Logger
	cartTTL  time.Duration
	now      func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, producer *event.Producer, logger *slog.Logger, cartTTL time.Duration) *CartService {
	return &CartService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		cartTTL:  cartTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetCart retrieves the session's cart. A session with no cart gets an empty,
// unsaved one.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("cart session is required")
	}
	return s.getOrCreateCart(ctx, sessionID)
}

// AddItem adds an item, merging into an existing line for the same product.
func (s *CartService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("cart session is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	cart, err := s.mutate(ctx, sessionID, func(c *domain.Cart) (bool, error) {
		currency := strings.ToUpper(input.Currency)
		if currency == "" {
			currency = c.Currency
		}
		switch {
		case c.IsEmpty():
			c.Currency = currency
		case currency != c.Currency:
			return false, apperrors.InvalidInput(fmt.Sprintf("item currency %s does not match cart currency %s", currency, c.Currency))
		}

		err := c.Add(domain.LineItem{
			ProductID:     input.ProductID,
			Name:          input.Name,
			UnitPrice:     input.UnitPrice,
			Currency:      currency,
			ImageURL:      input.ImageURL,
			Images:        input.Images,
			Quantity:      input.Quantity,
			SelectedSize:  strings.TrimSpace(input.SelectedSize),
			SelectedColor: strings.TrimSpace(input.SelectedColor),
			VariantID:     input.VariantID,
		})
		return err == nil, err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("cart_session", sessionID),
		slog.String("product_id", input.ProductID),
		slog.Int("quantity", input.Quantity),
	)
	return cart, nil
}

// UpdateItem sets quantity and selections on the line for productID. An absent
// line leaves the cart unchanged.
func (s *CartService) UpdateItem(ctx context.Context, sessionID, productID string, input UpdateItemInput) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("cart session is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Quantity == nil {
		return nil, apperrors.InvalidInput("quantity is required")
	}

	cart, err := s.mutate(ctx, sessionID, func(c *domain.Cart) (bool, error) {
		idx := c.FindItemIndex(productID)
		if idx < 0 {
			return false, nil
		}
		size, color := c.Items[idx].SelectedSize, c.Items[idx].SelectedColor
		if input.SelectedSize != nil {
			size = strings.TrimSpace(*input.SelectedSize)
		}
		if input.SelectedColor != nil {
			color = strings.TrimSpace(*input.SelectedColor)
		}
		return c.UpdateQuantity(productID, *input.Quantity, size, color)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item updated",
		slog.String("cart_session", sessionID),
		slog.String("product_id", productID),
		slog.Int("quantity", *input.Quantity),
	)
	return cart, nil
}

// RemoveItem removes the line for productID. Removing an absent line is not an error.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("cart session is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	cart, err := s.mutate(ctx, sessionID, func(c *domain.Cart) (bool, error) {
		return c.Remove(productID), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("cart_session", sessionID),
		slog.String("product_id", productID),
	)
	return cart, nil
}

// ClearCart deletes the session's cart.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.InvalidInput("cart session is required")
	}

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("cart_session", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared", slog.String("cart_session", sessionID))
	return nil
}

// mutate applies fn to a copy of the session's cart and saves it when fn
// reports a change. The unchanged cart is returned when nothing changed.
func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(*domain.Cart) (bool, error)) (*domain.Cart, error) {
	current, err := s.getOrCreateCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	changed, err := fn(next)
	if err != nil {
		return nil, err
	}
	if !changed {
		return current, nil
	}

	now := s.now()
	next.UpdatedAt = now
	next.ExpiresAt = now.Add(s.cartTTL)

	ok, err := s.repo.SaveIfVersion(ctx, next, current.Version)
	if err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		return nil, apperrors.Conflict("cart was modified concurrently, please retry")
	}

	if err := s.producer.PublishCartUpdated(ctx, next); err != nil {
		logger.WithContext(ctx, s.logger).ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("cart_session", sessionID),
			slog.String("error", err.Error()),
		)
	}
	return next, nil
}

func (s *CartService) getOrCreateCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(sessionID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) newEmptyCart(sessionID string) *domain.Cart {
	now := s.now()
	return &domain.Cart{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Items:     []domain.LineItem{},
		Currency:  DefaultCurrency,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.cartTTL),
	}
}
