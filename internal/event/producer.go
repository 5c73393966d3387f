package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	pkgkafka "github.com/utafrali/giftbox-storefront/pkg/kafka"
	"github.com/utafrali/giftbox-storefront/pkg/logger"
)

// Kafka topics for storefront domain events.
var (
	TopicCartUpdated        = pkgkafka.Topic("cart", "updated")
	TopicCartCleared        = pkgkafka.Topic("cart", "cleared")
	TopicCheckoutRedirected = pkgkafka.Topic("checkout", "redirected")
	TopicCheckoutFailed     = pkgkafka.Topic("checkout", "failed")
)

// Aggregate types.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeCheckout = "checkout_attempt"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront-bridge"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID   string         `json:"session_id"`
	CartID      string         `json:"cart_id"`
	Items       []CartItemData `json:"items"`
	ItemCount   int            `json:"item_count"`
	TotalAmount int64          `json:"total_amount"`
	Currency    string         `json:"currency"`
	Version     int            `json:"version"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID     string `json:"product_id"`
	VariantID     string `json:"variant_id,omitempty"`
	Name          string `json:"name"`
	UnitPrice     int64  `json:"unit_price"`
	Quantity      int    `json:"quantity"`
	SelectedSize  string `json:"selected_size,omitempty"`
	SelectedColor string `json:"selected_color,omitempty"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// CheckoutData is the payload for checkout.redirected and checkout.failed.
type CheckoutData struct {
	AttemptID     string                `json:"attempt_id"`
	SessionID     string                `json:"session_id,omitempty"`
	State         domain.CheckoutState  `json:"state"`
	Lines         []domain.ResolvedLine `json:"lines,omitempty"`
	TotalQuantity int                   `json:"total_quantity"`
	CartID        string                `json:"cart_id,omitempty"`
	RedirectURL   string                `json:"redirect_url,omitempty"`
	FailureReason string                `json:"failure_reason,omitempty"`
	Failures      map[string]string     `json:"failures,omitempty"`
}

// Producer publishes storefront domain events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ProductID:     item.ProductID,
			VariantID:     item.VariantID,
			Name:          item.Name,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			SelectedSize:  item.SelectedSize,
			SelectedColor: item.SelectedColor,
		}
	}

	data := CartUpdatedData{
		SessionID:   cart.SessionID,
		CartID:      cart.ID,
		Items:       items,
		ItemCount:   cart.ItemCount(),
		TotalAmount: cart.TotalAmount(),
		Currency:    cart.Currency,
		Version:     cart.Version,
	}
	return p.publish(ctx, TopicCartUpdated, cart.SessionID, AggregateTypeCart, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	return p.publish(ctx, TopicCartCleared, sessionID, AggregateTypeCart, CartClearedData{SessionID: sessionID})
}

// PublishCheckoutRedirected publishes a checkout.redirected event for a
// successful attempt.
func (p *Producer) PublishCheckoutRedirected(ctx context.Context, attempt *domain.CheckoutAttempt, result *domain.CheckoutResult) error {
	data := checkoutData(attempt)
	if result != nil {
		data.CartID = result.CartID
	}
	return p.publish(ctx, TopicCheckoutRedirected, attempt.ID, AggregateTypeCheckout, data)
}

// PublishCheckoutFailed publishes a checkout.failed event.
func (p *Producer) PublishCheckoutFailed(ctx context.Context, attempt *domain.CheckoutAttempt) error {
	return p.publish(ctx, TopicCheckoutFailed, attempt.ID, AggregateTypeCheckout, checkoutData(attempt))
}

func checkoutData(a *domain.CheckoutAttempt) CheckoutData {
	return CheckoutData{
		AttemptID:     a.ID,
		SessionID:     a.SessionID,
		State:         a.State,
		Lines:         a.Lines,
		TotalQuantity: a.TotalQuantity(),
		RedirectURL:   a.RedirectURL,
		FailureReason: a.FailureReason,
		Failures:      a.Failures,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).
		WithMetadata("cart_session", logger.CartSessionFromContext(ctx))

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
