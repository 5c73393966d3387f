package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	pkgkafka "github.com/utafrali/giftbox-storefront/pkg/kafka"
	"github.com/utafrali/giftbox-storefront/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type recordingPublisher struct {
	events []published
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, e *pkgkafka.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, published{topic: topic, event: e})
	return nil
}

func newTestProducer() (*Producer, *recordingPublisher) {
	rec := &recordingPublisher{}
	return NewProducer(rec, slog.New(slog.NewTextHandler(io.Discard, nil))), rec
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "storefront.cart.updated", TopicCartUpdated)
	assert.Equal(t, "storefront.cart.cleared", TopicCartCleared)
	assert.Equal(t, "storefront.checkout.redirected", TopicCheckoutRedirected)
	assert.Equal(t, "storefront.checkout.failed", TopicCheckoutFailed)
}

func TestPublishCartUpdated(t *testing.T) {
	p, rec := newTestProducer()
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	ctx = logger.WithCartSession(ctx, "sess-1")

	cart := &domain.Cart{ID: "c1", SessionID: "sess-1", Currency: "USD", Version: 3, Items: []domain.LineItem{
		{ProductID: "mug", Name: "Mug", UnitPrice: 1000, Quantity: 2},
	}}
	require.NoError(t, p.PublishCartUpdated(ctx, cart))

	require.Len(t, rec.events, 1)
	got := rec.events[0]
	assert.Equal(t, TopicCartUpdated, got.topic)
	assert.Equal(t, "sess-1", got.event.AggregateID)
	assert.Equal(t, "corr-1", got.event.CorrelationID)
	assert.Equal(t, "sess-1", got.event.Metadata["cart_session"])

	var data CartUpdatedData
	require.NoError(t, json.Unmarshal(got.event.Data, &data))
	assert.Equal(t, int64(2000), data.TotalAmount)
	assert.Equal(t, 2, data.ItemCount)
	assert.Equal(t, 3, data.Version)
}

func TestPublishCheckoutFailed(t *testing.T) {
	p, rec := newTestProducer()
	attempt := &domain.CheckoutAttempt{
		ID:            "att-1",
		State:         domain.StateFailed,
		FailureReason: "RESOLUTION_FAILED",
		Failures:      map[string]string{"gid://shopify/Product/2": "variant lookup failed"},
	}
	require.NoError(t, p.PublishCheckoutFailed(context.Background(), attempt))

	require.Len(t, rec.events, 1)
	assert.Equal(t, TopicCheckoutFailed, rec.events[0].topic)
	var data CheckoutData
	require.NoError(t, json.Unmarshal(rec.events[0].event.Data, &data))
	assert.Equal(t, domain.StateFailed, data.State)
	assert.Equal(t, "variant lookup failed", data.Failures["gid://shopify/Product/2"])
}

func TestPublishCheckoutRedirected(t *testing.T) {
	p, rec := newTestProducer()
	attempt := &domain.CheckoutAttempt{ID: "att-2", State: domain.StateRedirecting, Lines: []domain.ResolvedLine{{Quantity: 2}}}
	require.NoError(t, p.PublishCheckoutRedirected(context.Background(), attempt, &domain.CheckoutResult{CartID: "gid://shopify/Cart/1"}))

	var data CheckoutData
	require.NoError(t, json.Unmarshal(rec.events[0].event.Data, &data))
	assert.Equal(t, "gid://shopify/Cart/1", data.CartID)
	assert.Equal(t, 2, data.TotalQuantity)
}

func TestPublish_WrapsError(t *testing.T) {
	p, rec := newTestProducer()
	rec.err = errors.New("broker down")

	err := p.PublishCartCleared(context.Background(), "sess-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storefront.cart.cleared")
	assert.ErrorIs(t, err, rec.err)
}
