package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// recordingWriter captures written messages.
type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

// --- Event ---

func TestTopic(t *testing.T) {
	assert.Equal(t, "storefront.cart.updated", Topic("cart", "updated"))
}

func TestNewEvent_Fields(t *testing.T) {
	type payload struct {
		SessionID string `json:"session_id"`
		Items     int    `json:"items"`
	}

	event, err := NewEvent("cart.updated", "cart-1", "cart", "storefront", payload{SessionID: "s-1", Items: 2})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "cart.updated", event.EventType)
	assert.Equal(t, "cart-1", event.AggregateID)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got payload
	require.NoError(t, json.Unmarshal(event.Data, &got))
	assert.Equal(t, "s-1", got.SessionID)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("x", "a", "t", "s", make(chan int))
	require.Error(t, err)
}

func TestEvent_WithMetadata_SkipsEmpty(t *testing.T) {
	event, err := NewEvent("x", "a", "t", "s", nil)
	require.NoError(t, err)

	event.WithMetadata("outcome", "redirected").WithMetadata("reason", "")
	assert.Equal(t, map[string]string{"outcome": "redirected"}, event.Metadata)
}

func TestEventMarshal(t *testing.T) {
	event, err := NewEvent("checkout.failed", "att-1", "checkout_attempt", "storefront", map[string]int{"lines": 3})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	raw, err := event.Marshal()
	require.NoError(t, err)

	var restored Event
	require.NoError(t, json.Unmarshal(raw, &restored))
	assert.Equal(t, event.EventID, restored.EventID)
	assert.Equal(t, "corr-1", restored.CorrelationID)
	assert.JSONEq(t, `{"lines":3}`, string(restored.Data))
}

// --- Producer ---

func TestProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, nil, testLogger())

	event, err := NewEvent("cart.updated", "cart-9", "cart", "storefront", map[string]string{"k": "v"})
	require.NoError(t, err)
	event.WithCorrelationID("corr-9")

	before := testutil.ToFloat64(ProducerMessagesPublished.WithLabelValues("storefront.cart.updated"))
	require.NoError(t, p.Publish(context.Background(), "storefront.cart.updated", event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "storefront.cart.updated", msg.Topic)
	assert.Equal(t, []byte("cart-9"), msg.Key)

	carrier := NewHeaderCarrier(&msg.Headers)
	assert.Equal(t, "cart.updated", carrier.Get("event_type"))
	assert.Equal(t, "storefront", carrier.Get("source"))
	assert.Equal(t, "corr-9", carrier.Get("correlation_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)

	after := testutil.ToFloat64(ProducerMessagesPublished.WithLabelValues("storefront.cart.updated"))
	assert.Equal(t, before+1, after)
}

func TestProducer_PublishError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := NewProducerWithWriter(w, nil, testLogger())

	event, err := NewEvent("cart.cleared", "cart-1", "cart", "storefront", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), "storefront.cart.cleared", event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storefront.cart.cleared")
	assert.Equal(t, float64(1), testutil.ToFloat64(ProducerMessagesFailed.WithLabelValues("storefront.cart.cleared")))
}

func TestProducer_InjectsTraceContext(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, nil, testLogger())

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	event, err := NewEvent("checkout.redirected", "att-1", "checkout_attempt", "storefront", nil)
	require.NoError(t, err)

	// Use an explicit propagator so the test does not depend on global state.
	prop := propagation.TraceContext{}
	msg := kafka.Message{}
	prop.Inject(ctx, NewHeaderCarrier(&msg.Headers))
	assert.Contains(t, NewHeaderCarrier(&msg.Headers).Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")

	require.NoError(t, p.Publish(ctx, "storefront.checkout.redirected", event))
}

func TestProducer_Close(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, NewProducerWithWriter(w, nil, testLogger()).Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), "t", &Event{}))
}

// --- HeaderCarrier ---

func TestHeaderCarrier_SetGetKeys(t *testing.T) {
	headers := []kafka.Header{{Key: "existing", Value: []byte("v1")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "v1", c.Get("existing"))
	assert.Empty(t, c.Get("missing"))

	c.Set("existing", "v2")
	c.Set("new", "v3")
	assert.Equal(t, "v2", c.Get("existing"))
	assert.ElementsMatch(t, []string{"existing", "new"}, c.Keys())
	assert.Len(t, headers, 2)
}
