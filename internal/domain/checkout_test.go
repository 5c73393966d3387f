package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ============================================================================
// CheckoutAttempt state machine Tests
// ============================================================================

func TestAttempt_HappyPath(t *testing.T) {
	a := NewCheckoutAttempt("att-1", "sess-1", t0)
	assert.Equal(t, StateIdle, a.State)

	for _, s := range []CheckoutState{StateResolving, StateResolved, StateSubmitting, StateRedirecting} {
		require.NoError(t, a.Transition(s, t0.Add(time.Second)))
	}
	assert.True(t, a.IsTerminal())
	assert.Len(t, a.History, 4)
	assert.Equal(t, StateIdle, a.History[0].From)
}

func TestAttempt_FailFromResolvingAndSubmitting(t *testing.T) {
	a := NewCheckoutAttempt("att-1", "", t0)
	require.NoError(t, a.Transition(StateResolving, t0))
	require.NoError(t, a.Fail("variant lookup failed", t0))
	assert.Equal(t, StateFailed, a.State)
	assert.Equal(t, "variant lookup failed", a.FailureReason)

	b := NewCheckoutAttempt("att-2", "", t0)
	require.NoError(t, b.Transition(StateResolving, t0))
	require.NoError(t, b.Transition(StateResolved, t0))
	require.NoError(t, b.Transition(StateSubmitting, t0))
	require.NoError(t, b.Fail("gateway error", t0))
	assert.True(t, b.IsTerminal())
}

func TestAttempt_IllegalTransitions(t *testing.T) {
	tests := []struct {
		from, to CheckoutState
	}{
		{StateIdle, StateSubmitting},
		{StateIdle, StateFailed},
		{StateResolved, StateFailed},
		{StateResolving, StateRedirecting},
		{StateRedirecting, StateIdle},
		{StateFailed, StateResolving},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			a := &CheckoutAttempt{State: tt.from}
			err := a.Transition(tt.to, t0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIllegalTransition))
			assert.Equal(t, tt.from, a.State)
		})
	}
}

func TestAttempt_TotalQuantity(t *testing.T) {
	a := &CheckoutAttempt{Lines: []ResolvedLine{{Quantity: 2}, {Quantity: 3}}}
	assert.Equal(t, 5, a.TotalQuantity())
}

// ============================================================================
// Variant Tests
// ============================================================================

func TestVariant_HasOptionCaseInsensitive(t *testing.T) {
	v := Variant{Options: []VariantOption{{Name: "Colour", Value: "Red"}, {Name: "SIZE", Value: "m"}}}

	assert.True(t, v.HasOption("red", "color", "colour"))
	assert.True(t, v.HasOption("M", "size"))
	assert.False(t, v.HasOption("Blue", "color", "colour"))
	assert.False(t, v.HasOption("M", "material"))
}

// ============================================================================
// ResolutionError Tests
// ============================================================================

func TestResolutionError_UnwrapAndReason(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := &ResolutionError{ProductID: "gid://shopify/Product/7", Kind: ResolutionLookupFailed, Err: cause}

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "gid://shopify/Product/7")
	assert.Equal(t, "variant lookup failed", err.Reason())
	assert.Equal(t, "product has no purchasable variants", (&ResolutionError{Kind: ResolutionNoVariants}).Reason())
}
