package domain

import (
	"errors"
	"fmt"
	"time"
)

// CheckoutState is the state of one checkout attempt.
type CheckoutState string

// Checkout attempt states.
const (
	StateIdle        CheckoutState = "idle"
	StateResolving   CheckoutState = "resolving"
	StateResolved    CheckoutState = "resolved"
	StateSubmitting  CheckoutState = "submitting"
	StateRedirecting CheckoutState = "redirecting"
	StateFailed      CheckoutState = "failed"
)

// ErrIllegalTransition is returned when an attempt is moved along an edge the
// state machine does not have.
var ErrIllegalTransition = errors.New("illegal checkout state transition")

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	StateIdle:       {StateResolving},
	StateResolving:  {StateResolved, StateFailed},
	StateResolved:   {StateSubmitting},
	StateSubmitting: {StateRedirecting, StateFailed},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to CheckoutState) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StateChange records one transition of an attempt.
type StateChange struct {
	From CheckoutState `json:"from"`
	To   CheckoutState `json:"to"`
	At   time.Time     `json:"at"`
}

// CheckoutAttempt tracks one run of the checkout workflow. Attempts are never
// persisted; a retry starts a fresh attempt and re-resolves every line.
type CheckoutAttempt struct {
	ID            string            `json:"id"`
	SessionID     string            `json:"session_id,omitempty"`
	State         CheckoutState     `json:"state"`
	Lines         []ResolvedLine    `json:"lines,omitempty"`
	Failures      map[string]string `json:"failures,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	RedirectURL   string            `json:"redirect_url,omitempty"`
	History       []StateChange     `json:"history,omitempty"`
	StartedAt     time.Time         `json:"started_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewCheckoutAttempt creates an attempt in the idle state.
func NewCheckoutAttempt(id, sessionID string, now time.Time) *CheckoutAttempt {
	return &CheckoutAttempt{
		ID:        id,
		SessionID: sessionID,
		State:     StateIdle,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the attempt to the given state.
func (a *CheckoutAttempt) Transition(to CheckoutState, now time.Time) error {
	if !CanTransition(a.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, a.State, to)
	}
	a.History = append(a.History, StateChange{From: a.State, To: to, At: now})
	a.State = to
	a.UpdatedAt = now
	return nil
}

// Fail moves the attempt to failed and records why.
func (a *CheckoutAttempt) Fail(reason string, now time.Time) error {
	if err := a.Transition(StateFailed, now); err != nil {
		return err
	}
	a.FailureReason = reason
	return nil
}

// IsTerminal reports whether the attempt has finished.
func (a *CheckoutAttempt) IsTerminal() bool {
	return a.State == StateRedirecting || a.State == StateFailed
}

// TotalQuantity sums the quantities of the resolved lines.
func (a *CheckoutAttempt) TotalQuantity() int {
	var n int
	for _, l := range a.Lines {
		n += l.Quantity
	}
	return n
}

// ResolvedLine is a cart line carrying a hard variant reference, ready to submit.
type ResolvedLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	VariantID   string `json:"variant_id"`
	Quantity    int    `json:"quantity"`
}

// CheckoutLine is one (variant, quantity) pair sent to checkout creation.
type CheckoutLine struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// Money is an amount as reported by the commerce platform.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// CheckoutCost is the cost summary of a created checkout.
type CheckoutCost struct {
	SubtotalAmount Money `json:"subtotalAmount"`
	TotalAmount    Money `json:"totalAmount"`
}

// CheckoutResult is a checkout created on the commerce platform.
type CheckoutResult struct {
	AttemptID     string       `json:"attemptId,omitempty"`
	CartID        string       `json:"cartId"`
	WebURL        string       `json:"webUrl"`
	RedirectURL   string       `json:"redirectUrl,omitempty"`
	TotalQuantity int          `json:"totalQuantity"`
	Cost          CheckoutCost `json:"cost"`
}
