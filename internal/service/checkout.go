package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	"github.com/utafrali/giftbox-storefront/internal/event"
	apperrors "github.com/utafrali/giftbox-storefront/pkg/errors"
	"github.com/utafrali/giftbox-storefront/pkg/logger"
	"github.com/utafrali/giftbox-storefront/pkg/tracing"
	"github.com/utafrali/giftbox-storefront/pkg/validator"
)

// Checkout defaults.
const (
	DefaultResolveConcurrency = 8
	DefaultSubmitTimeout      = 15 * time.Second
)

// Terminal outcomes recorded in storefront_checkout_attempts_total.
const (
	OutcomeRedirected       = "redirected"
	OutcomeResolutionFailed = "resolution_failed"
	OutcomeRejected         = "rejected"
	OutcomeGatewayError     = "gateway_error"
	OutcomeMisconfigured    = "misconfigured"
)

var checkoutAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_checkout_attempts_total",
	Help: "Checkout attempts by terminal outcome.",
}, []string{"outcome"})

// LineResolver resolves one cart line to a hard variant id.
type LineResolver interface {
	Resolve(ctx context.Context, item domain.LineItem) (string, error)
}

// CheckoutCreator creates a checkout on the commerce platform.
type CheckoutCreator interface {
	CreateCart(ctx context.Context, lines []domain.CheckoutLine) (*domain.CheckoutResult, error)
}

// CheckoutConfig tunes the orchestrator.
type CheckoutConfig struct {
	ResolveConcurrency int
	SubmitTimeout      time.Duration
	// ReturnURL, when set, is passed to the checkout page as return_to.
	ReturnURL string
}

// CheckoutOrchestrator turns a cart snapshot into a single checkout. All lines
// are resolved concurrently; any failure aborts the attempt before anything is
// submitted.
type CheckoutOrchestrator struct {
	carts    *CartService
	resolver LineResolver
	gateway  CheckoutCreator
	producer *event.Producer
	logger   *slog.Logger
	tracer   trace.Tracer
	cfg      CheckoutConfig
	now      func() time.Time
	newID    func() string
}

// NewCheckoutOrchestrator creates a new checkout orchestrator.
func NewCheckoutOrchestrator(
	carts *CartService,
	resolver LineResolver,
	gateway CheckoutCreator,
	producer *event.Producer,
	logger *slog.Logger,
	cfg CheckoutConfig,
) *CheckoutOrchestrator {
	if cfg.ResolveConcurrency <= 0 {
		cfg.ResolveConcurrency = DefaultResolveConcurrency
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	return &CheckoutOrchestrator{
		carts:    carts,
		resolver: resolver,
		gateway:  gateway,
		producer: producer,
		logger:   logger,
		tracer:   tracing.Tracer("storefront/checkout"),
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
}

// CheckoutCart checks out the session's current cart. The cart itself is left
// as it is regardless of the outcome.
func (o *CheckoutOrchestrator) CheckoutCart(ctx context.Context, sessionID string) (*domain.CheckoutResult, error) {
	cart, err := o.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, sessionID, cart.Items)
}

// Checkout checks out the given items.
func (o *CheckoutOrchestrator) Checkout(ctx context.Context, items []domain.LineItem) (*domain.CheckoutResult, error) {
	return o.run(ctx, "", items)
}

// CreateCheckout submits lines that already carry variant ids. Lines pass
// through resolution without any lookup.
func (o *CheckoutOrchestrator) CreateCheckout(ctx context.Context, lines []domain.CheckoutLine) (*domain.CheckoutResult, error) {
	if len(lines) == 0 {
		return nil, apperrors.InvalidInput("lineItems must contain at least one item")
	}
	items := make([]domain.LineItem, 0, len(lines))
	for i, l := range lines {
		if !validator.IsVariantGID(l.VariantID) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("lineItems[%d].variantId must be a product variant id", i))
		}
		if l.Quantity < 1 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("lineItems[%d].quantity must be at least 1", i))
		}
		items = append(items, domain.LineItem{ProductID: l.VariantID, VariantID: l.VariantID, Quantity: l.Quantity})
	}
	return o.run(ctx, "", items)
}

func (o *CheckoutOrchestrator) run(ctx context.Context, sessionID string, items []domain.LineItem) (result *domain.CheckoutResult, err error) {
	if len(items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	attempt := domain.NewCheckoutAttempt(o.newID(), sessionID, o.now())
	ctx = logger.WithCheckoutAttempt(ctx, attempt.ID)
	log := logger.WithContext(ctx, o.logger)

	ctx, span := o.tracer.Start(ctx, "checkout.attempt", trace.WithAttributes(
		attribute.String("storefront.checkout_attempt", attempt.ID),
		attribute.Int("storefront.line_count", len(items)),
	))
	defer func() { tracing.EndSpan(span, err) }()

	lines := dedupe(items)

	if err := o.transition(ctx, log, attempt, domain.StateResolving); err != nil {
		return nil, err
	}

	resolved, failures, names, cause := o.resolveAll(ctx, lines)
	if len(failures) > 0 {
		appErr := apperrors.ResolutionFailed(failures, names)
		outcome := OutcomeResolutionFailed
		if cause != nil {
			// A missing store configuration fails every lookup the same way.
			appErr = cause
			outcome = OutcomeMisconfigured
		}
		attempt.Failures = failures
		o.fail(ctx, log, attempt, outcome, appErr)
		return nil, appErr
	}

	for _, l := range resolved {
		if !validator.IsVariantGID(l.VariantID) {
			failures := map[string]string{l.ProductID: (&domain.ResolutionError{Kind: domain.ResolutionInvalidFormat}).Reason()}
			appErr := apperrors.ResolutionFailed(failures, map[string]string{l.ProductID: l.ProductName})
			attempt.Failures = failures
			o.fail(ctx, log, attempt, OutcomeResolutionFailed, appErr)
			return nil, appErr
		}
	}
	attempt.Lines = resolved

	if err := o.transition(ctx, log, attempt, domain.StateResolved); err != nil {
		return nil, err
	}
	if err := o.transition(ctx, log, attempt, domain.StateSubmitting); err != nil {
		return nil, err
	}

	result, err = o.submit(ctx, resolved)
	if err != nil {
		o.fail(ctx, log, attempt, outcomeOf(err), err)
		return nil, err
	}

	redirect, err := redirectURL(result.WebURL, o.cfg.ReturnURL)
	if err != nil {
		err = apperrors.MalformedResponse(err)
		o.fail(ctx, log, attempt, OutcomeGatewayError, err)
		return nil, err
	}
	result.AttemptID = attempt.ID
	result.RedirectURL = redirect
	attempt.RedirectURL = redirect

	if err := o.transition(ctx, log, attempt, domain.StateRedirecting); err != nil {
		return nil, err
	}
	checkoutAttempts.WithLabelValues(OutcomeRedirected).Inc()

	if err := o.producer.PublishCheckoutRedirected(ctx, attempt, result); err != nil {
		log.ErrorContext(ctx, "failed to publish checkout.redirected event", slog.String("error", err.Error()))
	}

	log.InfoContext(ctx, "checkout created",
		slog.String("cart_id", result.CartID),
		slog.Int("total_quantity", result.TotalQuantity),
		slog.Int("lines", len(resolved)),
	)
	return result, nil
}

// resolveAll resolves every line concurrently and waits for all of them. It
// returns the resolved lines in input order, or the failures keyed by product
// id. cause is set when a failure stems from missing configuration.
func (o *CheckoutOrchestrator) resolveAll(ctx context.Context, lines []domain.LineItem) ([]domain.ResolvedLine, map[string]string, map[string]string, *apperrors.AppError) {
	type outcome struct {
		id  string
		err error
	}
	outcomes := make([]outcome, len(lines))

	var g errgroup.Group
	g.SetLimit(o.cfg.ResolveConcurrency)
	for i, line := range lines {
		g.Go(func() error {
			id, err := o.resolver.Resolve(ctx, line)
			outcomes[i] = outcome{id: id, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var (
		failures map[string]string
		names    map[string]string
		cause    *apperrors.AppError
	)
	resolved := make([]domain.ResolvedLine, 0, len(lines))
	for i, line := range lines {
		out := outcomes[i]
		if out.err != nil {
			if failures == nil {
				failures = make(map[string]string)
				names = make(map[string]string)
			}
			failures[line.ProductID] = failureReason(out.err)
			names[line.ProductID] = line.Name
			var appErr *apperrors.AppError
			if cause == nil && errors.Is(out.err, apperrors.ErrMisconfigured) && errors.As(out.err, &appErr) {
				cause = appErr
			}
			continue
		}
		resolved = append(resolved, domain.ResolvedLine{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			VariantID:   out.id,
			Quantity:    line.Quantity,
		})
	}
	return resolved, failures, names, cause
}

func (o *CheckoutOrchestrator) submit(ctx context.Context, resolved []domain.ResolvedLine) (result *domain.CheckoutResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.SubmitTimeout)
	defer cancel()

	ctx, span := o.tracer.Start(ctx, "checkout.submit", trace.WithAttributes(
		attribute.Int("storefront.line_count", len(resolved)),
	))
	defer func() { tracing.EndSpan(span, err) }()

	lines := make([]domain.CheckoutLine, len(resolved))
	for i, l := range resolved {
		lines[i] = domain.CheckoutLine{VariantID: l.VariantID, Quantity: l.Quantity}
	}

	result, err = o.gateway.CreateCart(ctx, lines)
	if err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			err = apperrors.Gateway(err)
		}
		return nil, err
	}
	return result, nil
}

func (o *CheckoutOrchestrator) transition(ctx context.Context, log *slog.Logger, a *domain.CheckoutAttempt, to domain.CheckoutState) error {
	from := a.State
	if err := a.Transition(to, o.now()); err != nil {
		log.ErrorContext(ctx, "illegal checkout transition", slog.String("error", err.Error()))
		return apperrors.Internal(err)
	}
	log.InfoContext(ctx, "checkout state changed",
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	return nil
}

func (o *CheckoutOrchestrator) fail(ctx context.Context, log *slog.Logger, a *domain.CheckoutAttempt, outcome string, cause error) {
	if a.IsTerminal() {
		log.DebugContext(ctx, "checkout attempt already finished", slog.String("state", string(a.State)))
		return
	}
	from := a.State
	if err := a.Fail(cause.Error(), o.now()); err != nil {
		log.ErrorContext(ctx, "illegal checkout transition", slog.String("error", err.Error()))
		return
	}
	checkoutAttempts.WithLabelValues(outcome).Inc()
	log.WarnContext(ctx, "checkout failed",
		slog.String("from", string(from)),
		slog.String("outcome", outcome),
		slog.String("error", cause.Error()),
	)

	if err := o.producer.PublishCheckoutFailed(ctx, a); err != nil {
		log.ErrorContext(ctx, "failed to publish checkout.failed event", slog.String("error", err.Error()))
	}
}

// dedupe merges lines for the same product, summing quantities. The first
// line's selection and variant reference win.
func dedupe(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		q := it.Quantity
		if q < 1 {
			q = 1
		}
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += q
			continue
		}
		it.Quantity = q
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}

func failureReason(err error) string {
	var re *domain.ResolutionError
	if errors.As(err, &re) {
		return re.Reason()
	}
	return "variant lookup failed"
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrGatewayRejected):
		return OutcomeRejected
	case errors.Is(err, apperrors.ErrMisconfigured):
		return OutcomeMisconfigured
	default:
		return OutcomeGatewayError
	}
}

// redirectURL appends return_to to the checkout URL when a return URL is set.
func redirectURL(webURL, returnURL string) (string, error) {
	u, err := url.Parse(webURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid checkout url %q", webURL)
	}
	if returnURL == "" {
		return u.String(), nil
	}
	q := u.Query()
	q.Set("return_to", returnURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
