package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	apperrors "github.com/utafrali/giftbox-storefront/pkg/errors"
	"github.com/utafrali/giftbox-storefront/pkg/httpclient"
	"github.com/utafrali/giftbox-storefront/pkg/tracing"
	"github.com/utafrali/giftbox-storefront/pkg/validator"
)

// TokenHeader carries the public Storefront API access token.
const TokenHeader = "X-Shopify-Storefront-Access-Token"

// maxResponseBytes caps how much of a GraphQL response is decoded.
const maxResponseBytes = 8 << 20

var gatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "storefront_gateway_request_duration_seconds",
		Help:    "Storefront GraphQL call latency by operation and outcome",
		Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	},
	[]string{"operation", "outcome"},
)

// Config locates the shop's Storefront API.
type Config struct {
	StoreDomain string
	AccessToken string
	APIVersion  string
}

// Endpoint returns the GraphQL URL for the configured shop. StoreDomain is a
// bare host; an explicit scheme is kept, which is how local mock shops are used.
func (c Config) Endpoint() string {
	base := strings.TrimSuffix(c.StoreDomain, "/")
	if !strings.HasPrefix(base, "https://") && !strings.HasPrefix(base, "http://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/api/%s/graphql.json", base, c.APIVersion)
}

// Validate reports missing settings as CONFIGURATION_ERROR.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.StoreDomain) == "" {
		missing = append(missing, "SHOPIFY_STORE_DOMAIN")
	}
	if strings.TrimSpace(c.AccessToken) == "" {
		missing = append(missing, "SHOPIFY_STOREFRONT_TOKEN")
	}
	if strings.TrimSpace(c.APIVersion) == "" {
		missing = append(missing, "SHOPIFY_API_VERSION")
	}
	if len(missing) > 0 {
		return apperrors.Misconfigured("storefront is not configured: missing " + strings.Join(missing, ", "))
	}
	return nil
}

// Client talks to the Storefront GraphQL API. Every payload is decoded into
// typed structs and validated before it is returned.
type Client struct {
	cfg      Config
	endpoint string
	doer     httpclient.Doer
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewClient creates a client. doer is normally a circuit-breaker wrapped
// httpclient.Client.
func NewClient(cfg Config, doer httpclient.Doer, logger *slog.Logger) *Client {
	return &Client{
		cfg:      cfg,
		endpoint: cfg.Endpoint(),
		doer:     doer,
		logger:   logger,
		tracer:   tracing.Tracer("storefront"),
	}
}

// CheckConfig is a health check for the gateway settings.
func (c *Client) CheckConfig(context.Context) error {
	return c.cfg.Validate()
}

// ProductByID fetches a product by its GID.
func (c *Client) ProductByID(ctx context.Context, id string) (*Product, error) {
	data, err := execute[productData](ctx, c, "ProductByID", productByIDQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return checkProduct(data.Product, id)
}

// ProductByHandle fetches a product by its URL handle.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*Product, error) {
	data, err := execute[productData](ctx, c, "ProductByHandle", productByHandleQuery, map[string]any{"handle": handle})
	if err != nil {
		return nil, err
	}
	return checkProduct(data.Product, handle)
}

// Product fetches by GID or handle, whichever ref is.
func (c *Client) Product(ctx context.Context, ref string) (*Product, error) {
	if validator.IsProductGID(ref) {
		return c.ProductByID(ctx, ref)
	}
	return c.ProductByHandle(ctx, ref)
}

// SearchProducts runs a product search.
func (c *Client) SearchProducts(ctx context.Context, query string, first int) ([]Product, error) {
	data, err := execute[productsData](ctx, c, "SearchProducts", searchProductsQuery, map[string]any{
		"query": query,
		"first": first,
	})
	if err != nil {
		return nil, err
	}
	if err := checkPayload(data.Products); err != nil {
		return nil, err
	}
	return data.Products.Nodes, nil
}

// CollectionProducts fetches a collection and its first products.
func (c *Client) CollectionProducts(ctx context.Context, handle string, first int) (*Collection, error) {
	data, err := execute[collectionData](ctx, c, "CollectionProducts", collectionProductsQuery, map[string]any{
		"handle": handle,
		"first":  first,
	})
	if err != nil {
		return nil, err
	}
	if data.Collection == nil {
		return nil, apperrors.NotFound("collection", handle)
	}
	if err := checkPayload(data.Collection); err != nil {
		return nil, err
	}
	return data.Collection, nil
}

// CreateCart submits lines through cartCreate. User errors come back as
// GATEWAY_REJECTED with their messages verbatim; a response with neither user
// errors nor a cart is a GATEWAY_ERROR.
func (c *Client) CreateCart(ctx context.Context, lines []domain.CheckoutLine) (*domain.CheckoutResult, error) {
	inputLines := make([]map[string]any, len(lines))
	for i, l := range lines {
		inputLines[i] = map[string]any{"merchandiseId": l.VariantID, "quantity": l.Quantity}
	}

	data, err := execute[cartCreateData](ctx, c, "CartCreate", cartCreateMutation, map[string]any{
		"input": map[string]any{"lines": inputLines},
	})
	if err != nil {
		return nil, err
	}
	if data.CartCreate == nil {
		return nil, apperrors.Gateway(errors.New("cartCreate returned no payload"))
	}
	if len(data.CartCreate.UserErrors) > 0 {
		fields := make(map[string]string, len(data.CartCreate.UserErrors))
		for _, ue := range data.CartCreate.UserErrors {
			key := strings.Join(ue.Field, ".")
			if prev, ok := fields[key]; ok {
				fields[key] = prev + "; " + ue.Message
				continue
			}
			fields[key] = ue.Message
		}
		c.logger.WarnContext(ctx, "cartCreate rejected",
			slog.Int("user_errors", len(data.CartCreate.UserErrors)),
		)
		return nil, apperrors.GatewayRejected(fields)
	}

	cart := data.CartCreate.Cart
	if cart == nil {
		return nil, apperrors.Gateway(errors.New("cartCreate returned no cart"))
	}
	if err := checkPayload(cart); err != nil {
		return nil, err
	}

	return &domain.CheckoutResult{
		CartID:        cart.ID,
		WebURL:        cart.CheckoutURL,
		TotalQuantity: cart.TotalQuantity,
		Cost: domain.CheckoutCost{
			SubtotalAmount: domain.Money(cart.Cost.SubtotalAmount),
			TotalAmount:    domain.Money(cart.Cost.TotalAmount),
		},
	}, nil
}

func checkProduct(p *Product, ref string) (*Product, error) {
	if p == nil {
		return nil, apperrors.NotFound("product", ref)
	}
	if err := checkPayload(p); err != nil {
		return nil, err
	}
	return p, nil
}

// checkPayload validates a decoded payload. The validation detail is flattened
// to text so it is never mistaken for a request validation failure.
func checkPayload(v any) error {
	if err := validator.Validate(v); err != nil {
		return apperrors.MalformedResponse(fmt.Errorf("schema mismatch: %s", err.Error()))
	}
	return nil
}

func execute[T any](ctx context.Context, c *Client, op, query string, vars map[string]any) (data *T, err error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "storefront."+op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("graphql.operation.name", op)))
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = outcomeOf(err)
		}
		gatewayRequestDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}()

	body, err := json.Marshal(graphQLRequest{Query: query, OperationName: op, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(TokenHeader, c.cfg.AccessToken)

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Gateway(fmt.Errorf("%s: %w", op, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpclient.ParseResponseError(resp, "storefront")
	}
	defer func() { _ = resp.Body.Close() }()

	var out graphQLResponse[T]
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, apperrors.MalformedResponse(fmt.Errorf("decode %s response: %w", op, err))
	}

	if len(out.Errors) > 0 {
		msgs := make([]string, len(out.Errors))
		for i, e := range out.Errors {
			msgs[i] = e.Message
		}
		c.logger.WarnContext(ctx, "storefront graphql errors",
			slog.String("operation", op),
			slog.String("errors", strings.Join(msgs, "; ")),
		)
		return nil, apperrors.Gateway(fmt.Errorf("%s graphql errors: %s", op, strings.Join(msgs, "; ")))
	}
	if out.Data == nil {
		return nil, apperrors.MalformedResponse(fmt.Errorf("%s response has no data", op))
	}

	c.logger.DebugContext(ctx, "storefront call completed",
		slog.String("operation", op),
		slog.Duration("duration", time.Since(start)),
	)
	return out.Data, nil
}

func outcomeOf(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return strings.ToLower(appErr.Code)
	}
	return "error"
}
