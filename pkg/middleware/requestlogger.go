package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/giftbox-storefront/pkg/logger"
)

// CartSessionHeader identifies the anonymous cart a request acts on.
const CartSessionHeader = "X-Cart-Session"

// RequestLogger stores a request-scoped logger in the context, enriched with the
// correlation id, cart session and trace ids. Mount it after RequestLogging and
// Tracing so those values are already present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if session := r.Header.Get(CartSessionHeader); session != "" {
				ctx = logger.WithCartSession(ctx, session)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
