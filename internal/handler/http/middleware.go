package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/giftbox-storefront/pkg/errors"
	"github.com/utafrali/giftbox-storefront/pkg/httputil"
	"github.com/utafrali/giftbox-storefront/pkg/middleware"
)

// maxSessionLen bounds the X-Cart-Session header.
const maxSessionLen = 128

type contextKey string

const sessionKey contextKey = "cart_session"

// CartSessionFromHeader reads the X-Cart-Session header and stores it in the
// request context. Requests without a usable session get 401.
func CartSessionFromHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := strings.TrimSpace(r.Header.Get(middleware.CartSessionHeader))
		if session == "" || len(session) > maxSessionLen {
			httputil.WriteError(w, r, apperrors.Unauthorized(middleware.CartSessionHeader+" header is required"), nil)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey).(string)
	return s
}

// pathParam returns the decoded value of a route parameter. chi routes on the
// escaped path, so an encoded GID arrives as gid:%2F%2F... otherwise.
func pathParam(r *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		return "", apperrors.InvalidInput(name + " is not a valid path segment")
	}
	return v, nil
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{Error: &httputil.ErrorResponse{
					Code:    "UNSUPPORTED_MEDIA_TYPE",
					Message: "Content-Type must be application/json",
				}})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
