package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/giftbox-storefront/pkg/errors"
)

// maxErrorBody caps how much of an upstream error body is kept for logging.
const maxErrorBody = 4 << 10

// ParseResponseError reads a non-2xx upstream response and translates it into an
// AppError. The body is consumed and closed.
//
// Credentials problems (401, 403) and an unknown shop or API version (404) are
// deployment faults and surface as CONFIGURATION_ERROR. Throttling and upstream
// outages surface as SERVICE_UNAVAILABLE and GATEWAY_ERROR respectively.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(body))
	cause := fmt.Errorf("%s returned status %d: %s", upstream, resp.StatusCode, detail)

	switch status := resp.StatusCode; {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apperrors.Misconfigured(upstream + " rejected the storefront access token").WithCause(cause)
	case status == http.StatusNotFound:
		return apperrors.Misconfigured(upstream + " endpoint not found; check store domain and API version").WithCause(cause)
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(upstream + " is throttling or unavailable").WithCause(cause)
	default:
		return apperrors.Gateway(cause)
	}
}
