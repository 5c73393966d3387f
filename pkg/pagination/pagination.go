// Package pagination reads and bounds cursorless page sizes.
package pagination

import (
	"net/http"
	"strconv"

	apperrors "github.com/utafrali/giftbox-storefront/pkg/errors"
)

// FirstParam is the query parameter carrying the requested page size.
const FirstParam = "first"

// Limits bounds the page size of a listing.
type Limits struct {
	Default int
	Max     int
}

// Clamp applies Default to non-positive values and caps at Max.
func (l Limits) Clamp(first int) int {
	switch {
	case first <= 0:
		return l.Default
	case first > l.Max:
		return l.Max
	default:
		return first
	}
}

// FirstFromRequest reads FirstParam from the query string. An absent value
// is 0 so the caller's Limits pick the default.
func FirstFromRequest(r *http.Request) (int, error) {
	raw := r.URL.Query().Get(FirstParam)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.InvalidInput(FirstParam + " must be a non-negative integer")
	}
	return n, nil
}
