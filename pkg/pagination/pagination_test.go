package pagination

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/giftbox-storefront/pkg/errors"
)

func TestLimitsClamp(t *testing.T) {
	l := Limits{Default: 20, Max: 250}
	assert.Equal(t, 20, l.Clamp(0))
	assert.Equal(t, 20, l.Clamp(-3))
	assert.Equal(t, 5, l.Clamp(5))
	assert.Equal(t, 250, l.Clamp(250))
	assert.Equal(t, 250, l.Clamp(251))
}

func TestFirstFromRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"absent", "", 0},
		{"explicit", "?first=12", 12},
		{"zero", "?first=0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products"+tt.query, nil)
			got, err := FirstFromRequest(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstFromRequest_Invalid(t *testing.T) {
	for _, q := range []string{"?first=abc", "?first=-1", "?first=1.5"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products"+q, nil)
		_, err := FirstFromRequest(req)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput), q)
	}
}
