package repository

import (
	"context"

	"github.com/utafrali/giftbox-storefront/internal/domain"
)

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves the cart for a session. A missing cart is apperrors.ErrNotFound.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Save persists a cart unconditionally, overwriting any existing cart for the session.
	Save(ctx context.Context, cart *domain.Cart) error

	// SaveIfVersion persists cart only if the stored version equals expectedVersion
	// (0 meaning no cart is stored yet). On success cart.Version becomes
	// expectedVersion+1. A lost race returns false with a nil error.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)

	// Delete removes the cart for a session. Deleting a missing cart is not an error.
	Delete(ctx context.Context, sessionID string) error
}
