// Package memory is an in-process cart repository for single-instance
// deployments and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	apperrors "github.com/utafrali/giftbox-storefront/pkg/errors"
)

// sweepInterval bounds how often writes scan for expired carts.
const sweepInterval = time.Minute

// CartRepository keeps carts in a map guarded by a mutex. A cart past its
// ExpiresAt reads as missing and is dropped by the next sweep; carts with a
// zero ExpiresAt never expire.
type CartRepository struct {
	mu        sync.RWMutex
	carts     map[string]*domain.Cart
	lastSweep time.Time
	now       func() time.Time
}

// NewCartRepository creates an empty repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{
		carts: make(map[string]*domain.Cart),
		now:   time.Now,
	}
}

func expired(c *domain.Cart, now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// live returns the stored cart unless it has expired. Callers hold mu.
func (r *CartRepository) live(sessionID string, now time.Time) (*domain.Cart, bool) {
	cart, ok := r.carts[sessionID]
	if !ok || expired(cart, now) {
		return nil, false
	}
	return cart, true
}

// sweep drops expired carts at most once per sweepInterval. Callers hold mu
// for writing.
func (r *CartRepository) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < sweepInterval {
		return
	}
	for id, cart := range r.carts {
		if expired(cart, now) {
			delete(r.carts, id)
		}
	}
	r.lastSweep = now
}

// Get returns a copy of the stored cart.
func (r *CartRepository) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.live(sessionID, r.now())
	if !ok {
		return nil, apperrors.NotFound("cart", sessionID)
	}
	return cart.Clone(), nil
}

// Save stores a copy of cart.
func (r *CartRepository) Save(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep(r.now())
	r.carts[cart.SessionID] = cart.Clone()
	return nil
}

// SaveIfVersion compares and stores under one lock. An expired cart counts as
// absent, so a fresh cart at version 0 replaces it.
func (r *CartRepository) SaveIfVersion(_ context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	current := 0
	if stored, ok := r.live(cart.SessionID, now); ok {
		current = stored.Version
	}
	if current != expectedVersion {
		return false, nil
	}

	cart.Version = expectedVersion + 1
	r.carts[cart.SessionID] = cart.Clone()
	return true, nil
}

// Delete removes the session's cart.
func (r *CartRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, sessionID)
	return nil
}

func (r *CartRepository) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.carts)
}
