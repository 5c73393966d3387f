package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/giftbox-storefront/internal/domain"
	apperrors "github.com/utafrali/giftbox-storefront/pkg/errors"
)

func TestCartRepository_GetMissing(t *testing.T) {
	repo := NewCartRepository()
	_, err := repo.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_ReturnsCopies(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	cart := &domain.Cart{SessionID: "s1", Items: []domain.LineItem{{ProductID: "mug", Quantity: 1}}}
	require.NoError(t, repo.Save(ctx, cart))
	cart.Items[0].Quantity = 50

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Items[0].Quantity)

	got.Items[0].Quantity = 70
	again, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestCartRepository_SaveIfVersion(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	cart := &domain.Cart{SessionID: "s1"}
	ok, err := repo.SaveIfVersion(ctx, cart, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.SaveIfVersion(ctx, cart, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, cart.Version)

	ok, err = repo.SaveIfVersion(ctx, cart, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCartRepository_ConcurrentWritersOneWins(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &domain.Cart{SessionID: "s1", Version: 4}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := repo.Get(ctx, "s1")
			if err != nil {
				return
			}
			if ok, _ := repo.SaveIfVersion(ctx, c, 4); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Version)
}

func TestCartRepository_Delete(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &domain.Cart{SessionID: "s1"}))

	require.NoError(t, repo.Delete(ctx, "s1"))
	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err := repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_ExpiredCartIsMissing(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := NewCartRepository()
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	cart := &domain.Cart{SessionID: "s-exp", Version: 0, ExpiresAt: now.Add(time.Hour)}
	ok, err := repo.SaveIfVersion(ctx, cart, 0)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.SaveIfVersion(ctx, cart.Clone(), 1)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(time.Hour)
	_, err = repo.Get(ctx, "s-exp")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// A new cart starts from version 0 over the expired one.
	ok, err = repo.SaveIfVersion(ctx, &domain.Cart{SessionID: "s-exp", ExpiresAt: now.Add(time.Hour)}, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	got, err := repo.Get(ctx, "s-exp")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestCartRepository_SweepsExpiredCarts(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := NewCartRepository()
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, &domain.Cart{SessionID: id, ExpiresAt: now.Add(time.Minute)}))
	}
	require.NoError(t, repo.Save(ctx, &domain.Cart{SessionID: "forever"}))
	assert.Equal(t, 4, repo.size())

	now = now.Add(2 * time.Minute)
	require.NoError(t, repo.Save(ctx, &domain.Cart{SessionID: "d", ExpiresAt: now.Add(time.Minute)}))
	assert.Equal(t, 2, repo.size())

	_, err := repo.Get(ctx, "forever")
	assert.NoError(t, err)
}
