package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quotedesk/backend/internal/domain/access"
	"github.com/quotedesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredCredential(t *testing.T, ttl time.Duration) *access.Credential {
	cred, err := access.NewCredential("buyer@clientco.com", "clientco.com", "/portal/quotes/Q-1000", ttl)
	require.NoError(t, err)
	return cred
}

func TestInMemoryCredentialStore_PutAndConsume(t *testing.T) {
	store := NewInMemoryCredentialStore()
	defer store.Close()
	ctx := context.Background()

	cred := newStoredCredential(t, 15*time.Minute)
	require.NoError(t, store.Put(ctx, cred))

	consumed, err := store.Consume(ctx, cred.Token)
	require.NoError(t, err)
	assert.Equal(t, cred.Email, consumed.Email)
	assert.Equal(t, cred.Scope, consumed.Scope)

	// A consumed token is gone
	_, err = store.Consume(ctx, cred.Token)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInMemoryCredentialStore_UnknownToken(t *testing.T) {
	store := NewInMemoryCredentialStore()
	defer store.Close()

	_, err := store.Consume(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInMemoryCredentialStore_ExpiredToken(t *testing.T) {
	store := NewInMemoryCredentialStore()
	defer store.Close()
	ctx := context.Background()

	cred := newStoredCredential(t, time.Millisecond)
	require.NoError(t, store.Put(ctx, cred))

	time.Sleep(5 * time.Millisecond)

	_, err := store.Consume(ctx, cred.Token)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInMemoryCredentialStore_ConcurrentConsume(t *testing.T) {
	store := NewInMemoryCredentialStore()
	defer store.Close()
	ctx := context.Background()

	cred := newStoredCredential(t, time.Minute)
	require.NoError(t, store.Put(ctx, cred))

	const workers = 16
	var wg sync.WaitGroup
	successes := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Consume(ctx, cred.Token); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	assert.Len(t, successes, 1, "a credential is handed out to at most one caller")
}

func TestInMemoryRateLimiter(t *testing.T) {
	limiter := NewInMemoryRateLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "buyer@clientco.com", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "buyer@clientco.com", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "fourth attempt within the window is throttled")

	// Another subject has its own window
	ok, err = limiter.Allow(ctx, "other@clientco.com", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryRateLimiter_WindowReset(t *testing.T) {
	limiter := NewInMemoryRateLimiter()
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "buyer@clientco.com", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = limiter.Allow(ctx, "buyer@clientco.com", 1, 10*time.Millisecond)
	assert.False(t, ok)

	time.Sleep(15 * time.Millisecond)

	ok, err = limiter.Allow(ctx, "buyer@clientco.com", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok, "counter resets after the window elapses")
}
