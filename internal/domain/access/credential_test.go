package access

import (
	"testing"
	"time"

	"github.com/quotedesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCredential(t *testing.T, ttl time.Duration) *Credential {
	cred, err := NewCredential("buyer@clientco.com", "clientco.com", "/portal/quotes/Q-1000", ttl)
	require.NoError(t, err)
	return cred
}

func TestNewCredential(t *testing.T) {
	cred := newTestCredential(t, 15*time.Minute)

	assert.NotEmpty(t, cred.Token)
	assert.Equal(t, StatePending, cred.State)
	assert.Equal(t, "buyer@clientco.com", cred.Email)
	assert.Equal(t, "/portal/quotes/Q-1000", cred.Scope)
	assert.True(t, cred.ExpiresAt.After(cred.IssuedAt))

	other := newTestCredential(t, 15*time.Minute)
	assert.NotEqual(t, cred.Token, other.Token, "tokens must be unpredictable and unique")
}

func TestNewCredential_Validation(t *testing.T) {
	_, err := NewCredential("", "clientco.com", "/portal/quotes/Q-1000", time.Minute)
	assert.Error(t, err)

	_, err = NewCredential("buyer@clientco.com", "clientco.com", "not-a-path", time.Minute)
	assert.Error(t, err)

	_, err = NewCredential("buyer@clientco.com", "clientco.com", "", time.Minute)
	assert.Error(t, err)

	_, err = NewCredential("buyer@clientco.com", "clientco.com", "/portal/quotes/Q-1000", 0)
	assert.Error(t, err)
}

func TestCredential_RedeemOnce(t *testing.T) {
	cred := newTestCredential(t, 15*time.Minute)
	now := time.Now()

	require.NoError(t, cred.Redeem(now))
	assert.Equal(t, StateRedeemed, cred.State)

	err := cred.Redeem(now)
	assert.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestCredential_RedeemExpired(t *testing.T) {
	cred := newTestCredential(t, time.Minute)

	err := cred.Redeem(time.Now().Add(2 * time.Minute))
	assert.ErrorIs(t, err, shared.ErrAccessDenied)
	assert.Equal(t, StatePending, cred.State)
}

func TestCredential_ScopeIsExact(t *testing.T) {
	cred := newTestCredential(t, time.Minute)

	assert.True(t, cred.Authorizes("/portal/quotes/Q-1000"))
	assert.False(t, cred.Authorizes("/portal/quotes/Q-1001"))
	assert.False(t, cred.Authorizes("/portal/quotes"))
	assert.False(t, cred.Authorizes("/portal/quotes/Q-1000/pdf"), "scope cannot be widened to sub-resources")
}
