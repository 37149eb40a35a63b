package access

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/domain/access"
	"github.com/quotedesk/backend/internal/domain/partner"
	"github.com/quotedesk/backend/internal/domain/shared"
	"github.com/quotedesk/backend/internal/infrastructure/auth"
	"github.com/quotedesk/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClientRepository is a mock implementation of partner.ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func (m *MockClientRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func (m *MockClientRepository) FindActiveByContactDomain(ctx context.Context, domain string) (*partner.Client, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func newTestGateway(t *testing.T) (*GatewayService, *MockClientRepository, *cache.InMemoryCredentialStore) {
	clientRepo := new(MockClientRepository)
	store := cache.NewInMemoryCredentialStore()
	t.Cleanup(func() { _ = store.Close() })

	svc := NewGatewayService(
		access.NewDefaultPolicy([]string{"quotedesk.cl"}),
		clientRepo,
		store,
		cache.NewInMemoryRateLimiter(),
		auth.NewSessionService("test-secret-key-at-least-32-chars!", "quotedesk", time.Hour),
		Config{
			CredentialTTL:     15 * time.Minute,
			RateLimitAttempts: 3,
			RateLimitWindow:   time.Minute,
		},
	)
	return svc, clientRepo, store
}

func registeredClient() *partner.Client {
	client, _ := partner.NewClient("Aceros del Sur SpA", "76.543.210-K")
	_ = client.AddContact("compras@acerosdelsur.cl")
	return client
}

func TestGatewayService_RequestAccess_RegisteredClientDomain(t *testing.T) {
	svc, clientRepo, _ := newTestGateway(t)
	ctx := context.Background()

	clientRepo.On("FindActiveByContactDomain", ctx, "acerosdelsur.cl").
		Return(registeredClient(), nil)

	grant, err := svc.RequestAccess(ctx, RequestAccessRequest{
		Email:    "compras@acerosdelsur.cl",
		Resource: "/portal/quotes/Q-1000",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)
	assert.Equal(t, "/portal/quotes/Q-1000", grant.Resource)
	assert.True(t, grant.ExpiresAt.After(time.Now()))
}

func TestGatewayService_RequestAccess_ConsumerDomainDenied(t *testing.T) {
	svc, clientRepo, _ := newTestGateway(t)
	ctx := context.Background()

	// The deny list wins even when the domain is also registered;
	// the registry is never consulted.
	_, err := svc.RequestAccess(ctx, RequestAccessRequest{
		Email:    "someone@gmail.com",
		Resource: "/portal/quotes/Q-1000",
	})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)
	clientRepo.AssertNotCalled(t, "FindActiveByContactDomain", mock.Anything, mock.Anything)
}

func TestGatewayService_RequestAccess_OperatorDomainSkipsRegistry(t *testing.T) {
	svc, clientRepo, _ := newTestGateway(t)
	ctx := context.Background()

	grant, err := svc.RequestAccess(ctx, RequestAccessRequest{
		Email:    "ventas@quotedesk.cl",
		Resource: "/portal/quotes/Q-1000",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)
	clientRepo.AssertNotCalled(t, "FindActiveByContactDomain", mock.Anything, mock.Anything)
}

func TestGatewayService_RequestAccess_UnknownDomainDenied(t *testing.T) {
	svc, clientRepo, _ := newTestGateway(t)
	ctx := context.Background()

	clientRepo.On("FindActiveByContactDomain", ctx, "unknown.example").
		Return(nil, shared.ErrNotFound)

	_, err := svc.RequestAccess(ctx, RequestAccessRequest{
		Email:    "buyer@unknown.example",
		Resource: "/portal/quotes/Q-1000",
	})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestGatewayService_RequestAccess_RegistryOutageFailsClosed(t *testing.T) {
	svc, clientRepo, _ := newTestGateway(t)
	ctx := context.Background()

	clientRepo.On("FindActiveByContactDomain", ctx, "acerosdelsur.cl").
		Return(nil, shared.ErrTransient)

	_, err := svc.RequestAccess(ctx, RequestAccessRequest{
		Email:    "compras@acerosdelsur.cl",
		Resource: "/portal/quotes/Q-1000",
	})
	assert.ErrorIs(t, err, shared.ErrTransient, "an outage is never reported as a denial")
	assert.NotErrorIs(t, err, shared.ErrAccessDenied)
}

func TestGatewayService_RequestAccess_RegistryBlipRetried(t *testing.T) {
	svc, clientRepo, _ := newTestGateway(t)
	ctx := context.Background()

	// A single registry blip is absorbed; the subject still gets a grant
	clientRepo.On("FindActiveByContactDomain", ctx, "acerosdelsur.cl").
		Return(nil, shared.ErrTransient).Once()
	clientRepo.On("FindActiveByContactDomain", ctx, "acerosdelsur.cl").
		Return(registeredClient(), nil).Once()

	grant, err := svc.RequestAccess(ctx, RequestAccessRequest{
		Email:    "compras@acerosdelsur.cl",
		Resource: "/portal/quotes/Q-1000",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)
	clientRepo.AssertExpectations(t)
}

func TestGatewayService_RequestAccess_InvalidInput(t *testing.T) {
	svc, _, _ := newTestGateway(t)
	ctx := context.Background()

	_, err := svc.RequestAccess(ctx, RequestAccessRequest{Email: "not-an-email", Resource: "/x"})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)

	_, err = svc.RequestAccess(ctx, RequestAccessRequest{Email: "a@b.cl", Resource: "no-path"})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
}

func TestGatewayService_RequestAccess_RateLimited(t *testing.T) {
	svc, _, _ := newTestGateway(t)
	ctx := context.Background()

	req := RequestAccessRequest{Email: "ventas@quotedesk.cl", Resource: "/portal/quotes/Q-1000"}
	for i := 0; i < 3; i++ {
		_, err := svc.RequestAccess(ctx, req)
		require.NoError(t, err)
	}

	_, err := svc.RequestAccess(ctx, req)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGatewayService_RedeemOnce(t *testing.T) {
	svc, _, _ := newTestGateway(t)
	ctx := context.Background()

	grant, err := svc.RequestAccess(ctx, RequestAccessRequest{
		Email:    "ventas@quotedesk.cl",
		Resource: "/portal/quotes/Q-1000",
	})
	require.NoError(t, err)

	session, err := svc.Redeem(ctx, RedeemRequest{Token: grant.Token})
	require.NoError(t, err)
	assert.NotEmpty(t, session.SessionToken)
	assert.Equal(t, "/portal/quotes/Q-1000", session.Scope)

	// Second redemption of the same token is refused
	_, err = svc.Redeem(ctx, RedeemRequest{Token: grant.Token})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestGatewayService_Redeem_UnknownToken(t *testing.T) {
	svc, _, _ := newTestGateway(t)

	_, err := svc.Redeem(context.Background(), RedeemRequest{Token: "deadbeef"})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestGatewayService_Authorize(t *testing.T) {
	svc, _, _ := newTestGateway(t)
	ctx := context.Background()

	grant, err := svc.RequestAccess(ctx, RequestAccessRequest{
		Email:    "ventas@quotedesk.cl",
		Resource: "/portal/quotes/Q-1000",
	})
	require.NoError(t, err)
	session, err := svc.Redeem(ctx, RedeemRequest{Token: grant.Token})
	require.NoError(t, err)

	claims, err := svc.Authorize(session.SessionToken, "/portal/quotes/Q-1000")
	require.NoError(t, err)
	assert.Equal(t, "ventas@quotedesk.cl", claims.Email)

	// The session does not reach any other resource
	_, err = svc.Authorize(session.SessionToken, "/portal/quotes/Q-1001")
	assert.ErrorIs(t, err, shared.ErrAccessDenied)

	_, err = svc.Authorize("garbage", "/portal/quotes/Q-1000")
	assert.ErrorIs(t, err, shared.ErrAccessDenied)
}
