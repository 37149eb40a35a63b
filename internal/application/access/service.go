package access

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/quotedesk/backend/internal/domain/access"
	"github.com/quotedesk/backend/internal/domain/partner"
	"github.com/quotedesk/backend/internal/domain/shared"
	"github.com/quotedesk/backend/internal/infrastructure/auth"
	"github.com/quotedesk/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrRateLimited is returned when a subject exhausted its issuance budget
var ErrRateLimited = shared.NewDomainError("RATE_LIMITED", "Too many access requests, try again later")

// maxRegistryRetries bounds how often a transiently failing registry
// lookup is repeated before the outage is surfaced.
const maxRegistryRetries = 3

const registryRetryBackoff = 25 * time.Millisecond

// Config holds gateway admission settings
type Config struct {
	CredentialTTL     time.Duration
	RateLimitAttempts int
	RateLimitWindow   time.Duration
}

// GatewayService admits subjects to gated document resources.
// Admission is decided solely from the email domain: deny list first,
// operator allow list second, client registry last. Every refusal is the
// same opaque denial so callers cannot learn which rule fired.
type GatewayService struct {
	policy     *access.DomainPolicy
	clientRepo partner.ClientRepository
	store      access.CredentialStore
	limiter    access.RateLimiter
	sessions   *auth.SessionService
	cfg        Config
}

// NewGatewayService creates a new GatewayService
func NewGatewayService(
	policy *access.DomainPolicy,
	clientRepo partner.ClientRepository,
	store access.CredentialStore,
	limiter access.RateLimiter,
	sessions *auth.SessionService,
	cfg Config,
) *GatewayService {
	return &GatewayService{
		policy:     policy,
		clientRepo: clientRepo,
		store:      store,
		limiter:    limiter,
		sessions:   sessions,
		cfg:        cfg,
	}
}

// RequestAccess evaluates the subject's email and, when admitted, issues
// a one-time credential scoped to the requested resource path.
func (s *GatewayService) RequestAccess(ctx context.Context, req RequestAccessRequest) (*GrantResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	domain, ok := partner.EmailDomain(email)
	if !ok {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "A valid email address is required")
	}
	if req.Resource == "" || !strings.HasPrefix(req.Resource, "/") {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Resource must be a path")
	}

	allowed, err := s.limiter.Allow(ctx, email, s.cfg.RateLimitAttempts, s.cfg.RateLimitWindow)
	if err != nil {
		// The throttle backend failing open is preferable to locking every
		// subject out; admission rules below still apply.
		logger.L(ctx).Warn("rate limiter unavailable", zap.Error(err))
	}
	if !allowed {
		return nil, ErrRateLimited
	}

	if err := s.admit(ctx, domain); err != nil {
		return nil, err
	}

	cred, err := access.NewCredential(email, domain, req.Resource, s.cfg.CredentialTTL)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, cred); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("access credential issued",
		zap.String("domain", domain),
		zap.String("resource", req.Resource))

	return &GrantResponse{
		Token:     cred.Token,
		Resource:  cred.Scope,
		ExpiresAt: cred.ExpiresAt,
	}, nil
}

// admit decides whether a domain may enter. The deny list wins over
// everything; the allow list short-circuits the registry; anything else
// needs an active registered client. A transient registry failure is
// retried with backoff; a persistent outage fails closed as a transient
// error, never as a denial or an admission.
func (s *GatewayService) admit(ctx context.Context, domain string) error {
	switch s.policy.Evaluate(domain) {
	case access.DecisionDeny:
		return shared.ErrAccessDenied
	case access.DecisionAllow:
		return nil
	}

	var err error
	for attempt := 0; ; attempt++ {
		_, err = s.clientRepo.FindActiveByContactDomain(ctx, domain)
		if err == nil || !errors.Is(err, shared.ErrTransient) || attempt >= maxRegistryRetries {
			break
		}
		select {
		case <-time.After(registryRetryBackoff << attempt):
		case <-ctx.Done():
		}
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrAccessDenied
		}
		if errors.Is(err, shared.ErrTransient) {
			return err
		}
		return errors.Join(shared.ErrTransient, err)
	}
	return nil
}

// Redeem consumes a one-time credential and issues a session scoped to
// the resource the credential was granted for. Unknown, expired, and
// already-used tokens all get the same opaque denial.
func (s *GatewayService) Redeem(ctx context.Context, req RedeemRequest) (*SessionResponse, error) {
	cred, err := s.store.Consume(ctx, req.Token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrAccessDenied
		}
		return nil, err
	}

	if err := cred.Redeem(time.Now()); err != nil {
		return nil, err
	}

	session, err := s.sessions.Issue(cred)
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("credential redeemed",
		zap.String("domain", cred.Domain),
		zap.String("scope", cred.Scope))

	return &SessionResponse{
		SessionToken: session.Token,
		Scope:        session.Scope,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// Authorize validates a session token against a resource path.
// Scope matching is exact, a session never reaches beyond the single
// path it was issued for.
func (s *GatewayService) Authorize(tokenString, resource string) (*auth.SessionClaims, error) {
	claims, err := s.sessions.Validate(tokenString)
	if err != nil {
		return nil, shared.ErrAccessDenied
	}
	if claims.Scope != resource {
		return nil, shared.ErrAccessDenied
	}
	return claims, nil
}
