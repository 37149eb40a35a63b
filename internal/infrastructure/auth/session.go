package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/domain/access"
)

// Common errors
var (
	ErrInvalidToken  = errors.New("invalid session token")
	ErrExpiredToken  = errors.New("session has expired")
	ErrInvalidClaims = errors.New("invalid session claims")
)

// SessionClaims carries the redeemed credential into the session token.
// The scope is the single resource path the session may read.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email  string `json:"email"`
	Domain string `json:"domain"`
	Scope  string `json:"scope"`
}

// Session is an issued session token with its expiry
type Session struct {
	Token     string    `json:"token"`
	Scope     string    `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionService signs and validates portal session tokens. A session is
// born from exactly one redeemed credential and inherits its scope; the
// service never widens it.
type SessionService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewSessionService creates a new session service
func NewSessionService(secret, issuer string, expiration time.Duration) *SessionService {
	return &SessionService{
		secret:     []byte(secret),
		issuer:     issuer,
		expiration: expiration,
	}
}

// Issue creates a session token from a redeemed credential
func (s *SessionService) Issue(cred *access.Credential) (*Session, error) {
	if cred.State != access.StateRedeemed {
		return nil, ErrInvalidClaims
	}

	now := time.Now()
	expiresAt := now.Add(s.expiration)

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   cred.Email,
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email:  cred.Email,
		Domain: cred.Domain,
		Scope:  cred.Scope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     signed,
		Scope:     cred.Scope,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate checks a session token and returns its claims
func (s *SessionService) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Email == "" || claims.Scope == "" {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}
