package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quotedesk/backend/internal/infrastructure/auth"
	"github.com/quotedesk/backend/internal/infrastructure/logger"
	"github.com/quotedesk/backend/internal/interfaces/http/dto"
)

// SessionCookieName is the cookie carrying the portal session token
const SessionCookieName = "qd_session"

// sessionClaimsKey is the gin context key holding validated session claims
const sessionClaimsKey = "session_claims"

// SessionAuthorizer validates a session token against a resource path
type SessionAuthorizer interface {
	Authorize(tokenString, resource string) (*auth.SessionClaims, error)
}

// SessionAuth gates portal routes behind a scoped session. The session
// scope names the document, not its representation, so a trailing "/pdf"
// segment is stripped before the scope comparison. Every refusal is the
// same opaque 403 regardless of cause.
func SessionAuth(gateway SessionAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractSessionToken(c)
		if token == "" {
			denySession(c)
			return
		}

		claims, err := gateway.Authorize(token, sessionScope(c.Request.URL.Path))
		if err != nil {
			denySession(c)
			return
		}

		c.Set(sessionClaimsKey, claims)
		reqCtx := c.Request.Context()
		ctx, _ := logger.WithSubject(reqCtx, logger.FromContext(reqCtx), claims.Email)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetSessionClaims returns the validated claims set by SessionAuth,
// or nil when the request did not pass through it
func GetSessionClaims(c *gin.Context) *auth.SessionClaims {
	if v, ok := c.Get(sessionClaimsKey); ok {
		if claims, ok := v.(*auth.SessionClaims); ok {
			return claims
		}
	}
	return nil
}

func extractSessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

// sessionScope maps a request path to the scope it must be authorized
// for. "/portal/quotes/Q-1000/pdf" and ".../revisions" are views of the
// same document as "/portal/quotes/Q-1000".
func sessionScope(path string) string {
	path = strings.TrimSuffix(path, "/pdf")
	return strings.TrimSuffix(path, "/revisions")
}

func denySession(c *gin.Context) {
	requestID := c.GetString("request_id")
	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeForbidden,
		"Access to this resource is denied",
		requestID,
	))
}
