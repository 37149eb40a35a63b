package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	accessapp "github.com/quotedesk/backend/internal/application/access"
	"github.com/quotedesk/backend/internal/interfaces/http/middleware"
)

// AccessHandler handles the gateway admission endpoints
type AccessHandler struct {
	BaseHandler
	gateway      *accessapp.GatewayService
	cookieSecure bool
}

// NewAccessHandler creates a new AccessHandler. cookieSecure controls
// the Secure flag on the session cookie and is off only for local
// development over plain HTTP.
func NewAccessHandler(gateway *accessapp.GatewayService, cookieSecure bool) *AccessHandler {
	return &AccessHandler{
		gateway:      gateway,
		cookieSecure: cookieSecure,
	}
}

// RegisterRoutes registers all access routes
func (h *AccessHandler) RegisterRoutes(rg *gin.RouterGroup) {
	access := rg.Group("/access")
	{
		access.POST("/request", h.RequestAccess)
		access.POST("/redeem", h.Redeem)
		access.POST("/logout", h.Logout)
	}
}

// RequestAccess evaluates an email against the admission rules and,
// when admitted, issues a one-time credential for the named resource
func (h *AccessHandler) RequestAccess(c *gin.Context) {
	var req accessapp.RequestAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	grant, err := h.gateway.RequestAccess(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, grant)
}

// Redeem exchanges a one-time credential for a scoped session. The
// session token is returned in the body and also set as a cookie so
// browser clients can follow the portal link directly.
func (h *AccessHandler) Redeem(c *gin.Context) {
	var req accessapp.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	session, err := h.gateway.Redeem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookieName, session.SessionToken, maxAge, "/", "", h.cookieSecure, true)
	h.Success(c, session)
}

// Logout clears the session cookie. Sessions are stateless tokens, so
// logout is a client-side affair; the token simply ages out.
func (h *AccessHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.cookieSecure, true)
	h.NoContent(c)
}
