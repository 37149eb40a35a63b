package access

import "time"

// RequestAccessRequest asks for entry to a single gated resource
type RequestAccessRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Resource string `json:"resource" binding:"required"`
}

// GrantResponse carries the one-time redeem token. In production the
// token travels to the subject out of band (emailed link); it is never
// shown to an unauthenticated caller together with the resource content.
type GrantResponse struct {
	Token     string    `json:"token"`
	Resource  string    `json:"resource"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedeemRequest exchanges a redeem token for a session
type RedeemRequest struct {
	Token string `json:"token" binding:"required"`
}

// SessionResponse is the authenticated session handed out on redemption.
// Scope is the exact resource path the original request named.
type SessionResponse struct {
	SessionToken string    `json:"session_token"`
	Scope        string    `json:"scope"`
	ExpiresAt    time.Time `json:"expires_at"`
}
