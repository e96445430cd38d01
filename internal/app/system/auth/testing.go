package auth

import (
	"net/http"
	"time"
)

// WithTestUser injects u into the request context. Tests and internal
// callers use it to bypass token parsing.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// SetClock overrides the token clock. Tests use it to mint expired tokens.
func (m *TokenManager) SetClock(now func() time.Time) {
	m.now = now
}
