package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the authenticated caller, rebuilt from the bearer token on
// every request and injected into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string // COMEDIAN | ORGANIZER | ADMIN | SUPER_ADMIN
}

// ObjectID parses ID. ok is false when the ID is malformed.
func (u *SessionUser) ObjectID() (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	return oid, err == nil
}

// UserFetcher reloads a user on each request so role changes and deletions
// take effect before the token expires.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) (*SessionUser, error)
}

// ErrUserGone is returned by a UserFetcher when the token's user no longer exists.
var ErrUserGone = errors.New("auth: user no longer exists")

type ctxKey string

const (
	currentUserKey ctxKey = "currentUser"
	tokenErrKey    ctxKey = "tokenError"
)

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// Middleware authenticates requests with the TokenManager.
type Middleware struct {
	tokens  *TokenManager
	fetcher UserFetcher
	log     *zap.Logger
}

// NewMiddleware builds the auth middleware. fetcher may be nil, in which case
// the token claims are trusted as-is.
func NewMiddleware(tokens *TokenManager, fetcher UserFetcher, logger *zap.Logger) *Middleware {
	return &Middleware{tokens: tokens, fetcher: fetcher, log: logger}
}

// LoadUser parses "Authorization: Bearer <token>" when present and injects
// the user. It never rejects; RequireSignedIn decides.
func (m *Middleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokens.Parse(raw)
		if err != nil {
			m.log.Debug("bearer token rejected", zap.Error(err))
			next.ServeHTTP(w, withTokenError(r, err))
			return
		}

		u := &SessionUser{ID: claims.ID, Email: claims.Email, Role: claims.Role}
		if m.fetcher != nil {
			fresh, err := m.fetcher.FetchUser(r.Context(), claims.ID)
			switch {
			case errors.Is(err, ErrUserGone):
				next.ServeHTTP(w, withTokenError(r, err))
				return
			case err != nil:
				// Fall back to the claims rather than failing the request.
				m.log.Warn("user fetch failed; using token claims",
					zap.String("user_id", claims.ID), zap.Error(err))
			default:
				u = fresh
			}
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn rejects requests that carry no valid token with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		unauthorized(w, r)
	})
}

// RequireRole ensures the signed-in user has one of the allowed roles.
// Missing user → 401, wrong role → 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToUpper(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				unauthorized(w, r)
				return
			}
			if _, has := set[strings.ToUpper(u.Role)]; !has {
				respond.Message(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// helpers

func unauthorized(w http.ResponseWriter, r *http.Request) {
	if _, bad := r.Context().Value(tokenErrKey).(error); bad {
		respond.Message(w, http.StatusUnauthorized, "Token is not valid")
		return
	}
	respond.Message(w, http.StatusUnauthorized, "No token, authorization denied")
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func withTokenError(r *http.Request, err error) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), tokenErrKey, err))
}
