package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DevSecret is the default jwt_secret; ValidateConfig refuses it in prod.
const DevSecret = "dev-only-change-me-please-0123456789ABCDEF"

const (
	purposeAccess        = "access"
	purposeRespondUpdate = "respond-update"
)

// Claims is the JWT payload for access tokens: {id, email, role}.
type Claims struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// RespondClaims is the payload of the keep/withdraw links emailed after an
// event update.
type RespondClaims struct {
	ApplicationID string `json:"applicationId"`
	ComedianID    string `json:"comedianId"`
	Purpose       string `json:"purpose"`
	jwt.RegisteredClaims
}

// ErrWrongPurpose is returned when a token is valid but issued for another use.
var ErrWrongPurpose = errors.New("auth: token issued for a different purpose")

// TokenManager signs and verifies HS256 tokens with a shared secret.
type TokenManager struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenManager validates the secret and returns a manager whose access
// tokens expire after expiry.
func NewTokenManager(secret string, expiry time.Duration, issuer string, logger *zap.Logger) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty; provide ≥32 random chars")
	}
	if len(secret) < 32 {
		logger.Warn("jwt secret is short; 32+ chars recommended", zap.Int("length", len(secret)))
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), expiry: expiry, issuer: issuer, now: time.Now}, nil
}

// Expiry is the lifetime of access tokens.
func (m *TokenManager) Expiry() time.Duration { return m.expiry }

// Issue signs an access token for the user.
func (m *TokenManager) Issue(userID, email, role string) (string, error) {
	now := m.now()
	claims := Claims{
		ID:      userID,
		Email:   email,
		Role:    role,
		Purpose: purposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies an access token and returns its claims.
func (m *TokenManager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(raw, claims, m.keyFunc, m.parserOptions()...); err != nil {
		return nil, err
	}
	if claims.Purpose != "" && claims.Purpose != purposeAccess {
		return nil, ErrWrongPurpose
	}
	if claims.ID == "" {
		return nil, errors.New("auth: token has no user id")
	}
	return claims, nil
}

// IssueRespondToken signs a keep/withdraw link token for one application.
func (m *TokenManager) IssueRespondToken(applicationID, comedianID string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := RespondClaims{
		ApplicationID: applicationID,
		ComedianID:    comedianID,
		Purpose:       purposeRespondUpdate,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   comedianID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseRespondToken verifies a keep/withdraw link token.
func (m *TokenManager) ParseRespondToken(raw string) (*RespondClaims, error) {
	claims := &RespondClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, m.keyFunc, m.parserOptions()...); err != nil {
		return nil, err
	}
	if claims.Purpose != purposeRespondUpdate {
		return nil, ErrWrongPurpose
	}
	if claims.ApplicationID == "" {
		return nil, errors.New("auth: token has no application id")
	}
	return claims, nil
}

func (m *TokenManager) keyFunc(t *jwt.Token) (any, error) {
	return m.secret, nil
}

func (m *TokenManager) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
}
