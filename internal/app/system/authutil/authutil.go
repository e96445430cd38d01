// Package authutil holds password rules and bcrypt helpers shared by
// registration, login and the super admin bootstrap.
package authutil

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
)

// ValidatePassword checks the length rules.
func ValidatePassword(pw string) error {
	switch {
	case len([]rune(pw)) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(pw) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// PasswordRules is the human-readable form of ValidatePassword.
func PasswordRules() string {
	return fmt.Sprintf("Use %d to %d characters.", MinPasswordLength, MaxPasswordLength)
}

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(pw, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// RandomPassword returns a URL-safe random password of 24 characters.
func RandomPassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
