package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// OperatorConfig holds the single administrative credential pair the service
// accepts. The password is stored as a bcrypt hash, never in the clear.
type OperatorConfig struct {
	Name         string
	PasswordHash string
}

// ErrInvalidOperatorCredentials is returned for any name or password mismatch.
var ErrInvalidOperatorCredentials = errors.New("auth: invalid operator credentials")

// VerifyOperator checks a login attempt against the configured credential.
func VerifyOperator(cfg OperatorConfig, name, password string) error {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return ErrInvalidOperatorCredentials
	}

	nameMatch := subtle.ConstantTimeCompare([]byte(cfg.Name), []byte(name)) == 1
	hashErr := bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(password))
	if !nameMatch || hashErr != nil {
		return ErrInvalidOperatorCredentials
	}
	return nil
}

// HashPassword produces a bcrypt hash suitable for the operator configuration.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("auth: password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}
