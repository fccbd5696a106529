package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/lootguard/internal/auth"
)

func TestJWTRoundTrip(t *testing.T) {
	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret: "test-secret",
		Issuer: "lootguard",
	})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken("operator")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "operator", claims.Operator)
	require.Equal(t, "lootguard", claims.Issuer)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	current := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: time.Minute,
		Clock:          func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken("operator")
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer, err := auth.NewJWTService(auth.JWTConfig{Secret: "secret-a"})
	require.NoError(t, err)
	verifier, err := auth.NewJWTService(auth.JWTConfig{Secret: "secret-b"})
	require.NoError(t, err)

	token, err := issuer.GenerateAccessToken("operator")
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTRequiresSecret(t *testing.T) {
	_, err := auth.NewJWTService(auth.JWTConfig{})
	require.Error(t, err)
}

func TestVerifyOperator(t *testing.T) {
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)

	cfg := auth.OperatorConfig{Name: "operator", PasswordHash: hash}

	require.NoError(t, auth.VerifyOperator(cfg, "operator", "hunter2"))
	require.ErrorIs(t, auth.VerifyOperator(cfg, "operator", "wrong"), auth.ErrInvalidOperatorCredentials)
	require.ErrorIs(t, auth.VerifyOperator(cfg, "intruder", "hunter2"), auth.ErrInvalidOperatorCredentials)
	require.ErrorIs(t, auth.VerifyOperator(cfg, "", ""), auth.ErrInvalidOperatorCredentials)
}
