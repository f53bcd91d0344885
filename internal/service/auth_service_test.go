package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tms-access-api/internal/models"
	"github.com/noah-isme/tms-access-api/pkg/config"
)

func signToken(t *testing.T, secret string, claims models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "test-secret"})
	token := signToken(t, "test-secret", models.JWTClaims{
		LearnerID: "l1",
		Role:      models.RoleLearner,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "l1", claims.LearnerID)
	assert.Equal(t, models.RoleLearner, claims.Role)
}

func TestAuthServiceRejectsWrongSecret(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "test-secret"})
	token := signToken(t, "other-secret", models.JWTClaims{LearnerID: "l1"})

	_, err := svc.ValidateToken(token)
	require.Error(t, err)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "test-secret"})
	token := signToken(t, "test-secret", models.JWTClaims{
		LearnerID: "l1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := svc.ValidateToken(token)
	require.Error(t, err)
}
