package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/tms-access-api/internal/models"
	"github.com/noah-isme/tms-access-api/pkg/config"
	appErrors "github.com/noah-isme/tms-access-api/pkg/errors"
)

// AuthService validates access tokens issued by the external identity
// provider. The engine stores no credentials itself.
type AuthService struct {
	secret []byte
}

// NewAuthService constructs AuthService.
func NewAuthService(cfg config.JWTConfig) *AuthService {
	return &AuthService{secret: []byte(cfg.Secret)}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
