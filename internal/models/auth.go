package models

import "github.com/golang-jwt/jwt/v5"

// Learner roles recognised by the API layer.
const (
	RoleLearner = "learner"
	RoleAdmin   = "admin"
)

// JWTClaims are the access-token claims issued by the external identity
// provider. LearnerID identifies the caller for learner-facing operations.
type JWTClaims struct {
	LearnerID string `json:"learner_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}
