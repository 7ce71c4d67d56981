package auth

import (
	"github.com/golang-jwt/jwt/v4"
)

// JWTClaims carries the caller identity inside both token kinds; Type
// distinguishes access from refresh so one cannot stand in for the other.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is an access/refresh token set. ExpiresIn is the access token
// lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
