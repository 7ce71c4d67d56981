package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"skytrip/internal/shared/config"
	"skytrip/internal/shared/utils/response"
	"skytrip/internal/users"
)

// Context keys set by JWTAuth and read by controllers.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

func unauthorized(c *gin.Context, message string) {
	response.RespondJSON(c, "error", http.StatusUnauthorized, message, nil, nil)
	c.Abort()
}

// parseAccessToken validates a bearer token and returns its claims. Only
// access tokens pass; refresh tokens are rejected so they cannot be used
// against protected routes.
func parseAccessToken(cfg *config.Config, authHeader string) (jwt.MapClaims, string) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "authorization header format must be Bearer {token}"
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, "invalid or expired token"
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, "invalid token claims"
	}
	if tokenType, ok := claims["type"]; !ok || tokenType != "access" {
		return nil, "invalid token type"
	}

	return claims, ""
}

// JWTAuth authenticates the request and stores the caller's identity in the
// gin context.
func JWTAuth() gin.HandlerFunc {
	return JWTAuthWithConfig(config.Load())
}

func JWTAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header is required")
			return
		}

		claims, errMsg := parseAccessToken(cfg, authHeader)
		if claims == nil {
			unauthorized(c, errMsg)
			return
		}

		c.Set(ContextUserID, claims["user_id"])
		c.Set(ContextUserEmail, claims["email"])
		c.Set(ContextUserRole, claims["role"])
		c.Next()
	}
}

// RequireRoles passes when the authenticated caller holds any of the given
// roles. Must run after JWTAuth.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextUserRole)
		if !exists {
			unauthorized(c, "user role not found in context")
			return
		}

		for _, role := range roles {
			if userRole.(string) == role {
				c.Next()
				return
			}
		}

		response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
		c.Abort()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(string(users.RoleAdmin))
}
