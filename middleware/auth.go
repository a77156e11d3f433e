// Package middleware provides gin middleware for authentication and role
// gating.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	config "github.com/tumaini/giving-portal-go/config"
	models "github.com/tumaini/giving-portal-go/models"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// AuthMiddleware validates the Bearer token and resolves the caller's role
// onto the closed enum once, so handlers never re-derive it from raw claims.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		userID, _ := claims["user_id"].(string)
		roleStr, _ := claims["role"].(string)
		role, err := models.ParseRole(roleStr)
		if userID == "" || err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextRole, role)
		c.Next()
	}
}

// OptionalAuth resolves identity when a token is present but lets anonymous
// requests through. Used by the checkout flow, which serves guests too.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	auth := AuthMiddleware(cfg)
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		auth(c)
	}
}

// RequireManager allows only roles that may use the admin surface.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ContextRole)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		r, ok := role.(models.Role)
		if !ok || !r.CanManage() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}
