package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	config "github.com/tumaini/giving-portal-go/config"
	models "github.com/tumaini/giving-portal-go/models"
	store "github.com/tumaini/giving-portal-go/store"
)

// ---------------- REGISTER ----------------
func Register(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name     string `json:"name" binding:"required"`
			Email    string `json:"email" binding:"required,email"`
			Phone    string `json:"phone"`
			Password string `json:"password" binding:"required,min=8"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process password"})
			return
		}

		user := models.User{
			Name:         input.Name,
			Email:        input.Email,
			Phone:        input.Phone,
			PasswordHash: string(hash),
			Role:         models.RoleDonor,
		}

		id, ce := store.Insert(c.Request.Context(), s, store.ColUsers, user)
		if ce != nil {
			if ce.Class == store.ClassPrecondition {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
				return
			}
			respondStoreError(c, ce, "could not register user")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": id.Hex(), "message": "user registered"})
	}
}

// ---------------- LOGIN ----------------
func Login(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		users, ce := store.Find[models.User](c.Request.Context(), s, store.ColUsers, store.Query{
			Filter: bson.M{"email": input.Email},
			Limit:  1,
		})
		if ce != nil {
			respondStoreError(c, ce, "could not log in")
			return
		}
		if len(users) == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		user := users[0]

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		access, refresh, err := issueTokens(cfg, user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token":  access,
			"refresh_token": refresh,
			"user":          user,
		})
	}
}

// ---------------- REFRESH ----------------
func RefreshToken(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(input.RefreshToken, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTRefreshSecret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}

		userID, _ := claims["user_id"].(string)
		roleStr, _ := claims["role"].(string)
		role, roleErr := models.ParseRole(roleStr)
		if userID == "" || roleErr != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token claims"})
			return
		}

		access, err := signToken(cfg.JWTSecret, userID, role, cfg.AccessTokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"access_token": access})
	}
}

func issueTokens(cfg *config.Config, user models.User) (string, string, error) {
	access, err := signToken(cfg.JWTSecret, user.ID.Hex(), user.Role, cfg.AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := signToken(cfg.JWTRefreshSecret, user.ID.Hex(), user.Role, cfg.RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func signToken(secret, userID string, role models.Role, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
