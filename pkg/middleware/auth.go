package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/richxcame/rental-insights/pkg/common"
)

// Role is the kind of account behind a token
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAgency Role = "agency"
)

const (
	userIDKey   = "user_id"
	userRoleKey = "user_role"
	agencyIDKey = "agency_id"
)

// Claims represents JWT claims. AgencyID is set for agency staff accounts.
type Claims struct {
	UserID   uuid.UUID  `json:"user_id"`
	Email    string     `json:"email"`
	Role     Role       `json:"role"`
	AgencyID *uuid.UUID `json:"agency_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates HMAC-signed bearer tokens
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}))

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "authorization required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := parser.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userRoleKey, claims.Role)
		if claims.AgencyID != nil {
			c.Set(agencyIDKey, *claims.AgencyID)
		}

		c.Next()
	}
}

// RequireRole middleware checks if user has required role
func RequireRole(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRole(c)
		if err != nil {
			common.ErrorResponse(c, http.StatusUnauthorized, "user role not found")
			c.Abort()
			return
		}

		for _, required := range roles {
			if role == required {
				c.Next()
				return
			}
		}

		common.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
		c.Abort()
	}
}

// RequireAdmin limits a route to platform administrators.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, common.ErrUnauthorized
	}
	id, ok := userID.(uuid.UUID)
	if !ok {
		return uuid.Nil, common.ErrUnauthorized
	}
	return id, nil
}

// GetUserRole extracts user role from context
func GetUserRole(c *gin.Context) (Role, error) {
	role, exists := c.Get(userRoleKey)
	if !exists {
		return "", common.ErrUnauthorized
	}
	r, ok := role.(Role)
	if !ok {
		return "", common.ErrUnauthorized
	}
	return r, nil
}

// GetAgencyID returns the agency the caller belongs to, if any
func GetAgencyID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(agencyIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
