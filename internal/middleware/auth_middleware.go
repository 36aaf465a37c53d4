package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/auth"
)

// Context keys set by JWTAuth
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, message, details string) {
	errorDetail := dto.NewErrorDetail(code, message).WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		// Browsers cannot set headers on a WebSocket handshake, and Swagger UI
		// sometimes sends the token as a query parameter
		if authHeader == "" {
			authHeader = c.Query("token")
		}

		if authHeader == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required", "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required", "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			if errors.Is(err, apperrors.ErrTokenExpired) {
				abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Authentication failed", "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Authentication failed", "Invalid token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RolesRequired lets the request through when the caller has one of roles.
// It must run after JWTAuth.
func (m *AuthMiddleware) RolesRequired(roles ...models.RoleType) gin.HandlerFunc {
	allowed := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed = append(allowed, string(r))
	}

	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required", "User role not found")
			return
		}

		roleType, _ := role.(models.RoleType)
		for _, r := range roles {
			if roleType == r {
				c.Next()
				return
			}
		}

		errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
			WithDetails("This operation requires one of the roles: " + strings.Join(allowed, ", "))
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
	}
}

// CurrentUser returns the caller identity stored by JWTAuth
func CurrentUser(c *gin.Context) (int64, models.RoleType, bool) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return 0, "", false
	}
	role, ok := c.Get(ContextRole)
	if !ok {
		return 0, "", false
	}
	id, ok1 := userID.(int64)
	roleType, ok2 := role.(models.RoleType)
	return id, roleType, ok1 && ok2
}
