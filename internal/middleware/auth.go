package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mentorlink/mentor-api/internal/model"
	"github.com/mentorlink/mentor-api/internal/service/auth"
	"github.com/mentorlink/mentor-api/internal/service/rbac"
	"github.com/mentorlink/mentor-api/pkg/httputil"
)

const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
)

type AuthMiddleware struct {
	rbacService *rbac.Service
	authService *auth.Service
}

func NewAuthMiddleware(rbacService *rbac.Service, authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		rbacService: rbacService,
		authService: authService,
	}
}

// Authenticate verifies the JWT token and sets the principal in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, httputil.Response{Status: "error", Message: "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, httputil.Response{Status: "error", Message: "invalid authorization format"})
			c.Abort()
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, httputil.Response{Status: "error", Message: "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID.String())
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// RequirePermission checks the resolved role's static permission set.
// Resolution failures deny access; checks fail closed.
func (m *AuthMiddleware) RequirePermission(permission model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetString(ContextUserID))
		if err != nil {
			c.JSON(http.StatusUnauthorized, httputil.Response{Status: "error", Message: "invalid user ID"})
			c.Abort()
			return
		}

		if !m.rbacService.HasPermission(c.Request.Context(), userID, permission) {
			c.JSON(http.StatusForbidden, httputil.Response{Status: "error", Message: "permission denied"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAdmin gates admin-only routes.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetString(ContextUserID))
		if err != nil {
			c.JSON(http.StatusUnauthorized, httputil.Response{Status: "error", Message: "invalid user ID"})
			c.Abort()
			return
		}

		if !m.rbacService.HasAnyRole(c.Request.Context(), userID, model.RoleAdmin) {
			c.JSON(http.StatusForbidden, httputil.Response{Status: "error", Message: "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUserID extracts the authenticated principal's id from context.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(ContextUserID))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
