package auth

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-portal/internal/models"
	"gorm.io/gorm"
)

const userKey = "auth.user"

// Middleware resolves bearer tokens to live user rows so that suspensions and
// role changes take effect without waiting for token expiry.
type Middleware struct {
	Tokens *TokenManager
	DB     *gorm.DB
}

func NewMiddleware(tokens *TokenManager, db *gorm.DB) *Middleware {
	return &Middleware{Tokens: tokens, DB: db}
}

// RequireAuth rejects requests without a valid token.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}
		user, err := m.resolve(c, raw)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, errSuspended) {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is sent and never rejects.
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := tokenFromRequest(c); raw != "" {
			if user, err := m.resolve(c, raw); err == nil {
				c.Set(userKey, user)
			}
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !slices.Contains(roles, user.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

var errSuspended = errors.New("account suspended")

func (m *Middleware) resolve(c *gin.Context, raw string) (*models.User, error) {
	claims, err := m.Tokens.Parse(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	id, _ := claims.UserID()

	var user models.User
	if err := m.DB.WithContext(c.Request.Context()).First(&user, id).Error; err != nil {
		return nil, ErrInvalidToken
	}
	if user.Suspended {
		return nil, errSuspended
	}
	return &user, nil
}

// WebSocket upgrades cannot carry headers from browsers, so ?token= is accepted too.
func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
		return ""
	}
	return c.Query("token")
}
