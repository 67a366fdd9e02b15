package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-portal/internal/auth"
	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/services"
	"gorm.io/gorm"
)

// AdminHandler serves user moderation and analytics.
type AdminHandler struct {
	Users     *services.UserService
	Analytics *services.AnalyticsService
}

func NewAdminHandler(users *services.UserService, analytics *services.AnalyticsService) *AdminHandler {
	return &AdminHandler{Users: users, Analytics: analytics}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var q dtos.UserListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.Users.List(c.Request.Context(), &q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AdminHandler) Suspend(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.SuspendRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Users.SetSuspended(c.Request.Context(), auth.CurrentUser(c), id, *req.Suspended)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) Summary(c *gin.Context) {
	var q dtos.AnalyticsQuery
	if !bindQuery(c, &q) {
		return
	}
	summary, err := h.Analytics.Summary(c.Request.Context(), &q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AdminHandler) TopJobs(c *gin.Context) {
	var q dtos.AnalyticsQuery
	if !bindQuery(c, &q) {
		return
	}
	stats, err := h.Analytics.TopJobs(c.Request.Context(), &q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// EmployerStats is GET /employer/analytics.
func (h *AdminHandler) EmployerStats(c *gin.Context) {
	stats, err := h.Analytics.EmployerStats(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HealthCheck pings the database.
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	}
}
