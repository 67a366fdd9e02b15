package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-portal/internal/auth"
	"github.com/justsurfingit/job-portal/internal/chat"
	"github.com/justsurfingit/job-portal/internal/config"
	"github.com/justsurfingit/job-portal/internal/middleware"
	"github.com/justsurfingit/job-portal/internal/models"
	"github.com/justsurfingit/job-portal/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Config config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Tokens *auth.TokenManager
	Hub    *chat.Hub

	Users        *services.UserService
	Companies    *services.CompanyService
	Master       *services.MasterService
	Jobs         *services.JobService
	Favorites    *services.FavoriteService
	Applications *services.ApplicationService
	Chat         *services.ChatService
	Uploads      *services.UploadService
	Columns      *services.ColumnService
	Interviews   *services.InterviewService
	Analytics    *services.AnalyticsService
	LLM          *services.LLMService
	Matcher      *services.CompanyMatcher
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(d.Log), middleware.Recovery(d.Log))

	corsCfg := cors.DefaultConfig()
	if len(d.Config.CORSOrigins) == 0 || d.Config.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = d.Config.CORSOrigins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsCfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsCfg.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsCfg))

	if d.Config.StorageDriver == "local" {
		r.Static("/uploads", d.Config.UploadDir)
	}

	authMW := auth.NewMiddleware(d.Tokens, d.DB)
	requireAuth := authMW.RequireAuth()
	seeker := auth.RequireRole(models.RoleJobSeeker)
	employer := auth.RequireRole(models.RoleEmployer)
	employerOrAdmin := auth.RequireRole(models.RoleEmployer, models.RoleAdmin)

	authH := NewAuthHandler(d.Users, d.Tokens)
	jobH := NewJobHandler(d.LLM, d.Jobs, d.Matcher)
	companyH := NewCompanyHandler(d.Companies, d.Master)
	appH := NewApplicationHandler(d.Applications, d.Favorites)
	chatH := NewChatHandler(d.Chat, d.Hub, d.Config.CORSOrigins, d.Log)
	uploadH := NewUploadHandler(d.Uploads)
	contentH := NewContentHandler(d.Columns, d.Interviews)
	adminH := NewAdminHandler(d.Users, d.Analytics)

	api := r.Group("/api/v1")
	{
		api.GET("/health", HealthCheck(d.DB))

		a := api.Group("/auth")
		a.POST("/register", authH.Register)
		a.POST("/login", middleware.NewIPRateLimiter(d.Config.LoginRatePerMin).Middleware(), authH.Login)
		a.GET("/me", requireAuth, authH.Me)
		a.PUT("/me", requireAuth, authH.UpdateMe)
		a.PUT("/me/password", requireAuth, authH.ChangePassword)

		api.GET("/master/features", companyH.Features)
		api.GET("/master/prefectures", companyH.Prefectures)

		// Job Routes
		api.GET("/jobs", authMW.OptionalAuth(), jobH.Search)
		api.GET("/jobs/:id", authMW.OptionalAuth(), jobH.GetJob)
		api.POST("/jobs/extract", requireAuth, employerOrAdmin, jobH.ParseJob)
		api.POST("/jobs", requireAuth, employer, jobH.CreateJob)
		api.PUT("/jobs/:id", requireAuth, employerOrAdmin, jobH.UpdateJob)
		api.DELETE("/jobs/:id", requireAuth, employerOrAdmin, jobH.DeleteJob)
		api.POST("/jobs/:id/publish", requireAuth, employerOrAdmin, jobH.Publish)
		api.POST("/jobs/:id/close", requireAuth, employerOrAdmin, jobH.Close)

		api.GET("/companies/:id", companyH.Get)

		api.POST("/jobs/:id/favorite", requireAuth, seeker, appH.AddFavorite)
		api.DELETE("/jobs/:id/favorite", requireAuth, seeker, appH.RemoveFavorite)
		api.POST("/jobs/:id/applications", requireAuth, seeker, appH.Apply)

		me := api.Group("/me", requireAuth, seeker)
		me.GET("/favorites", appH.ListFavorites)
		me.GET("/applications", appH.ListMine)

		api.POST("/applications/:id/withdraw", requireAuth, seeker, appH.Withdraw)
		api.PATCH("/applications/:id/status", requireAuth, employerOrAdmin, appH.UpdateStatus)
		api.GET("/applications/:id", requireAuth, appH.Get)

		emp := api.Group("/employer", requireAuth, employer)
		emp.GET("/company", companyH.Mine)
		emp.PUT("/company", companyH.Upsert)
		emp.GET("/jobs", jobH.ListMine)
		emp.GET("/applications", appH.ListForEmployer)
		emp.GET("/analytics", adminH.EmployerStats)

		ch := api.Group("/chat", requireAuth, auth.RequireRole(models.RoleJobSeeker, models.RoleEmployer))
		ch.GET("/ws", chatH.Connect)
		ch.POST("/rooms", chatH.OpenRoom)
		ch.GET("/rooms", chatH.ListRooms)
		ch.GET("/rooms/:id/messages", chatH.Messages)
		ch.POST("/rooms/:id/messages", chatH.Send)
		ch.POST("/rooms/:id/read", chatH.MarkRead)
		ch.GET("/unread", chatH.Unread)

		api.POST("/uploads", requireAuth, uploadH.Upload)

		api.GET("/columns", contentH.ListColumns)
		api.GET("/columns/:slug", contentH.GetColumn)
		api.GET("/interviews", contentH.ListInterviews)
		api.GET("/interviews/:id", contentH.GetInterview)

		adm := api.Group("/admin", requireAuth, auth.RequireRole(models.RoleAdmin))
		adm.GET("/users", adminH.ListUsers)
		adm.PATCH("/users/:id/suspend", adminH.Suspend)
		adm.PATCH("/jobs/:id", jobH.AdminUpdate)
		adm.GET("/analytics/summary", adminH.Summary)
		adm.GET("/analytics/top-jobs", adminH.TopJobs)
		adm.GET("/columns", contentH.AdminListColumns)
		adm.POST("/columns", contentH.CreateColumn)
		adm.PUT("/columns/:id", contentH.UpdateColumn)
		adm.DELETE("/columns/:id", contentH.DeleteColumn)
		adm.GET("/interviews", contentH.AdminListInterviews)
		adm.GET("/interviews/:id", contentH.AdminGetInterview)
		adm.POST("/interviews", contentH.CreateInterview)
		adm.PUT("/interviews/:id", contentH.UpdateInterview)
		adm.DELETE("/interviews/:id", contentH.DeleteInterview)
	}
	return r
}
