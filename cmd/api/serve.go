package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-portal/internal/auth"
	"github.com/justsurfingit/job-portal/internal/chat"
	"github.com/justsurfingit/job-portal/internal/database"
	"github.com/justsurfingit/job-portal/internal/handlers"
	"github.com/justsurfingit/job-portal/internal/services"
	"github.com/justsurfingit/job-portal/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func runServe(ctx context.Context) error {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Database Connection
	db, err := openDB()
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	if err := database.Seed(db); err != nil {
		return err
	}
	master, err := database.LoadMaster(cfg.RecommendConfig)
	if err != nil {
		return err
	}

	// 2. Storage and chat relay
	store, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	hub := chat.NewHub(log.Named("chat"))
	var broker *chat.RedisBroker
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		broker = chat.NewRedisBroker(rdb, cfg.RedisChannel, hub, log.Named("chat"))
		hub.UsePublisher(broker)
	}

	// 3. Services
	masterSvc := services.NewMasterService(db)
	llm, err := services.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.LLMModel, masterSvc)
	if err != nil {
		return err
	}
	if !llm.Enabled() {
		log.Warn("GEMINI_API_KEY not set, job extraction disabled")
	}
	analytics := services.NewAnalyticsService(db, log)

	router := handlers.NewRouter(handlers.Deps{
		Config:       cfg,
		Log:          log,
		DB:           db,
		Tokens:       auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
		Hub:          hub,
		Users:        services.NewUserService(db),
		Companies:    services.NewCompanyService(db),
		Master:       masterSvc,
		Jobs:         services.NewJobService(db, log, master.Recommend),
		Favorites:    services.NewFavoriteService(db),
		Applications: services.NewApplicationService(db, log),
		Chat:         services.NewChatService(db, log, hub),
		Uploads:      services.NewUploadService(db, log, store, cfg.MaxUploadMB<<20),
		Columns:      services.NewColumnService(db, log),
		Interviews:   services.NewInterviewService(db),
		Analytics:    analytics,
		LLM:          llm,
		Matcher:      services.NewCompanyMatcher(db),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return services.NewStatsWorker(analytics, cfg.StatsInterval, log.Named("stats")).Run(ctx)
	})
	if broker != nil {
		g.Go(func() error { return broker.Run(ctx) })
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
