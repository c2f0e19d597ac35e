package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/formhub-api/api/swagger"
	"github.com/noah-isme/formhub-api/internal/handler"
	"github.com/noah-isme/formhub-api/internal/middleware"
	"github.com/noah-isme/formhub-api/internal/models"
	"github.com/noah-isme/formhub-api/internal/repository"
	"github.com/noah-isme/formhub-api/internal/service"
	"github.com/noah-isme/formhub-api/pkg/cache"
	"github.com/noah-isme/formhub-api/pkg/config"
	"github.com/noah-isme/formhub-api/pkg/database"
	"github.com/noah-isme/formhub-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/formhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/formhub-api/pkg/middleware/requestid"
	"github.com/noah-isme/formhub-api/pkg/storage"
)

// @title FormHub API
// @version 1.0.0
// @description Submission validation, analytics and export pipeline
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, analytics caching disabled", zap.Error(err))
		redisClient = nil
	}

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	// Repositories.
	formRepo := repository.NewFormRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)
	historyRepo := repository.NewExportHistoryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, cfg.Analytics.CacheEnabled && redisClient != nil)
	validationSvc := service.NewValidationService()
	formSvc := service.NewFormService(formRepo, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, formRepo, validationSvc, logr)
	analyticsSvc := service.NewAnalyticsService(cacheSvc, metricsSvc, logr)
	exportSvc := service.NewExportService(exportStore, signer, metricsSvc, logr)
	historySvc := service.NewExportHistoryService(historyRepo, cfg.Exports.HistoryLimit, cfg.Exports.PersistedLimit, logr)
	queueSvc := service.NewExportQueueService(exportSvc, historySvc, metricsSvc, cfg.Exports.QueueBuffer, logr)
	authSvc := service.NewAuthService(userRepo, validator.New(), logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := historySvc.Load(ctx); err != nil {
		logr.Warn("failed to load persisted export history", zap.Error(err))
	}
	queueSvc.Start(ctx)

	go func() {
		ticker := time.NewTicker(cfg.Exports.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				exportSvc.Cleanup(cfg.Exports.ResultTTL)
			}
		}
	}()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	formHandler := handler.NewFormHandler(formSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	analyticsHandler := handler.NewAnalyticsHandler(submissionSvc, analyticsSvc, exportSvc)
	exportHandler := handler.NewExportHandler(submissionSvc, queueSvc, historySvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/forms/:id/submissions", submissionHandler.Create)
		api.POST("/forms/:id/submissions/validate", submissionHandler.Validate)
		api.GET("/exports/download/:token", exportHandler.Download)

		authed := api.Group("", middleware.JWT(authSvc))
		{
			authed.GET("/auth/me", authHandler.Me)

			authed.GET("/forms", formHandler.List)
			authed.GET("/forms/:id", formHandler.Get)
			authed.GET("/forms/:id/submissions", submissionHandler.List)
			authed.GET("/forms/:id/analytics", analyticsHandler.FormAnalytics)
			authed.GET("/forms/:id/analytics/summary.pdf", analyticsHandler.SummaryPDF)
			authed.GET("/submissions/:id", submissionHandler.Get)

			authed.GET("/exports/:id", exportHandler.Status)
			authed.GET("/exports/queue", exportHandler.QueueStatus)
			authed.GET("/exports/completed", exportHandler.Completed)
			authed.GET("/exports/history", exportHandler.History)
			authed.GET("/exports/statistics", exportHandler.Statistics)

			editors := authed.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleEditor))
			{
				editors.POST("/forms", formHandler.Create)
				editors.PATCH("/forms/:id", formHandler.Update)
				editors.PATCH("/submissions/:id", submissionHandler.Review)
				editors.POST("/forms/:id/exports", exportHandler.Enqueue)
				editors.DELETE("/exports/completed", exportHandler.ClearCompleted)
			}

			admins := authed.Group("", middleware.RequireRoles(models.RoleAdmin))
			{
				admins.DELETE("/forms/:id", formHandler.Delete)
				admins.DELETE("/submissions/:id", submissionHandler.Delete)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Warn("forced shutdown", zap.Error(err))
	}
	cancel()
	queueSvc.Stop()
}
