package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/tms-access-api/api/swagger"
	"github.com/noah-isme/tms-access-api/internal/handler"
	"github.com/noah-isme/tms-access-api/internal/middleware"
	"github.com/noah-isme/tms-access-api/internal/repository"
	"github.com/noah-isme/tms-access-api/internal/service"
	"github.com/noah-isme/tms-access-api/pkg/cache"
	"github.com/noah-isme/tms-access-api/pkg/config"
	"github.com/noah-isme/tms-access-api/pkg/database"
	"github.com/noah-isme/tms-access-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tms-access-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tms-access-api/pkg/middleware/requestid"
)

// @title TMS Access API
// @version 1.0.0
// @description Enrollment admission and time-gated session access
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	// Redis is optional. Progress reports are recomputed from the ledger on
	// every request when the cache is unavailable.
	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, running without progress cache", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Progress.CacheTTL, logr, cfg.Progress.CacheEnabled)
	}

	sessionRepo := repository.NewSessionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	authSvc := service.NewAuthService(cfg.JWT)
	sessionSvc := service.NewSessionService(sessionRepo, logr)
	admissionSvc := service.NewAdmissionService(enrollmentRepo, cacheSvc, metricsSvc, validate, logr)
	accessSvc := service.NewAccessService(sessionRepo, enrollmentRepo, cfg.Access.JoinLeadTime, metricsSvc, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, enrollmentRepo, sessionRepo, cacheSvc, metricsSvc, validate, logr)
	progressSvc := service.NewProgressService(enrollmentRepo, sessionRepo, attendanceRepo, cacheSvc, cfg.Progress.CacheTTL, logr)

	sessionHandler := handler.NewSessionHandler(sessionSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(admissionSvc, progressSvc)
	accessHandler := handler.NewAccessHandler(accessSvc, cfg.Access.AllowAtParam && cfg.Env != config.EnvProduction)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, cfg.Exports.Enabled)
	progressHandler := handler.NewProgressHandler(progressSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	{
		api.GET("/sessions", sessionHandler.List)
		api.GET("/sessions/:id", sessionHandler.Get)
		api.GET("/sessions/:id/occurrences", sessionHandler.ListOccurrences)

		api.POST("/enrollments", enrollmentHandler.Enroll)
		api.GET("/enrollments", enrollmentHandler.List)
		api.GET("/enrollments/:id", enrollmentHandler.Get)
		api.POST("/enrollments/:id/cancel", enrollmentHandler.Cancel)
		api.POST("/enrollments/:id/complete", enrollmentHandler.Complete)
		api.GET("/enrollments/:id/attendance", attendanceHandler.History)
		api.GET("/enrollments/:id/progress", progressHandler.Get)

		api.PUT("/attendance", attendanceHandler.Record)

		api.GET("/occurrences/:id/access", accessHandler.Check)
		api.GET("/occurrences/:id/roster", attendanceHandler.ExportRoster)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
