package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/smkharapan/guru-ganti-api/api/swagger"
	"github.com/smkharapan/guru-ganti-api/internal/handler"
	"github.com/smkharapan/guru-ganti-api/internal/middleware"
	"github.com/smkharapan/guru-ganti-api/internal/models"
	"github.com/smkharapan/guru-ganti-api/internal/repository"
	"github.com/smkharapan/guru-ganti-api/internal/service"
	"github.com/smkharapan/guru-ganti-api/pkg/cache"
	"github.com/smkharapan/guru-ganti-api/pkg/config"
	"github.com/smkharapan/guru-ganti-api/pkg/database"
	"github.com/smkharapan/guru-ganti-api/pkg/logger"
	corsmiddleware "github.com/smkharapan/guru-ganti-api/pkg/middleware/cors"
	reqidmiddleware "github.com/smkharapan/guru-ganti-api/pkg/middleware/requestid"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// @title Guru Ganti API
// @version 1.0.0
// @description School administration API with substitute teacher assignment
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Cache is an overlay; the API serves without it.
		logr.Warn("redis unavailable, schedule cache disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	replacementRepo := repository.NewReplacementRepository(db)

	var cacheRepo service.CacheRepository
	cacheEnabled := cfg.Schedule.CacheEnabled && redisClient != nil
	if cacheEnabled {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Schedule.CacheTTL, logr, cacheEnabled)

	// Services.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	lessonSvc := service.NewLessonService(lessonRepo, cacheSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, cacheSvc, metricsSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(lessonRepo, attendanceRepo, replacementRepo, teacherRepo, cacheSvc, logr)
	selectorSvc := service.NewSelectorService(cfg.Selector, logr)
	replacementSvc := service.NewReplacementService(
		replacementRepo, lessonRepo, attendanceRepo, teacherRepo,
		selectorSvc, cacheSvc, metricsSvc, validate, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	replacementHandler := handler.NewReplacementHandler(replacementSvc)
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

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	api.POST("/auth/login", authHandler.Login)

	auth := api.Group("")
	auth.Use(middleware.JWT(authSvc))

	auth.GET("/auth/me", authHandler.Me)
	auth.GET("/metrics/snapshot", metricsHandler.Snapshot)

	auth.GET("/schedule/day", scheduleHandler.Day)
	auth.GET("/teachers", teacherHandler.List)
	auth.GET("/teachers/stats", teacherHandler.Stats)
	auth.GET("/teachers/:id", teacherHandler.Get)
	auth.GET("/lessons", lessonHandler.List)
	auth.GET("/lessons/:id", lessonHandler.Get)
	auth.GET("/attendance", attendanceHandler.List)
	auth.GET("/replacements", replacementHandler.List)

	admin := auth.Group("")
	admin.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))

	admin.POST("/teachers", teacherHandler.Create)
	admin.PUT("/teachers/:id", teacherHandler.Update)
	admin.DELETE("/teachers/:id", teacherHandler.Deactivate)

	admin.POST("/lessons", lessonHandler.Create)
	admin.PUT("/lessons/:id", lessonHandler.Update)
	admin.DELETE("/lessons/:id", lessonHandler.Delete)

	admin.PUT("/attendance", attendanceHandler.Record)
	admin.POST("/attendance/bulk", attendanceHandler.RecordBulk)

	admin.POST("/replacements", replacementHandler.Create)
	admin.POST("/replacements/bulk", replacementHandler.CreateBulk)
	admin.DELETE("/replacements", replacementHandler.Delete)
	admin.POST("/replacements/auto-assign", replacementHandler.AutoAssign)
	if cfg.Export.Enabled {
		admin.GET("/replacements/export", replacementHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
