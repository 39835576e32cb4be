package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/studytrackhq/studytrack-api/api/swagger"
	"github.com/studytrackhq/studytrack-api/internal/handler"
	internalmiddleware "github.com/studytrackhq/studytrack-api/internal/middleware"
	"github.com/studytrackhq/studytrack-api/internal/repository"
	"github.com/studytrackhq/studytrack-api/internal/service"
	"github.com/studytrackhq/studytrack-api/pkg/cache"
	"github.com/studytrackhq/studytrack-api/pkg/config"
	"github.com/studytrackhq/studytrack-api/pkg/database"
	"github.com/studytrackhq/studytrack-api/pkg/logger"
	corsmiddleware "github.com/studytrackhq/studytrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studytrackhq/studytrack-api/pkg/middleware/requestid"
)

// @title StudyTrack API
// @version 1.0.0
// @description Role-gated CRUD API for subjects, assignments, and exams
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	examRepo := repository.NewExamRepository(db)
	tokenRepo := repository.NewTokenRepository(redisClient)

	authService := service.NewAuthService(userRepo, tokenRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	subjectService := service.NewSubjectService(subjectRepo, validate, logr)
	assignmentService := service.NewAssignmentService(assignmentRepo, subjectRepo, validate, logr)
	examService := service.NewExamService(examRepo, subjectRepo, validate, logr)
	metricsService := service.NewMetricsService()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, authService, handler.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Subject:    handler.NewSubjectHandler(subjectService),
		Assignment: handler.NewAssignmentHandler(assignmentService),
		Exam:       handler.NewExamHandler(examService),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
