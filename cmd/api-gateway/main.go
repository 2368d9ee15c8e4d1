package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/arka-edu/timetable-api/api/swagger"
	"github.com/arka-edu/timetable-api/internal/handler"
	"github.com/arka-edu/timetable-api/internal/middleware"
	"github.com/arka-edu/timetable-api/internal/repository"
	"github.com/arka-edu/timetable-api/internal/service"
	"github.com/arka-edu/timetable-api/pkg/cache"
	"github.com/arka-edu/timetable-api/pkg/config"
	"github.com/arka-edu/timetable-api/pkg/database"
	"github.com/arka-edu/timetable-api/pkg/logger"
	corsmiddleware "github.com/arka-edu/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/arka-edu/timetable-api/pkg/middleware/requestid"
)

// @title Institute Timetable API
// @version 1.0.0
// @description Weekly timetable editing, conflict detection, and substitution planning
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Reference data falls back to the database when the cache is down.
		logr.Sugar().Warnw("redis unavailable, running without reference cache", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	timetableRepo := repository.NewTimetableRepository(db)
	teacherRepo := repository.NewTeacherLoadRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	examRepo := repository.NewExamBlockRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metrics := service.NewMetrics()
	refs := service.NewReferenceService(teacherRepo, holidayRepo, examRepo, cacheRepo, cfg.Timetable.ReferenceCacheTTL, logr).WithMetrics(metrics)
	sessions := service.NewSessionService(timetableRepo, cfg.Timetable, validate, logr)
	blackout := service.NewBlackoutService(refs, cfg.Timetable, logr)
	subs := service.NewSubstitutionService(sessions, refs, validate, logr)
	replication := service.NewReplicationService(sessions, blackout, validate, logr)
	exports := service.NewExportService(sessions, cfg.Export, logr)
	auth := service.NewAuthService(userRepo, cfg.JWT, validate, logr)

	exportJobs, err := service.NewExportJobService(exports, cfg.Export, cfg.JWT.Secret, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export pipeline", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportJobs.Start(ctx)
	defer exportJobs.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	healthHandler := handler.NewHealthHandler(db, redisClient)
	authHandler := handler.NewAuthHandler(auth, logr)
	sessionHandler := handler.NewSessionHandler(sessions, refs, blackout, metrics, logr)
	absenceHandler := handler.NewAbsenceHandler(subs, logr)
	blackoutHandler := handler.NewBlackoutHandler(blackout, logr)
	replicationHandler := handler.NewReplicationHandler(replication, metrics, logr)
	exportHandler := handler.NewExportHandler(exports, exportJobs, metrics, logr)
	referenceHandler := handler.NewReferenceHandler(refs, logr)

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/downloads", exportHandler.Fetch)

	protected := api.Group("")
	protected.Use(middleware.Auth(auth))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.POST("/sessions", sessionHandler.Open)
		protected.GET("/sessions", sessionHandler.List)
		protected.GET("/sessions/:id", sessionHandler.Get)
		protected.DELETE("/sessions/:id", sessionHandler.Close)
		protected.POST("/sessions/:id/commit", sessionHandler.Commit)

		protected.GET("/sessions/:id/entries", sessionHandler.Entries)
		protected.POST("/sessions/:id/entries", sessionHandler.AddEntry)
		protected.DELETE("/sessions/:id/entries/:entryId", sessionHandler.RemoveEntry)
		protected.PATCH("/sessions/:id/entries/:entryId/move", sessionHandler.MoveEntry)
		protected.POST("/sessions/:id/can-place", sessionHandler.CanPlace)

		protected.POST("/sessions/:id/undo", sessionHandler.Undo)
		protected.POST("/sessions/:id/redo", sessionHandler.Redo)
		protected.GET("/sessions/:id/history", sessionHandler.History)
		protected.GET("/sessions/:id/conflicts", sessionHandler.Conflicts)

		protected.POST("/sessions/:id/absences", absenceHandler.MarkAbsent)
		protected.GET("/sessions/:id/absences", absenceHandler.List)
		protected.GET("/sessions/:id/absences/:absenceId", absenceHandler.Report)
		protected.DELETE("/sessions/:id/absences/:absenceId", absenceHandler.Cancel)
		protected.GET("/sessions/:id/absences/:absenceId/affected", absenceHandler.Affected)
		protected.GET("/sessions/:id/absences/:absenceId/substitutes", absenceHandler.Substitutes)
		protected.POST("/sessions/:id/absences/:absenceId/assignments", absenceHandler.Assign)

		protected.POST("/sessions/:id/replicate", replicationHandler.CopyWeek)
		protected.GET("/sessions/:id/export", exportHandler.Download)

		protected.POST("/exports", exportHandler.Enqueue)
		protected.GET("/exports", exportHandler.Jobs)
		protected.GET("/exports/:jobId", exportHandler.Job)

		protected.GET("/blackouts/check", blackoutHandler.CheckSlot)
		protected.GET("/blackouts/day", blackoutHandler.CheckDay)

		protected.GET("/reference/teachers", referenceHandler.TeacherLoads)
		protected.GET("/reference/teachers/:teacherId", referenceHandler.TeacherLoad)
		protected.GET("/reference/holidays", referenceHandler.Holidays)
		protected.GET("/reference/exam-blocks", referenceHandler.ExamBlocks)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}
