package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mentorlink/mentor-api/internal/calendar"
	"github.com/mentorlink/mentor-api/internal/config"
	"github.com/mentorlink/mentor-api/internal/email"
	"github.com/mentorlink/mentor-api/internal/handler"
	appointmentHandler "github.com/mentorlink/mentor-api/internal/handler/appointment"
	authHandler "github.com/mentorlink/mentor-api/internal/handler/auth"
	mentorHandler "github.com/mentorlink/mentor-api/internal/handler/mentor"
	"github.com/mentorlink/mentor-api/internal/middleware"
	"github.com/mentorlink/mentor-api/internal/model"
	"github.com/mentorlink/mentor-api/internal/repository/postgres"
	"github.com/mentorlink/mentor-api/internal/router"
	appointmentService "github.com/mentorlink/mentor-api/internal/service/appointment"
	authService "github.com/mentorlink/mentor-api/internal/service/auth"
	mentorService "github.com/mentorlink/mentor-api/internal/service/mentor"
	"github.com/mentorlink/mentor-api/internal/service/rbac"
	"github.com/mentorlink/mentor-api/pkg/auth"
	"github.com/mentorlink/mentor-api/pkg/logger"
	"github.com/mentorlink/mentor-api/pkg/messaging/redis"
	"github.com/mentorlink/mentor-api/pkg/metrics"
	"github.com/mentorlink/mentor-api/pkg/security"
	"github.com/mentorlink/mentor-api/pkg/worker"
)

func main() {
	log := logger.NewLogger(nil)

	if err := model.ValidatePermissionTable(); err != nil {
		log.Fatal(err, "Permission table is inconsistent")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "Failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	feedbackRepo := postgres.NewFeedbackRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	m := metrics.New("mentorlink")

	jwtSvc := auth.NewJWTService(auth.JWTConfig{
		Secret:             cfg.JWT.Secret,
		RefreshSecret:      cfg.JWT.RefreshSecret,
		ExpiryHours:        cfg.JWT.ExpiryHours,
		RefreshExpiryHours: cfg.JWT.RefreshExpiryHours,
	})
	emailSvc := email.NewSMTPService(cfg.Email)
	calendarClient := calendar.NewHTTPClient(cfg.Calendar)

	hasher := security.NewHasher(cfg.Security.BcryptCost)

	rbacSvc := rbac.NewService(userRepo)
	authSvc := authService.NewService(userRepo, jwtSvc, emailSvc, rbacSvc, hasher, cfg.JWT.ExpiryHours)
	mentorSvc := mentorService.NewService(userRepo, feedbackRepo, outboxRepo, rbacSvc)
	appointmentSvc := appointmentService.NewService(
		appointmentRepo, userRepo, outboxRepo, calendarClient, emailSvc, m, cfg.Calendar.Timeout)

	authMw := middleware.NewAuthMiddleware(rbacSvc, authSvc)

	r := router.NewRouter(
		authMw,
		authHandler.NewHandler(authSvc),
		appointmentHandler.NewHandler(appointmentSvc, rbacSvc),
		mentorHandler.NewHandler(mentorSvc),
		handler.NewHealthHandler(db),
		router.Config{
			RateLimitRPS:   rateLimitRPS(cfg.RateLimit),
			RateLimitBurst: cfg.RateLimit.Burst,
			RequestTimeout: cfg.Server.RequestTimeout,
			CORSConfig:     middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	brokerLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &brokerLog)
	if err != nil {
		log.Fatal(err, "Failed to connect to Redis")
	}
	defer broker.Close()

	outboxProcessor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay,
	}, log, m)
	go outboxProcessor.Start(ctx)

	reconciler := worker.NewReconciler(appointmentRepo, userRepo, calendarClient, worker.ReconcilerConfig{
		Interval:  cfg.Workers.ReconcileInterval,
		BatchSize: cfg.Workers.ReconcileBatch,
	}, log, m)
	go reconciler.Start(ctx)

	reminder := worker.NewReminder(appointmentRepo, userRepo, emailSvc, worker.ReminderConfig{
		Interval: cfg.Workers.ReminderInterval,
		Lead:     cfg.Workers.ReminderLead,
	}, log, m)
	go reminder.Start(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Forced shutdown")
	}
	log.Info("Server stopped")
}

func rateLimitRPS(cfg config.RateLimitConfig) float64 {
	if !cfg.Enabled {
		return 0
	}
	return cfg.RequestsPerSecond
}
