package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventlifecycle/config"
	_ "eventlifecycle/docs"
	"eventlifecycle/internal/adapters/email"
	deliveryhttp "eventlifecycle/internal/delivery/http"
	"eventlifecycle/internal/delivery/http/controllers"
	"eventlifecycle/internal/delivery/http/middleware"
	"eventlifecycle/internal/repository/postgres"
	"eventlifecycle/internal/scheduler"
	"eventlifecycle/internal/services"
)

// @title Event Lifecycle API
// @version 1.0
// @description Event lifecycle and registration service.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	if err := postgres.Migrate(context.Background(), db); err != nil {
		logger.Error("failed to migrate database", "err", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	eventRepo := postgres.NewEventRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)
	uow := postgres.NewUnitOfWork(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mailer.Provider,
		FromAddress: cfg.Mailer.FromAddress,
		FromName:    cfg.Mailer.FromName,
		ServiceURL:  cfg.Mailer.ServiceURL,
		SES: email.SESConfig{
			Region:             cfg.Mailer.SESRegion,
			AccessKeyID:        cfg.Mailer.SESAccessKeyID,
			SecretAccessKey:    cfg.Mailer.SESSecretAccessKey,
			InsecureSkipVerify: cfg.Mailer.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())
	notifier := services.NewNotificationService(subscriptionRepo, emailService, logger)

	eventService := services.NewEventService(
		uow, eventRepo, subscriptionRepo, notifier, logger,
		cfg.MinEventDuration, 30*time.Second, cfg.NotificationTimeout,
	)

	eventController := controllers.NewEventController(logger, eventService)
	mux := deliveryhttp.NewRouter(eventController)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(logger, handler)
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	}

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	statusUpdater := scheduler.NewStatusUpdater(uow, eventRepo, logger, cfg.StatusUpdateInterval)
	go statusUpdater.Run(schedulerCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopScheduler()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
