package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"psychicline-backend/internal/config"
	"psychicline-backend/internal/database"
	"psychicline-backend/internal/events"
	"psychicline-backend/internal/handlers"
	"psychicline-backend/internal/logger"
	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/repository"
	"psychicline-backend/internal/router"
	"psychicline-backend/internal/services"
	"psychicline-backend/internal/tracer"
	"psychicline-backend/internal/websocket"
	"psychicline-backend/internal/worker"
)

const psychicListingTTL = 30 * time.Second

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.LogFile, cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)
	log.Info("starting psychicline backend", zap.String("env", cfg.Env))

	shutdownTracer := tracer.Init(context.Background(), cfg.OTELEnabled, cfg.OTELEndpoint, log)

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pool.Close()
	log.Info("postgres connected")

	// ──── Step 3: Run Database Migrations ────
	if err := database.RunMigrations(cfg.DatabaseURL, log); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	// ──── Step 4: Initialize Redis Clients and NATS ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClients.Close()
	log.Info("redis connected")

	publisher, err := events.NewPublisher(cfg.NATSURL, log)
	if err != nil {
		log.Fatal("nats connection failed", zap.Error(err))
	}
	defer publisher.Close()

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	adminRepo := repository.NewAdminRepo(pool)
	psychicRepo := repository.NewPsychicRepo(pool)
	walletRepo := repository.NewWalletRepo(pool)
	requestRepo := repository.NewChatRequestRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)
	payoutRepo := repository.NewPayoutRepo(pool)
	messageRepo := repository.NewMessageRepo(pool)
	ratingRepo := repository.NewRatingRepo(pool)
	statsRepo := repository.NewStatsRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	notifier := services.NewNotifier(redisClients.Main, log)
	jobQueue := services.NewJobQueue(redisClients.Main)
	limiter := middleware.NewLimiter(redisClients.Main, log)
	redisLock := services.NewRedisLock(redisClients.Main)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL, log)

	authService := services.NewAuthService(userRepo, psychicRepo, adminRepo, redisClients.Main, jwtAuth, log)
	userService := services.NewUserService(userRepo)
	psychicService := services.NewPsychicService(psychicRepo, psychicListingTTL, log)
	walletService := services.NewWalletService(walletRepo, userRepo, psychicRepo, publisher, log)
	chatRequestService := services.NewChatRequestService(requestRepo, sessionRepo, psychicRepo, userRepo, walletRepo,
		notifier, jobQueue, publisher, limiter, cfg.SendRequestLimit, log)
	sessionService := services.NewSessionService(sessionRepo, services.NewRevenueSplitter(cfg.CommissionRate), notifier, publisher, log)
	payoutService := services.NewPayoutService(psychicRepo, payoutRepo, jobQueue, publisher, log)
	messageService := services.NewMessageService(messageRepo, jobQueue, log)
	ratingService := services.NewRatingService(ratingRepo, sessionRepo)
	analyticsService := services.NewAnalyticsService(redisClients.Main, statsRepo)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatal("bootstrap admin failed", zap.Error(err))
		}
	}

	// ──── Step 5: Start Worker Pool and Scheduler ────
	workerPool := worker.NewPool(redisClients.Main, emailService, jobQueue, redisLock, cfg.WorkerCount, log)
	workerPool.Start()

	scheduler := services.NewScheduler(chatRequestService, sessionService, redisLock,
		cfg.PendingRequestTTL, cfg.AcceptedRequestTTL, log)
	if err := scheduler.Start(); err != nil {
		log.Fatal("scheduler start failed", zap.Error(err))
	}

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, log)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(jwtAuth, router.Handlers{
		Auth:        handlers.NewAuthHandler(authService),
		Psychics:    handlers.NewPsychicHandler(psychicService, payoutService),
		Users:       handlers.NewUserHandler(userService),
		Wallet:      handlers.NewWalletHandler(walletService),
		ChatRequest: handlers.NewChatRequestHandler(chatRequestService, sessionService),
		AdminData:   handlers.NewAdminDataHandler(sessionService),
		Payments:    handlers.NewPaymentHandler(payoutService),
		Stats:       handlers.NewStatsHandler(analyticsService),
		Messages:    handlers.NewMessageHandler(messageService),
		Ratings:     handlers.NewRatingHandler(ratingService),
	}, wsHub, cfg.FrontendURL, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("http shutdown", zap.Error(err))
		}
		wsHub.Close()
		scheduler.Stop()
		workerPool.Stop()
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown", zap.Error(err))
		}
	}()

	log.Info("psychicline backend ready",
		zap.String("api", fmt.Sprintf("http://localhost:%s/api", cfg.Port)),
		zap.String("ws", fmt.Sprintf("ws://localhost:%s/api/ws", cfg.Port)),
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
	<-done
}
