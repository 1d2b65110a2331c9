package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"imaginarium/internal/config"
	"imaginarium/internal/database"
	"imaginarium/internal/handler"
	"imaginarium/internal/logger"
	"imaginarium/internal/push"
	"imaginarium/internal/queue"
	"imaginarium/internal/redis"
	"imaginarium/internal/render"
	"imaginarium/internal/repository"
	"imaginarium/internal/service"
	"imaginarium/internal/storage"
	authmw "imaginarium/internal/transport/http/middleware"
	"imaginarium/internal/worker"
)

const (
	appName = "imaginarium"

	// Submissions hold the connection for the whole render.
	writeTimeout = 5 * time.Minute

	// In-flight submissions must finish before the dispatcher and database
	// close behind them.
	shutdownTimeout = writeTimeout

	limiterCleanupInterval = 5 * time.Minute
	limiterMaxIdle         = 10 * time.Minute
)

// Run wires every component from the environment and serves until SIGINT or
// SIGTERM.
func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(appName, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	db, err := database.Connect(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db, log); err != nil {
		return err
	}

	// 3. Image service
	store, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	var generator render.Generator
	switch cfg.ImageGenerator {
	case "http":
		generator = render.NewHTTPGenerator(cfg.ImageGeneratorURL, cfg.ImageGeneratorAPIKey, store, log)
	default:
		log.Warn("using stock image generator")
		generator = render.NewStockGenerator(cfg.StockImageURLs)
	}
	compositor := render.NewFrameCompositor(store, log)

	// 4. Push delivery
	sender, err := newPushSender(ctx, cfg, log)
	if err != nil {
		return err
	}
	dispatcher, stopPush, err := newPushDispatcher(ctx, cfg, sender, log)
	if err != nil {
		return err
	}
	defer stopPush()

	// 5. Repositories and services
	userRepo := repository.NewUserRepository(db)
	imageRepo := repository.NewImageRepository(db)
	creationRepo := repository.NewCreationRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)

	notifService := service.NewNotificationService(notifRepo, userRepo, sender, dispatcher, log)
	creationService := service.NewCreationService(userRepo, imageRepo, creationRepo, generator, compositor, log)
	engagementService := service.NewEngagementService(creationRepo, likeRepo, commentRepo, reportRepo, userRepo,
		notifService, service.EngagementConfig{NotifySelf: cfg.NotifySelf}, log)
	feedService := service.NewFeedService(creationRepo, userRepo)

	// 6. Background jobs
	sweeper := worker.NewSweeper(creationRepo, cfg.PendingSweepSchedule, cfg.PendingMaxAge, log)
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	submitLimiter := authmw.NewPerMinuteRateLimiter(cfg.CreationRatePerMinute)
	submitLimiter.StartCleanup(ctx, limiterCleanupInterval, limiterMaxIdle)

	// 7. Setup Server
	router := NewRouter(RouterConfig{
		CreationHandler:     handler.NewCreationHandler(creationService, log),
		FeedHandler:         handler.NewFeedHandler(feedService, log),
		EngagementHandler:   handler.NewEngagementHandler(engagementService, log),
		NotificationHandler: handler.NewNotificationHandler(notifService, log),
		JWTSecret:           cfg.JWTSecret,
		SubmitLimiter:       submitLimiter,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newPushSender(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (push.Sender, error) {
	switch cfg.PushProvider {
	case "fcm":
		sender, err := push.NewFCMClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseClientEmail, cfg.FirebasePrivateKey, log)
		if err != nil {
			return nil, fmt.Errorf("failed to init fcm: %w", err)
		}
		return sender, nil
	case "expo", "":
		return push.NewExpoClient(cfg.ExpoPushURL, log), nil
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.PushProvider)
	}
}

// newPushDispatcher returns the dispatcher and a stop function that drains
// in-flight sends.
func newPushDispatcher(ctx context.Context, cfg *config.Config, sender push.Sender, log logrus.FieldLogger) (push.Dispatcher, func(), error) {
	if !cfg.PushQueue {
		direct := push.NewDirectDispatcher(sender, log)
		return direct, direct.Wait, nil
	}

	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, nil, err
	}

	consumer := queue.NewConsumer(client.Client, log)
	mgrCfg := worker.DefaultManagerConfig()
	mgrCfg.WorkerCount = cfg.WorkerCount
	manager := worker.NewManager(consumer, worker.NewHandler(sender, log), mgrCfg, log)
	// Workers outlive the signal context so the stream drains through Stop.
	if err := manager.Start(context.WithoutCancel(ctx)); err != nil {
		client.Close()
		return nil, nil, err
	}

	stop := func() {
		manager.Stop()
		client.Close()
	}
	return queue.NewPublisher(client.Client, log), stop, nil
}
