// Command bankprep-server serves the BankPrep JSON API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/bankprep/internal/config"
	pkgcrypto "github.com/and161185/bankprep/internal/crypto"
	"github.com/and161185/bankprep/internal/events"
	"github.com/and161185/bankprep/internal/repository/kvrepo"
	httpserver "github.com/and161185/bankprep/internal/server/http"
	"github.com/and161185/bankprep/internal/service"
	"github.com/and161185/bankprep/internal/storage"
	"github.com/and161185/bankprep/internal/tutor"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, opens storage, and serves HTTP until signalled.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	cfg, err := config.ParseServer(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.StoreURL)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	bus, err := events.New(events.Config{Topic: cfg.KafkaTopic, Brokers: cfg.KafkaBrokers}, logger)
	if err != nil {
		logger.Fatal("event bus", zap.Error(err))
	}
	defer func() { _ = bus.Close() }()

	audit, err := bus.Subscribe(ctx)
	if err != nil {
		logger.Fatal("subscribe", zap.Error(err))
	}
	go events.Audit(audit, logger.Named("audit"))

	// Repositories
	users := kvrepo.NewUserRepo(store)
	profiles := kvrepo.NewProfileRepo(store)

	// Services; HTTP sessions are bearer tokens, no persisted marker.
	locks := service.NewLocks()
	app := httpserver.New(httpserver.Deps{
		Auth:      service.NewAuthService(users, nil, pkgcrypto.DefaultHasher, locks, bus, logger),
		Tokens:    service.NewTokenManager([]byte(cfg.JWTKey), cfg.AccessTTL),
		Profiles:  service.NewProfileService(profiles, locks),
		Syllabus:  service.NewSyllabusService(profiles, locks, bus, logger),
		Scores:    service.NewScoreService(profiles, locks, bus, logger),
		Tasks:     service.NewTaskService(profiles, locks, bus, logger),
		Dashboard: service.NewDashboardService(profiles, locks),
		Tutor: tutor.New(tutor.Options{
			BaseURL: cfg.Tutor.BaseURL,
			Model:   cfg.Tutor.Model,
			Timeout: cfg.Tutor.Timeout,
			Logger:  logger.Named("tutor"),
		}),
		Logger: logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		// graceful shutdown
		shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Warn("forced shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
