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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/masterblog/backend/internal/config"
	"github.com/zhouzirui/masterblog/backend/internal/handler"
	"github.com/zhouzirui/masterblog/backend/internal/logging"
	"github.com/zhouzirui/masterblog/backend/internal/metrics"
	"github.com/zhouzirui/masterblog/backend/internal/middleware"
	"github.com/zhouzirui/masterblog/backend/internal/model/post"
	postService "github.com/zhouzirui/masterblog/backend/internal/service/post"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{Env: cfg.Log.Env, Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Warn("failed to load .env file, continuing with system environment variables only", zap.Error(envErr))
	}

	store, err := openStore(cfg.Store)
	if err != nil {
		logger.Fatal("failed to open post store", zap.String("path", cfg.Store.Path), zap.Error(err))
	}
	logger.Info("post store ready", zap.String("backend", cfg.Store.Backend), zap.String("path", cfg.Store.Path))

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst)
		defer limiter.Close()
		logger.Info("rate limiting enabled",
			zap.Int("requests", cfg.RateLimit.Requests),
			zap.Duration("window", cfg.RateLimit.Window),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
	} else {
		logger.Info("rate limiting disabled by configuration")
	}

	router := handler.NewRouter(handler.Dependencies{
		Posts:   postService.NewService(store),
		Metrics: metrics.NewCollector("masterblog"),
		Limiter: limiter,
		Logger:  logger,
		CORS:    cfg.CORS,
	})

	startServer(ctx, logger, cfg.Server, router)
}

// openStore builds the configured post store. Only the file backend persists.
func openStore(cfg config.StoreConfig) (post.Store, error) {
	if cfg.Backend == config.StoreBackendMemory {
		var seed []post.Post
		if cfg.Seed {
			seed = post.Seed()
		}
		return post.NewMemoryStore(seed), nil
	}

	store, err := post.Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("masterblog backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
