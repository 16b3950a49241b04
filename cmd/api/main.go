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

	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	if err := loadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	// Logger
	if err := observability.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer observability.SyncLogger()

	shutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown(ctx)

	sess, closeStore, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Router
	router, err := server.NewRouter(sess)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.Addr),
			zap.String("storage", cfg.Storage.Driver),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return waitForShutdown(srv, errCh)
}

func waitForShutdown(srv *http.Server, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)

	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	observability.Logger.Info("server shutting down")
	return srv.Shutdown(ctx)
}
