package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/history"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/preferences"
	"go-chi-calculator/internal/session"
	"go-chi-calculator/internal/storage"
)

// initTelemetry starts tracing, metrics and log export. The returned func
// shuts all three down in reverse order.
func initTelemetry(ctx context.Context, cfg config.Config) (observability.ShutdownFunc, error) {
	var shutdowns []observability.ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	inits := []func(context.Context, string, bool) (observability.ShutdownFunc, error){
		observability.InitTracing,
		observability.InitMetrics,
		observability.InitLogging,
	}
	for _, start := range inits {
		fn, err := start(ctx, cfg.ServiceName, cfg.OTLP.Enabled)
		if err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
		shutdowns = append(shutdowns, fn)
	}
	return shutdown, nil
}

// newSession opens the configured store and starts a session on it.
func newSession(ctx context.Context, cfg config.Config) (*session.Session, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			observability.Logger.Warn("closing store failed", zap.Error(err))
		}
	}

	logger := observability.Logger.Named("session")
	sess := session.New(
		history.NewLog(store, history.WithLogger(logger.Named("history"))),
		preferences.NewManager(store, logger.Named("preferences")),
		session.WithLogger(logger),
		session.WithLocation(loc),
	)
	sess.Start(ctx)
	return sess, closeStore, nil
}
