// Package cli implements the calc command, a terminal front end that drives a
// calculator session against the configured store.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/history"
	"go-chi-calculator/internal/preferences"
	"go-chi-calculator/internal/session"
	"go-chi-calculator/internal/storage"
)

// Options holds dependencies that tests replace.
type Options struct {
	// Store, when set, is used instead of opening the configured one.
	Store  storage.Store
	Now    func() time.Time
	Logger *zap.Logger
}

type flags struct {
	configPath  string
	driver      string
	storagePath string
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(opts Options) *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "calc",
		Short:         "Calculator with persisted history",
		Long:          "calc replays key presses against a calculator session and keeps a history of results.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&f.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&f.driver, "storage", "", "storage driver: memory, file or sqlite")
	root.PersistentFlags().StringVar(&f.storagePath, "storage-path", "", "storage file or database path")

	open := func(ctx context.Context) (*session.Session, func(), error) {
		return openSession(ctx, opts, f)
	}

	root.AddCommand(
		newPressCommand(open),
		newHistoryCommand(open),
		newRecallCommand(open),
		newPrefsCommand(open),
	)
	return root
}

type opener func(ctx context.Context) (*session.Session, func(), error)

func openSession(ctx context.Context, opts Options, f flags) (*session.Session, func(), error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	if f.driver != "" {
		cfg.Storage.Driver = f.driver
	}
	if f.storagePath != "" {
		cfg.Storage.Path = f.storagePath
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	store := opts.Store
	closeStore := func() {}
	if store == nil {
		store, err = storage.Open(ctx, cfg.StorageOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("opening store: %w", err)
		}
		closeStore = func() { _ = store.Close() }
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sess := session.New(
		history.NewLog(store, history.WithClock(now), history.WithLogger(logger)),
		preferences.NewManager(store, logger),
		session.WithLogger(logger),
		session.WithLocation(loc),
		session.WithClock(now),
	)
	sess.Start(ctx)
	return sess, closeStore, nil
}
