// Package storage provides the durable string-keyed store that history and
// preferences persist into. Values are opaque strings; a write replaces the
// whole value stored under a key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

var (
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrMissingPath   = errors.New("storage path required")
)

// Store is a string-keyed key-value store. Implementations are safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Options selects and configures a Store.
type Options struct {
	Driver string
	Path   string
	// QuotaBytes caps the memory driver; zero means unlimited.
	QuotaBytes int
	// Fs backs the file driver and creates parent directories for both
	// path drivers. Nil means the OS filesystem. The sqlite driver opens
	// Path directly, so it needs an OS-backed Fs.
	Fs afero.Fs
}

// Open builds the store named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemory(opts.QuotaBytes), nil
	case DriverFile, DriverSQLite:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}

	if opts.Path == "" {
		return nil, fmt.Errorf("%s store: %w", opts.Driver, ErrMissingPath)
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if opts.Path != ":memory:" {
		dir := filepath.Dir(opts.Path)
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if opts.Driver == DriverFile {
		return NewFile(fs, opts.Path), nil
	}
	return OpenSQLite(ctx, opts.Path)
}
