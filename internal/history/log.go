// Package history records completed calculations and persists the full log
// to a key-value store after every append.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-chi-calculator/internal/engine"
	"go-chi-calculator/internal/storage"
)

// StorageKey is the key the serialized log lives under.
const StorageKey = "calculatorHistory"

var ErrNotFound = errors.New("history entry not found")

// Log is the ordered, append-only calculation history. The in-memory entries
// are authoritative for the session even when persisting fails.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	store   storage.Store
	now     func() time.Time
	logger  *zap.Logger
}

// Option customizes a Log.
type Option func(*Log)

// WithClock overrides time.Now for entry timestamps and IDs.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithLogger sets the logger used for load and persistence failures.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// NewLog returns an empty log persisting to store.
func NewLog(store storage.Store, opts ...Option) *Log {
	l := &Log{
		store:  store,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces the in-memory log with the persisted one. A missing,
// unreadable or corrupt log leaves the history empty; a single undecodable
// entry is skipped and the rest are kept.
func (l *Log) Load(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil

	raw, ok, err := l.store.Get(ctx, StorageKey)
	if err != nil {
		l.logger.Warn("reading history failed, starting empty", zap.Error(err))
		return
	}
	if !ok || raw == "" {
		return
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		l.logger.Warn("persisted history is corrupt, starting empty", zap.Error(err))
		return
	}

	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		var e Entry
		if err := json.Unmarshal(item, &e); err != nil {
			l.logger.Warn("skipping undecodable history entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	l.entries = entries
	l.logger.Debug("history loaded", zap.Int("entries", len(entries)), zap.Int("skipped", len(items)-len(entries)))
}

// Record turns a completed calculation into a new entry and appends it. The
// entry is returned even if persisting failed; err reports that failure.
func (l *Log) Record(ctx context.Context, calc engine.Calculation) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	id := ts.UnixMilli()
	if n := len(l.entries); n > 0 && id <= l.entries[n-1].ID {
		id = l.entries[n-1].ID + 1
	}

	entry := Entry{
		ID:         id,
		Timestamp:  ts,
		Expression: calc.Expression,
		Result:     calc.Result,
	}
	return entry, l.appendLocked(ctx, entry)
}

// Append adds entry to the end of the log and persists the whole log.
func (l *Log) Append(ctx context.Context, entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(ctx, entry)
}

func (l *Log) appendLocked(ctx context.Context, entry Entry) error {
	l.entries = append(l.entries, entry)

	data, err := json.Marshal(l.entries)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := l.store.Set(ctx, StorageKey, string(data)); err != nil {
		l.logger.Error("persisting history failed",
			zap.Int64("entry_id", entry.ID),
			zap.Int("entries", len(l.entries)),
			zap.Error(err),
		)
		return fmt.Errorf("persisting history: %w", err)
	}
	return nil
}

// Entries returns a copy of the log, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Find returns the entry with the given id.
func (l *Log) Find(id int64) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %d", ErrNotFound, id)
}
