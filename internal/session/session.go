// Package session ties one expression engine to its history log and
// preferences. A Session is the single owner of calculator state for a
// process; collaborators hold a *Session instead of reaching for globals.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-chi-calculator/internal/engine"
	"go-chi-calculator/internal/history"
	"go-chi-calculator/internal/keys"
	"go-chi-calculator/internal/preferences"
)

var (
	ErrDivideByZero = errors.New("division by zero")
	ErrUnboundKey   = errors.New("key is not bound to an action")
)

// Snapshot is the result of one event: what to render, plus the history
// entry the event produced, if any.
type Snapshot struct {
	engine.Display
	Entry          *history.Entry `json:"entry,omitempty"`
	Error          string         `json:"error,omitempty"`
	PersistError   string         `json:"persist_error,omitempty"`
	HistoryVisible bool           `json:"history_visible"`
}

// Session processes events one at a time; each call holds the session lock
// for its whole duration.
type Session struct {
	mu             sync.Mutex
	engine         *engine.Engine
	history        *history.Log
	prefs          *preferences.Manager
	logger         *zap.Logger
	loc            *time.Location
	now            func() time.Time
	historyVisible bool
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithLocation sets the zone history is grouped by.
func WithLocation(loc *time.Location) Option {
	return func(s *Session) { s.loc = loc }
}

// WithClock overrides time.Now for history grouping.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New builds a session around a fresh engine.
func New(log *history.Log, prefs *preferences.Manager, opts ...Option) *Session {
	s := &Session{
		engine:  engine.New(),
		history: log,
		prefs:   prefs,
		logger:  zap.NewNop(),
		loc:     time.Local,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads persisted history and preferences.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Load(ctx)
	prefs := s.prefs.Load(ctx)
	s.logger.Info("session started",
		zap.Int("history_entries", s.history.Len()),
		zap.Bool("dark_mode", prefs.DarkMode),
		zap.Bool("sound_enabled", prefs.SoundEnabled),
		zap.Bool("animations_enabled", prefs.AnimationsEnabled),
	)
}

// Display returns the current display without changing state.
func (s *Session) Display() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(s.engine.Display())
}

// State returns the engine state.
func (s *Session) State() engine.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.State()
}

func (s *Session) AppendDigit(_ context.Context, d string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	display, err := s.engine.AppendDigit(d)
	return s.snapshot(display), err
}

func (s *Session) ChooseOperator(ctx context.Context, op engine.Operator) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	display, outcome, err := s.engine.ChooseOperator(op)
	if err != nil {
		return s.snapshot(display), err
	}
	return s.settle(ctx, display, outcome), nil
}

func (s *Session) Compute(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	display, outcome := s.engine.Compute()
	return s.settle(ctx, display, outcome)
}

func (s *Session) Delete(context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(s.engine.DeleteLastChar())
}

func (s *Session) Clear(context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(s.engine.Clear())
}

// Recall loads the result of a past history entry as the current operand
// and hides the history panel.
func (s *Session) Recall(_ context.Context, id int64) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.history.Find(id)
	if err != nil {
		return s.snapshot(s.engine.Display()), err
	}
	s.historyVisible = false
	return s.snapshot(s.engine.LoadResult(entry.Result)), nil
}

// LoadValue overwrites the current operand with an arbitrary value.
func (s *Session) LoadValue(_ context.Context, value string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(s.engine.LoadResult(value))
}

// ToggleHistory flips the history panel visibility.
func (s *Session) ToggleHistory(context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyVisible = !s.historyVisible
	return s.snapshot(s.engine.Display())
}

// History returns the log grouped by day, relative to the session clock.
func (s *Session) History() []history.DayGroup {
	return history.GroupByDay(s.history.Entries(), s.now(), s.loc)
}

// Location returns the zone history is grouped and timestamped in.
func (s *Session) Location() *time.Location {
	return s.loc
}

// Entry returns one history entry.
func (s *Session) Entry(id int64) (history.Entry, error) {
	return s.history.Find(id)
}

// HistoryLen returns the number of recorded calculations.
func (s *Session) HistoryLen() int {
	return s.history.Len()
}

// Preferences returns the current preferences.
func (s *Session) Preferences() preferences.Preferences {
	return s.prefs.Current()
}

// TogglePreference flips and persists one preference.
func (s *Session) TogglePreference(ctx context.Context, name preferences.Name) (preferences.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Toggle(ctx, name)
}

// Press runs the action bound to a keyboard key.
func (s *Session) Press(ctx context.Context, key string) (Snapshot, error) {
	action, ok := keys.Lookup(key)
	if !ok {
		return s.Display(), fmt.Errorf("%w: %q", ErrUnboundKey, key)
	}

	switch action.Kind {
	case keys.Digit:
		return s.AppendDigit(ctx, action.Digit)
	case keys.Operator:
		return s.ChooseOperator(ctx, action.Operator)
	case keys.Compute:
		return s.Compute(ctx), nil
	case keys.Delete:
		return s.Delete(ctx), nil
	case keys.Clear:
		return s.Clear(ctx), nil
	case keys.ToggleHistory:
		return s.ToggleHistory(ctx), nil
	case keys.TogglePreference:
		_, err := s.TogglePreference(ctx, action.Preference)
		snap := s.Display()
		if err != nil {
			snap.PersistError = err.Error()
		}
		return snap, nil
	}
	return s.Display(), fmt.Errorf("%w: %q", ErrUnboundKey, key)
}

// settle records the history entry of a completed compute.
func (s *Session) settle(ctx context.Context, display engine.Display, outcome engine.Outcome) Snapshot {
	snap := s.snapshot(display)

	switch {
	case outcome.DivideByZero:
		snap.Error = ErrDivideByZero.Error()
		s.logger.Info("division by zero", zap.String("display", display.Current))
	case outcome.Computed():
		entry, err := s.history.Record(ctx, *outcome.Calculation)
		snap.Entry = &entry
		if err != nil {
			snap.PersistError = err.Error()
		}
		s.logger.Debug("calculation recorded",
			zap.Int64("entry_id", entry.ID),
			zap.String("calculation", entry.Expression),
			zap.String("result", entry.Result),
		)
	}
	return snap
}

func (s *Session) snapshot(display engine.Display) Snapshot {
	return Snapshot{Display: display, HistoryVisible: s.historyVisible}
}
