// Package preferences holds the cosmetic settings of the calculator and
// persists each change as soon as it is made.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"go-chi-calculator/internal/storage"
)

var ErrUnknownPreference = errors.New("unknown preference")

// Name identifies one preference; the value is its storage key.
type Name string

const (
	DarkMode          Name = "darkMode"
	SoundEnabled      Name = "soundEnabled"
	AnimationsEnabled Name = "animationsEnabled"
)

// Names lists every preference in display order.
var Names = []Name{DarkMode, SoundEnabled, AnimationsEnabled}

// ParseName accepts storage keys and their short kebab-case aliases.
func ParseName(s string) (Name, error) {
	switch strings.ToLower(s) {
	case "darkmode", "dark-mode", "dark":
		return DarkMode, nil
	case "soundenabled", "sound-enabled", "sound":
		return SoundEnabled, nil
	case "animationsenabled", "animations-enabled", "animations", "animation":
		return AnimationsEnabled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPreference, s)
}

// Preferences is a snapshot of all settings.
type Preferences struct {
	DarkMode          bool `json:"darkMode"`
	SoundEnabled      bool `json:"soundEnabled"`
	AnimationsEnabled bool `json:"animationsEnabled"`
}

// Defaults are applied before persisted values.
func Defaults() Preferences {
	return Preferences{SoundEnabled: true, AnimationsEnabled: true}
}

// Get returns the value of one preference.
func (p Preferences) Get(name Name) bool {
	switch name {
	case DarkMode:
		return p.DarkMode
	case SoundEnabled:
		return p.SoundEnabled
	case AnimationsEnabled:
		return p.AnimationsEnabled
	}
	return false
}

func (p *Preferences) set(name Name, v bool) {
	switch name {
	case DarkMode:
		p.DarkMode = v
	case SoundEnabled:
		p.SoundEnabled = v
	case AnimationsEnabled:
		p.AnimationsEnabled = v
	}
}

// Manager owns the process-wide preferences.
type Manager struct {
	mu     sync.Mutex
	prefs  Preferences
	store  storage.Store
	logger *zap.Logger
}

// NewManager returns a manager holding the defaults. Call Load to apply
// persisted values.
func NewManager(store storage.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{prefs: Defaults(), store: store, logger: logger}
}

// Load overrides the defaults with persisted values. Dark mode turns on only
// for a stored "true"; sound and animations turn off only for a stored
// "false". Read failures keep the defaults.
func (m *Manager) Load(ctx context.Context) Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prefs = Defaults()
	for _, name := range Names {
		raw, ok, err := m.store.Get(ctx, string(name))
		if err != nil {
			m.logger.Warn("reading preference failed", zap.String("preference", string(name)), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		switch name {
		case DarkMode:
			m.prefs.DarkMode = raw == "true"
		default:
			if raw == "false" {
				m.prefs.set(name, false)
			}
		}
	}
	return m.prefs
}

// Current returns the in-memory preferences.
func (m *Manager) Current() Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs
}

// Toggle flips one preference and persists it. The new value stands even if
// persisting fails.
func (m *Manager) Toggle(ctx context.Context, name Name) (Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := ParseName(string(name)); err != nil {
		return m.prefs, err
	}

	v := !m.prefs.Get(name)
	m.prefs.set(name, v)

	if err := m.store.Set(ctx, string(name), strconv.FormatBool(v)); err != nil {
		m.logger.Error("persisting preference failed",
			zap.String("preference", string(name)),
			zap.Bool("value", v),
			zap.Error(err),
		)
		return m.prefs, fmt.Errorf("persisting %s: %w", name, err)
	}
	return m.prefs, nil
}
