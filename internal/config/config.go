// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"go-chi-calculator/internal/storage"
)

// EnvConfigPath names the YAML file to read when no explicit path is given.
const EnvConfigPath = "CALCULATOR_CONFIG"

type Config struct {
	Addr        string  `yaml:"addr"`
	ServiceName string  `yaml:"service_name"`
	Timezone    string  `yaml:"timezone"`
	Log         Log     `yaml:"log"`
	Storage     Storage `yaml:"storage"`
	OTLP        OTLP    `yaml:"otlp"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

type Storage struct {
	Driver     string `yaml:"driver"`
	Path       string `yaml:"path"`
	QuotaBytes int    `yaml:"quota_bytes"`
}

// OTLP toggles the OpenTelemetry exporters. Endpoints come from the standard
// OTEL_EXPORTER_OTLP_* variables.
type OTLP struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the settings used when nothing is configured. History and
// preferences go to a JSON file under the user config directory.
func Default() Config {
	return Config{
		Addr:        ":8080",
		ServiceName: "calculator",
		Log:         Log{Level: "info", Format: "json"},
		Storage:     Storage{Driver: storage.DriverFile, Path: DefaultStoragePath()},
	}
}

// DefaultStoragePath is calculator/state.json under os.UserConfigDir, or
// under the working directory when no config dir can be resolved.
func DefaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "calculator", "state.json")
}

// Load reads path (or $CALCULATOR_CONFIG) when set, then applies environment
// overrides. A missing file is only an error when path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Addr, "CALCULATOR_ADDR")
	setString(&cfg.ServiceName, "OTEL_SERVICE_NAME")
	setString(&cfg.Timezone, "CALCULATOR_TIMEZONE")
	setString(&cfg.Log.Level, "CALCULATOR_LOG_LEVEL")
	setString(&cfg.Log.Format, "CALCULATOR_LOG_FORMAT")
	setString(&cfg.Storage.Driver, "CALCULATOR_STORAGE")
	setString(&cfg.Storage.Path, "CALCULATOR_STORAGE_PATH")

	if v := os.Getenv("CALCULATOR_STORAGE_QUOTA"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CALCULATOR_STORAGE_QUOTA: %w", err)
		}
		cfg.Storage.QuotaBytes = n
	}
	if v := os.Getenv("CALCULATOR_OTLP_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CALCULATOR_OTLP_ENABLED: %w", err)
		}
		cfg.OTLP.Enabled = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case storage.DriverMemory, storage.DriverFile, storage.DriverSQLite:
	default:
		return fmt.Errorf("storage driver %q: %w", c.Storage.Driver, storage.ErrUnknownDriver)
	}
	if c.Storage.Driver != storage.DriverMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage driver %q: %w", c.Storage.Driver, storage.ErrMissingPath)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format %q: must be json or console", c.Log.Format)
	}
	return nil
}

// Location resolves Timezone; empty means the host's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// StorageOptions converts the storage section for storage.Open.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:     c.Storage.Driver,
		Path:       c.Storage.Path,
		QuotaBytes: c.Storage.QuotaBytes,
	}
}
