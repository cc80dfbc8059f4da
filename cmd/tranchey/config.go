package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sugawarayuuta/sonnet"
	"github.com/tailscale/hujson"
)

const defaultValueSize = 1

var (
	errConfigFileRead  = errors.New("cannot read config file")
	errConfigInvalid   = errors.New("invalid config file")
	errValueSize       = errors.New("value_size must be 1, 2, 4 or 8")
	errMaxEntries      = errors.New("max_entries cannot be negative")
	errSeedKeyRequired = errors.New("seed entry needs a key")
)

// SeedEntry is inserted into every new table, in file order.
type SeedEntry struct {
	Key   string `json:"key"`
	Value int64  `json:"value"`
}

// Settings holds all configuration options.
type Settings struct {
	ValueSize  int         `json:"value_size"`  //nolint:tagliatelle // snake_case for config file
	MaxEntries int         `json:"max_entries"` //nolint:tagliatelle // snake_case for config file
	LogLevel   string      `json:"log_level"`   //nolint:tagliatelle // snake_case for config file
	Seed       []SeedEntry `json:"seed,omitempty"`
}

// DefaultSettings returns the default configuration.
func DefaultSettings() Settings {
	return Settings{
		ValueSize: defaultValueSize,
		LogLevel:  "warn",
	}
}

// LoadSettings reads a JSONC settings file. Fields missing from the file
// keep their defaults.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %w", errConfigFileRead, path, err)
	}

	s, err := parseSettings(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return s, nil
}

func parseSettings(data []byte) (Settings, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	s := DefaultSettings()
	if err := sonnet.Unmarshal(standardized, &s); err != nil {
		return Settings{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return s, nil
}

func (s Settings) validate() error {
	switch s.ValueSize {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("%w, got %d", errValueSize, s.ValueSize)
	}
	if s.MaxEntries < 0 {
		return errMaxEntries
	}
	for i, e := range s.Seed {
		if e.Key == "" {
			return fmt.Errorf("%w (seed #%d)", errSeedKeyRequired, i)
		}
	}
	return nil
}
