package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"feedling/internal/debuglog"
)

// FileName is the settings file inside the data directory.
const FileName = "config.yml"

// Bounds for the fetch concurrency ceiling.
const (
	MinConcurrentRequests = 1
	MaxConcurrentRequests = 10
)

// Settings are the runtime options shared between the sync engine and the
// presentation layer. Fields map one-to-one onto the keys of config.yml.
type Settings struct {
	ShowSearchInFeed             bool `mapstructure:"show_search_in_feed"`
	AutoDismissOnOpen            bool `mapstructure:"auto_dismiss_on_open"`
	MaxAllowedConcurrentRequests int  `mapstructure:"max_allowed_concurrent_requests"`
}

func defaultSettings() Settings {
	return Settings{
		ShowSearchInFeed:             false,
		AutoDismissOnOpen:            false,
		MaxAllowedConcurrentRequests: 5,
	}
}

func (s *Settings) clamp() {
	if s.MaxAllowedConcurrentRequests < MinConcurrentRequests {
		s.MaxAllowedConcurrentRequests = MinConcurrentRequests
	}
	if s.MaxAllowedConcurrentRequests > MaxConcurrentRequests {
		s.MaxAllowedConcurrentRequests = MaxConcurrentRequests
	}
}

// Shared guards one Settings value for concurrent use by the engine and the
// presentation layer. Readers take a snapshot, writers mutate in place; the
// lock is never held across I/O. The value is written back to disk only by
// Save, which the engine calls on shutdown.
type Shared struct {
	mu   sync.RWMutex
	path string
	cur  Settings
}

// Load reads the settings file at path. A missing or malformed file is not
// an error: defaults are used and the condition is logged. Load never
// returns nil.
func Load(path string) *Shared {
	s := &Shared{path: path, cur: defaultSettings()}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("show_search_in_feed", s.cur.ShowSearchInFeed)
	v.SetDefault("auto_dismiss_on_open", s.cur.AutoDismissOnOpen)
	v.SetDefault("max_allowed_concurrent_requests", s.cur.MaxAllowedConcurrentRequests)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			debuglog.Infof("no settings file at %s, using defaults", path)
		} else {
			debuglog.Errorf("failed to read settings file: %v", err)
			debuglog.Infof("using default settings")
		}
		return s
	}

	var loaded Settings
	if err := v.Unmarshal(&loaded); err != nil {
		debuglog.Errorf("failed to decode settings file: %v", err)
		debuglog.Infof("using default settings")
		return s
	}

	loaded.clamp()
	s.cur = loaded
	debuglog.Infof("loaded settings from %s", path)
	return s
}

// Snapshot returns a copy of the current settings.
func (s *Shared) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Update applies fn to the settings under the write lock. Out-of-range
// values are clamped after fn returns.
func (s *Shared) Update(fn func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cur)
	s.cur.clamp()
}

// Path returns the file the settings were loaded from and saved to.
func (s *Shared) Path() string {
	return s.path
}

// Save writes the current settings back to their file.
func (s *Shared) Save() error {
	if s.path == "" {
		return fmt.Errorf("no settings file path configured")
	}

	cur := s.Snapshot()

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("show_search_in_feed", cur.ShowSearchInFeed)
	v.Set("auto_dismiss_on_open", cur.AutoDismissOnOpen)
	v.Set("max_allowed_concurrent_requests", cur.MaxAllowedConcurrentRequests)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(s.path)
}

// DefaultDir returns the feedling data directory, normally
// $XDG_CONFIG_HOME/feedling or the platform equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(base, "feedling"), nil
}
