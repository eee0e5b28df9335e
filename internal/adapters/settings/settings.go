// Package settings loads tool settings with viper.
//
// Precedence, lowest first: defaults, .ripple/config.yaml under the project
// root, RIPPLE_* environment variables. Command-line flags are applied on top
// by the caller.
package settings

import (
	"errors"
	"path/filepath"
	"slices"

	"github.com/spf13/viper"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store backends.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Settings are the tool settings of one invocation.
type Settings struct {
	// Jobs bounds parallel stages; 0 means one per CPU.
	Jobs int `mapstructure:"jobs"`
	// Store selects the signature store backend.
	Store string `mapstructure:"store"`
	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"log_format"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"log_level"`
	// File overrides declaration discovery.
	File string `mapstructure:"file"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		Jobs:      0,
		Store:     StoreJSON,
		LogFormat: LogFormatText,
		LogLevel:  "info",
	}
}

// Load reads settings for the project at root.
func Load(root string) (*Settings, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("jobs", def.Jobs)
	v.SetDefault("store", def.Store)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("file", def.File)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(root, domain.StateDirName))

	v.SetEnvPrefix("RIPPLE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, zerr.With(zerr.Wrap(err, "failed to read settings"), "root", root)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to decode settings"), "root", root)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the enumerated settings.
func (s *Settings) Validate() error {
	if !slices.Contains([]string{StoreJSON, StoreSQLite}, s.Store) {
		return zerr.With(zerr.Wrap(domain.ErrUnknownStoreBackend, "invalid settings"), "store", s.Store)
	}
	if !slices.Contains([]string{LogFormatText, LogFormatJSON}, s.LogFormat) {
		return zerr.With(zerr.New("unknown log format"), "log_format", s.LogFormat)
	}
	if s.Jobs < 0 {
		return zerr.With(zerr.New("jobs must not be negative"), "jobs", s.Jobs)
	}
	return nil
}
