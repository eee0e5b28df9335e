package app

import (
	"go.trai.ch/ripple/internal/adapters/settings" //nolint:depguard // Wired in app layer
	"go.trai.ch/ripple/internal/core/ports"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App       *App
	Logger    ports.Logger
	Telemetry ports.Telemetry
}

// NewComponents creates a new Components struct from dependencies.
func NewComponents(app *App, logger ports.Logger, telemetry ports.Telemetry) *Components {
	return &Components{
		App:       app,
		Logger:    logger,
		Telemetry: telemetry,
	}
}

type logConfigurer interface {
	SetJSON(enable bool)
	SetLevel(level string)
}

// ConfigureLogging applies the log format and level settings to the logger.
func (c *Components) ConfigureLogging(s *settings.Settings) {
	if lc, ok := c.Logger.(logConfigurer); ok {
		lc.SetJSON(s.LogFormat == settings.LogFormatJSON)
		lc.SetLevel(s.LogLevel)
	}
}
