package tui

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-survivalform/pkg/render"
)

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithRenderer selects how the final report is printed. Defaults to the text
// renderer.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Session) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPrefilled skips prompting for fields that already hold a valid value.
func WithPrefilled(enabled bool) Option {
	return func(s *Session) {
		s.skipFilled = enabled
	}
}
