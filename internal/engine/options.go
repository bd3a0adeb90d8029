package engine

import (
	"github.com/okian/peloton/internal/domain/scoring"
	"github.com/okian/peloton/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithParams overrides the default rating parameters.
func WithParams(params scoring.Params) Option {
	return func(e *Engine) {
		e.params = params
	}
}

// WithLogger sets the engine logger.
func WithLogger(lg logger.Logger) Option {
	return func(e *Engine) {
		if lg != nil {
			e.lg = lg
		}
	}
}
