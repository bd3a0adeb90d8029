package worker

import "github.com/okian/peloton/pkg/logger"

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets the worker logger.
func WithLogger(lg logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if lg != nil {
			w.logger = lg
		}
	}
}
