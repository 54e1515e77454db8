package nebula

import (
	"github.com/san-kum/nebula/internal/compute"
	"go.uber.org/zap"
)

type Option func(*Engine)

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.obs = append(e.obs, o)
		}
	}
}

// WithBackend sets the dispatch backend. It takes precedence over
// WithWorkers.
func WithBackend(b compute.Backend) Option {
	return func(e *Engine) { e.backend = b }
}

// WithWorkers sizes the default CPU backend. Zero means one lane per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}
