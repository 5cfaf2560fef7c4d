package docflow

import (
	"log/slog"
	"time"

	"github.com/kyuff/docflow/internal/logger"
	"github.com/rs/zerolog"
)

type Option func(*Config)

func WithLogger(logger Logger) Option {
	return func(opt *Config) {
		opt.logger = logger
	}
}

func WithNoopLogger() Option {
	return WithLogger(logger.Noop{})
}

func WithDefaultSlog() Option {
	return WithSlog(slog.Default())
}

func WithSlog(log *slog.Logger) Option {
	return WithLogger(
		logger.NewSlog(log),
	)
}

func WithZerolog(log zerolog.Logger) Option {
	return WithLogger(
		logger.NewZerolog(log),
	)
}

func WithEventBus(bus EventBus) Option {
	return func(opt *Config) {
		opt.eventBus = bus
	}
}

// WithIdleTimeout sets how long an entity worker may sit without commands
// before it is deactivated. A deactivated worker is reactivated by replay on
// the next command.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *Config) {
		o.idleTimeout = d
	}
}

// WithDispatchTimeout bounds commands dispatched by saga effects. On timeout
// the saga sees a retryable error; the target worker may still complete the
// write, so saga commands must tolerate at-least-once delivery.
func WithDispatchTimeout(d time.Duration) Option {
	return func(o *Config) {
		o.dispatchTimeout = d
	}
}
