package docflow

import (
	"context"
	"time"
)

type Config struct {
	logger          Logger
	eventBus        EventBus
	idleTimeout     time.Duration
	dispatchTimeout time.Duration
}

type Logger interface {
	InfofCtx(ctx context.Context, template string, args ...any)
	ErrorfCtx(ctx context.Context, template string, args ...any)
}

func defaultOptions() *Config {
	return applyOptions(&Config{},
		// add default options here
		WithNoopLogger(),
		WithEventBus(NewInMemoryEventBus()),
		WithIdleTimeout(time.Minute),
		WithDispatchTimeout(10*time.Second),
	)
}

func applyOptions(options *Config, opts ...Option) *Config {
	for _, opt := range opts {
		opt(options)
	}

	return options
}
