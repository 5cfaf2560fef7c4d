package hydrate

import (
	"reflect"
	"time"
)

type Config[T any] struct {
	backoff func(value T, retries int) time.Duration
	checker func(value T) bool
}

func defaultOptions[T any]() *Config[T] {
	return applyOptions(&Config[T]{},
		WithLinearBackoff[T](time.Millisecond*100),
		WithChecker(defaultChecker[T]()),
	)
}

func applyOptions[T any](opts *Config[T], options ...Option[T]) *Config[T] {
	for _, opt := range options {
		opt(opts)
	}
	return opts
}

type Option[T any] func(*Config[T])

// WithBackoff allows you to provide a custom backoff function that determines
// the wait time between retries based on the loaded value and the number of
// retries.
func WithBackoff[T any](backoff func(T, int) time.Duration) Option[T] {
	return func(o *Config[T]) {
		o.backoff = backoff
	}
}

// WithFixedBackoff waits a fixed amount of time between retries.
func WithFixedBackoff[T any](d time.Duration) Option[T] {
	return WithBackoff[T](func(_ T, _ int) time.Duration {
		return d
	})
}

// WithLinearBackoff increases the wait time linearly with each retry.
func WithLinearBackoff[T any](increment time.Duration) Option[T] {
	return WithBackoff[T](func(_ T, retries int) time.Duration {
		return increment * time.Duration(retries)
	})
}

// WithExponentialBackoff doubles the wait time with each retry.
func WithExponentialBackoff[T any](base time.Duration) Option[T] {
	return WithBackoff[T](func(_ T, retries int) time.Duration {
		return base * time.Duration(1<<retries)
	})
}

// WithChecker allows you to provide a custom checker function that determines
// whether the loaded value is ready or the load should retry.
func WithChecker[T any](checker func(value T) bool) Option[T] {
	return func(config *Config[T]) {
		config.checker = checker
	}
}

func defaultChecker[T any]() func(value T) bool {
	return func(value T) bool {
		return !reflect.ValueOf(&value).Elem().IsZero()
	}
}
