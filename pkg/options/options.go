// Package options carries the functional options shared by the transport,
// dispatcher, and backend layers, following the same pattern the rest of
// this codebase uses for constructor configuration.
package options

import (
	"context"
	"log/slog"
	"time"
)

type Options struct {
	Logger  *slog.Logger
	Context context.Context
	Now     func() time.Time
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func WithContext(ctx context.Context) Option {
	return func(opts *Options) {
		opts.Context = ctx
	}
}

// WithNow overrides the clock used for lock expiry and reassembly-slot
// timeouts. Tests use it to avoid sleeping real time.
func WithNow(now func() time.Time) Option {
	return func(opts *Options) {
		opts.Now = now
	}
}

func NewOptions(opts ...Option) *Options {
	oo := &Options{
		Logger:  slog.Default(),
		Context: context.Background(),
		Now:     time.Now,
	}

	for _, opt := range opts {
		opt(oo)
	}

	return oo
}
