package inflight

import "log/slog"

// Option configures a Coordinator during creation.
//
// Example:
//
//	pool := jobs.New(0)
//	c := inflight.New(frames, inflight.WithOwner(pool.Runner(0)))
type Option func(*options)

// options holds optional configuration for Coordinator creation.
type options struct {
	owner  Runner
	lookup RunnerLookup
	logger *slog.Logger
}

// defaultOptions returns the default coordinator options.
func defaultOptions() options {
	return options{
		owner:  nil, // Will be set to an inline runner if nil
		lookup: CurrentRunner,
	}
}

// WithOwner sets the runner that owns every registered device's pools and
// release queues. Frame flushes run on it, either inline when the finishing
// call already executes there or as an exclusive job.
//
// Without an owner, flushes run inline on whichever goroutine retires the
// last work of a frame. That is only safe when a single goroutine drives the
// coordinator.
func WithOwner(r Runner) Option {
	return func(o *options) {
		o.owner = r
	}
}

// WithRunnerLookup sets how a context is mapped to the runner executing it.
// The lookup decides whether an await pumps jobs or busy-waits.
// Defaults to [CurrentRunner].
func WithRunnerLookup(lookup RunnerLookup) Option {
	return func(o *options) {
		if lookup != nil {
			o.lookup = lookup
		}
	}
}

// WithLogger sets the coordinator's logger. Defaults to [Logger] at the
// time New is called.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
