package dynamics

import "github.com/zeusync/landingsim/internal/core/observability/log"

type options struct {
	logger   log.Log
	workers  int
	exactLag bool
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger used for lifecycle and rejection messages.
func WithLogger(logger log.Log) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWorkers splits the per-environment loop across up to n goroutines.
// Values below 2 keep the loop on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithExactLag uses the continuous-time lag factor 1-exp(-dt/tau) instead
// of the clamped dt/tau ratio.
func WithExactLag() Option {
	return func(o *options) {
		o.exactLag = true
	}
}
