package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

// DefaultCleanupDelay is how long a Threaded cache waits after the first
// over-capacity Put before running a trim pass.
const DefaultCleanupDelay = 10 * time.Millisecond

var (
	ErrInvalidCapacity = errors.New("cache capacity must be positive")
	ErrUnknownStrategy = errors.New("unknown cache strategy")
	ErrNilScheduler    = errors.New("cache scheduler is nil")
	ErrInvalidDelay    = errors.New("cache cleanup delay must not be negative")
)

type options struct {
	strategy     Strategy
	cleanupDelay time.Duration
	scheduler    Scheduler
	schedulerSet bool
	logger       *slog.Logger
	metrics      Metrics
	valueEqual   func(a, b any) bool
}

// Option configures a Cache.
type Option func(*options)

func defaultOptions() options {
	return options{
		strategy:     Locking,
		cleanupDelay: DefaultCleanupDelay,
		logger:       slog.Default(),
		metrics:      NopMetrics(),
		valueEqual:   reflect.DeepEqual,
	}
}

// WithStrategy selects the eviction strategy (default Locking).
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithCleanupDelay sets the delay between the first over-capacity Put and
// the trim pass it triggers. Threaded only.
func WithCleanupDelay(d time.Duration) Option {
	return func(o *options) {
		o.cleanupDelay = d
	}
}

// WithScheduler runs trim passes on s instead of a Worker owned by the cache.
// The caller keeps ownership: Shutdown never stops s. Threaded only.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
		o.schedulerSet = true
	}
}

// WithLogger sets the logger used for background failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics reports cache activity to m.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithValueEqual overrides the comparison used by ContainsValue and Equal.
// The default is reflect.DeepEqual.
func WithValueEqual(eq func(a, b any) bool) Option {
	return func(o *options) {
		if eq != nil {
			o.valueEqual = eq
		}
	}
}

func (o *options) validate() error {
	if !o.strategy.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownStrategy, o.strategy)
	}
	if o.cleanupDelay < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDelay, o.cleanupDelay)
	}
	if o.schedulerSet && o.scheduler == nil {
		return ErrNilScheduler
	}
	return nil
}
