package core

import (
	"time"

	"rentapp/internal/blob"
	"rentapp/internal/catalog"
)

const (
	// DefaultCacheWindow is how long a merged GetAll result is reused.
	DefaultCacheWindow = 100 * time.Millisecond
	// DefaultStoreBudget is the serialized submission store size above which
	// incoming images are dropped.
	DefaultStoreBudget = 5 * 1024 * 1024
	// DefaultPruneKeep is how many recent submissions survive a quota prune.
	DefaultPruneKeep = 10
)

// Option configures the repository, the managers and the service facade.
type Option func(*options)

type options struct {
	clock       Clock
	logger      Logger
	metrics     MetricsRecorder
	tracer      Tracer
	cacheWindow time.Duration
	storeBudget int
	pruneKeep   int
	images      blob.Store
	catalog     catalog.Source
}

func defaultOptions() options {
	return options{
		clock:       systemClock{},
		logger:      noopLogger{},
		metrics:     noopMetrics{},
		tracer:      noopTracer{},
		cacheWindow: DefaultCacheWindow,
		storeBudget: DefaultStoreBudget,
		pruneKeep:   DefaultPruneKeep,
		catalog:     catalog.Embedded,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger installs a structured logger.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(recorder MetricsRecorder) Option {
	return func(o *options) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(tracer Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithCacheWindow sets the GetAll memo window. Zero disables memoization.
func WithCacheWindow(window time.Duration) Option {
	return func(o *options) {
		if window >= 0 {
			o.cacheWindow = window
		}
	}
}

// WithStoreBudget sets the soft byte budget for the serialized submission store.
func WithStoreBudget(bytes int) Option {
	return func(o *options) {
		if bytes > 0 {
			o.storeBudget = bytes
		}
	}
}

// WithPruneKeep sets how many recent submissions a quota prune keeps.
func WithPruneKeep(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pruneKeep = n
		}
	}
}

// WithImageStore enables offloading inline images to store.
func WithImageStore(store blob.Store) Option {
	return func(o *options) { o.images = store }
}

// WithCatalog replaces the embedded seed catalog.
func WithCatalog(source catalog.Source) Option {
	return func(o *options) {
		if source != nil {
			o.catalog = source
		}
	}
}
