package annidx

import "log/slog"

const (
	// DefaultClusterThreshold is the vector count at which the manager
	// upgrades from the flat to the clustered variant.
	DefaultClusterThreshold = 10000

	// DefaultNList is the default number of coarse clusters.
	DefaultNList = 100

	// DefaultNProbe is the default number of clusters scanned per query.
	DefaultNProbe = 10

	// DefaultSubquantizers is the default number of product-quantizer
	// subspaces.
	DefaultSubquantizers = 8

	// DefaultBitsPerCode is the default code width per subspace.
	DefaultBitsPerCode = 8
)

type options struct {
	clusterThreshold int
	nlist            int
	nprobe           int
	subquantizers    int
	bitsPerCode      int
	seed             int64
	accelerated      bool
	logger           *Logger
	metricsCollector MetricsCollector
}

// Option configures Manager construction.
type Option func(*options)

// WithClusterThreshold sets the vector count at which the manager rebuilds
// into the clustered variant. The upgrade happens at most once; the variant
// never reverts to flat.
func WithClusterThreshold(threshold int) Option {
	return func(o *options) {
		o.clusterThreshold = threshold
	}
}

// WithNList sets the number of coarse clusters of the clustered variant.
func WithNList(nlist int) Option {
	return func(o *options) {
		o.nlist = nlist
	}
}

// WithNProbe sets how many clusters are scanned per query. Larger values
// increase recall and latency monotonically. Overridable per search call.
func WithNProbe(nprobe int) Option {
	return func(o *options) {
		o.nprobe = nprobe
	}
}

// WithSubquantizers sets the number of product-quantizer subspaces.
// The dimension must be divisible by this value.
func WithSubquantizers(m int) Option {
	return func(o *options) {
		o.subquantizers = m
	}
}

// WithBitsPerCode sets the per-subspace code width in bits (1-8).
func WithBitsPerCode(bits int) Option {
	return func(o *options) {
		o.bitsPerCode = bits
	}
}

// WithSeed sets the training RNG seed, making clustered builds reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithAcceleratedBackend requests hardware-accelerated distance kernels.
// When the host does not support them the manager logs a warning and falls
// back to the portable kernels; the fallback is an availability guarantee
// only, not a latency one.
func WithAcceleratedBackend(enabled bool) Option {
	return func(o *options) {
		o.accelerated = enabled
	}
}

// WithLogger configures structured logging for operations.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		clusterThreshold: DefaultClusterThreshold,
		nlist:            DefaultNList,
		nprobe:           DefaultNProbe,
		subquantizers:    DefaultSubquantizers,
		bitsPerCode:      DefaultBitsPerCode,
		seed:             1,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
