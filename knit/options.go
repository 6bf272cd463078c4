package knit

import (
	"io"
	"log/slog"
)

// options bundles the tunables shared by the pipeline stages.
type options struct {
	logger          *slog.Logger
	maxConnections  int
	precise         bool
	leastConnected  bool
	includeEndNodes bool

	startIndex           int // -1 selects the longest contour
	propagateFromCenter  bool
	forceContinuousStart bool
	forceContinuousEnd   bool
}

// defaultOptions returns the baseline configuration: squared distances,
// at most four connections per node, split at the longest contour, and
// interim end nodes included in warp pairing.
func defaultOptions() options {
	return options{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxConnections:  4,
		includeEndNodes: true,
		startIndex:      -1,
	}
}

// Option configures a pipeline stage.
type Option func(*options)

// WithLogger routes stage tracing through the given structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxConnections caps the number of edges a candidate node may
// already have and still accept a new weft or warp connection.
func WithMaxConnections(m int) Option {
	return func(o *options) {
		if m > 0 {
			o.maxConnections = m
		}
	}
}

// WithPrecise switches candidate scoring to true Euclidean distances.
// Squared distances are the default; they order identically in almost
// all configurations and avoid the square root.
func WithPrecise() Option {
	return func(o *options) { o.precise = true }
}

// WithLeastConnected prefers the least connected node of a window in
// the second weft pass instead of the most perpendicular one.
func WithLeastConnected() Option {
	return func(o *options) { o.leastConnected = true }
}

// WithIncludeEndNodes controls whether interim end nodes between the
// segments of a chain take part in the first warp pairing pass.
func WithIncludeEndNodes(include bool) Option {
	return func(o *options) { o.includeEndNodes = include }
}

// WithStartIndex splits the contour list at the given index before
// weft propagation. Without it the longest contour is used.
func WithStartIndex(i int) Option {
	return func(o *options) { o.startIndex = i }
}

// WithPropagateFromCenter propagates the left contour set outward from
// the split contour instead of starting at the left boundary.
func WithPropagateFromCenter() Option {
	return func(o *options) { o.propagateFromCenter = true }
}

// WithForceContinuousStart forces the first row of stitches to be
// continuous across all contours.
func WithForceContinuousStart() Option {
	return func(o *options) { o.forceContinuousStart = true }
}

// WithForceContinuousEnd forces the last row of stitches to be
// continuous across all contours.
func WithForceContinuousEnd() Option {
	return func(o *options) { o.forceContinuousEnd = true }
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
