package pattern

import (
	"io"
	"log/slog"

	"github.com/knitgraph/knitgraph/geom"
)

// PlaneMode selects the projection plane neighbors are sorted in when
// walking face cycles.
type PlaneMode int

const (
	// PlaneXY sorts neighbors in the world XY plane.
	PlaneXY PlaneMode = iota - 1
	// PlaneNormal sorts in the plane given by the node's own
	// reference-surface normal.
	PlaneNormal
	// PlaneAverageNormal sorts in the plane of the normal averaged over
	// the node and its neighbors.
	PlaneAverageNormal
	// PlaneFitted sorts in the mean of the averaged-normal plane and a
	// least-squares plane fit through the neighbors.
	PlaneFitted
)

// options holds the tunables of the pattern operations.
type options struct {
	logger *slog.Logger

	// maxValence is the largest cycle length CreateMesh accepts as an
	// ngon face.
	maxValence int

	// planeMode picks the neighbor sorting plane; modes other than
	// PlaneXY need per-node normals and fall back to PlaneXY without
	// them.
	planeMode PlaneMode

	// normals holds reference-surface normals by node id.
	normals map[int]geom.Vec

	// mergeAdjacentCreases folds increase/decrease pairs connected by
	// a weft edge into a single node during CreateDual.
	mergeAdjacentCreases bool

	// mendTrailingRows requests reconnection of trailing rows during
	// CreateDual. Not implemented.
	mendTrailingRows bool

	// consolidate compacts the final pattern matrix by dropping
	// columns that hold only placeholders.
	consolidate bool
}

// Option configures a pattern operation.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxValence: 4,
		planeMode:  PlaneXY,
	}
}

// WithLogger sets the structured logger used for progress output.
// Passing nil keeps the default discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxValence sets the maximum face valence for CreateMesh. Values
// above 4 allow ngon faces built from a centroid fan.
func WithMaxValence(v int) Option {
	return func(o *options) {
		if v > 0 {
			o.maxValence = v
		}
	}
}

// WithPlaneMode selects the projection plane for neighbor sorting
// during cycle finding. Modes other than PlaneXY only take effect when
// WithNormals supplies reference-surface normals.
func WithPlaneMode(m PlaneMode) Option {
	return func(o *options) { o.planeMode = m }
}

// WithNormals supplies reference-surface normals by node id for the
// local plane modes.
func WithNormals(normals map[int]geom.Vec) Option {
	return func(o *options) { o.normals = normals }
}

// WithMergeAdjacentCreases merges increase nodes with a single
// weft-adjacent decrease neighbor into one regular node during
// CreateDual, simplifying the resulting pattern.
func WithMergeAdjacentCreases() Option {
	return func(o *options) { o.mergeAdjacentCreases = true }
}

// WithMendTrailingRows requests mending of trailing rows during
// CreateDual. CreateDual rejects this option with ErrUnsupported.
func WithMendTrailingRows() Option {
	return func(o *options) { o.mendTrailingRows = true }
}

// WithConsolidate drops pattern matrix columns consisting solely of
// placeholder cells.
func WithConsolidate() Option {
	return func(o *options) { o.consolidate = true }
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
