package core

import (
	"errors"
	"sync"

	"github.com/knitgraph/knitgraph/geom"
)

// Sentinel errors for core network operations.
var (
	// ErrNilNode indicates that the provided Node pointer is nil.
	ErrNilNode = errors.New("core: node is nil")

	// ErrDuplicateNode indicates a node with the same id already exists.
	ErrDuplicateNode = errors.New("core: duplicate node id")

	// ErrNodeNotFound indicates an operation referenced a non-existent node.
	ErrNodeNotFound = errors.New("core: node not found")

	// ErrEdgeNotFound indicates an operation referenced a non-existent edge.
	ErrEdgeNotFound = errors.New("core: edge not found")

	// ErrEdgeExists indicates the two nodes are already connected.
	ErrEdgeExists = errors.New("core: edge already exists")

	// ErrLoopNotAllowed indicates a self-loop was attempted.
	ErrLoopNotAllowed = errors.New("core: self-loop not allowed")
)

// NoColor marks a node without an assigned color class.
const NoColor = -1

// SegmentID identifies one segment of a knitting network: the end node
// it starts at, the end node it terminates at, and a duplicate counter
// distinguishing parallel segments between the same pair.
type SegmentID struct {
	Start int
	End   int
	Dup   int
}

// Less orders segment ids lexicographically by (Start, End, Dup).
func (s SegmentID) Less(o SegmentID) bool {
	if s.Start != o.Start {
		return s.Start < o.Start
	}
	if s.End != o.End {
		return s.End < o.End
	}

	return s.Dup < o.Dup
}

// Node represents a stitch location in the network.
//
// ID uniquely identifies this Node within its Network. Position is the
// index of the contour the node was created on, Num its index along
// that contour. The boolean flags and Segment are filled in by the
// pipeline stages as classification progresses.
type Node struct {
	// ID is the unique identifier for this Node.
	ID int

	// Pos is the node location in 3D space.
	Pos geom.Point

	// Position is the contour index the node belongs to.
	Position int

	// Num is the index of the node along its contour.
	Num int

	// Leaf marks the first and last node of a contour.
	Leaf bool

	// End marks nodes where segments start or terminate.
	End bool

	// Start marks dual nodes that begin a course row.
	Start bool

	// Increase marks dual nodes where a new wale begins.
	Increase bool

	// Decrease marks dual nodes where a wale ends.
	Decrease bool

	// Segment is the id of the segment the node belongs to, nil when
	// the node is unsegmented (all end nodes stay unsegmented).
	Segment *SegmentID

	// Color is an application color class, NoColor when unset.
	Color int
}

// Edge represents a connection between two nodes.
//
// In an undirected Network U < V always holds; in a directed network
// the edge runs U→V. Weft and Warp are mutually exclusive; an edge with
// neither flag is a contour edge (a Segment id on a contour edge makes
// it a segment contour edge of a mapping network).
type Edge struct {
	// U is the lower endpoint id (or the source in a directed network).
	U int

	// V is the higher endpoint id (or the target in a directed network).
	V int

	// Weft marks course-direction edges.
	Weft bool

	// Warp marks wale-direction edges.
	Warp bool

	// Segment is the segment id the edge belongs to, nil when unset.
	Segment *SegmentID

	// Geo is the edge geometry. For plain edges this is the straight
	// line between the endpoint positions; segment contour edges carry
	// the joined contour polyline.
	Geo geom.Polyline
}

// Other returns the endpoint of e that is not id.
func (e *Edge) Other(id int) int {
	if e.U == id {
		return e.V
	}

	return e.U
}

// IsContour reports whether e is a contour edge (neither weft nor warp).
func (e *Edge) IsContour() bool { return !e.Weft && !e.Warp }

// NetworkOption configures behavior of a Network before creation.
type NetworkOption func(n *Network)

// WithDirected sets whether edges keep their direction
// (true = directed, false = undirected with normalized endpoints).
func WithDirected(directed bool) NetworkOption {
	return func(n *Network) { n.directed = directed }
}

// WithParallelEdges allows multiple edges between the same endpoint
// pair. Mapping networks need this: parallel segments between one pair
// of end nodes each carry their own segment contour edge, and a warp
// edge may share endpoints with a segment contour edge.
func WithParallelEdges() NetworkOption {
	return func(n *Network) { n.multi = true }
}

// EdgeOption configures properties of individual edges when added.
type EdgeOption func(*Edge)

// AsWeft marks the edge as a weft (course direction) edge.
func AsWeft() EdgeOption {
	return func(e *Edge) { e.Weft, e.Warp = true, false }
}

// AsWarp marks the edge as a warp (wale direction) edge.
func AsWarp() EdgeOption {
	return func(e *Edge) { e.Warp, e.Weft = true, false }
}

// WithSegment attaches a segment id to the edge.
func WithSegment(s SegmentID) EdgeOption {
	return func(e *Edge) { e.Segment = &s }
}

// WithGeometry overrides the default straight-line edge geometry.
func WithGeometry(geo geom.Polyline) EdgeOption {
	return func(e *Edge) { e.Geo = geo }
}

// Network is the core in-memory knitting network data structure.
//
// muNode protects nodes; muEdgeAdj protects edges, adjacency and the
// predecessor index. nextID tracks the smallest unused node id.
type Network struct {
	muNode    sync.RWMutex // guards nodes
	muEdgeAdj sync.RWMutex // guards edges, succ and pred

	directed bool
	multi    bool

	nextID int
	nodes  map[int]*Node

	// edges[edgeKey(u,v)] with endpoints normalized when undirected
	edges map[[2]int]*Edge

	// parallel holds additional edges beyond the first per key, only
	// populated when multi is set
	parallel map[[2]int][]*Edge

	// succ[u][v]: edge u→v exists (both directions entered when undirected)
	succ map[int]map[int]struct{}

	// pred[v][u]: reverse index, only maintained when directed
	pred map[int]map[int]struct{}
}

// NewNetwork creates an empty Network with the given options.
// By default the network is undirected.
// Complexity: O(1)
func NewNetwork(opts ...NetworkOption) *Network {
	n := &Network{
		nodes:    make(map[int]*Node),
		edges:    make(map[[2]int]*Edge),
		parallel: make(map[[2]int][]*Edge),
		succ:     make(map[int]map[int]struct{}),
		pred:     make(map[int]map[int]struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Directed reports whether edges keep their direction.
func (n *Network) Directed() bool { return n.directed }

// edgeKey normalizes an endpoint pair into the map key.
func (n *Network) edgeKey(u, v int) [2]int {
	if !n.directed && u > v {
		u, v = v, u
	}

	return [2]int{u, v}
}
