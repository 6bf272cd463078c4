package knit

import (
	"fmt"
	"math"

	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
)

// Network is a knitting network in progress: the primary node/edge
// structure plus the mapping network derived from it after
// segmentation.
type Network struct {
	*core.Network

	// mapping holds the derived mapping network once
	// CreateMappingNetwork has run, nil before that.
	mapping *core.Network
}

// New wraps an empty undirected core network.
func New() *Network {
	return &Network{Network: core.NewNetwork()}
}

// Mapping returns the derived mapping network, or ErrNoMappingNetwork
// when CreateMappingNetwork has not run yet.
func (kn *Network) Mapping() (*core.Network, error) {
	if kn.mapping == nil {
		return nil, ErrNoMappingNetwork
	}

	return kn.mapping, nil
}

// FromContours creates and initializes a Network from ordered contour
// polylines. Every contour is divided into round(length/courseHeight)
// courses; each division point becomes a node with its contour index
// as Position and its index along the contour as Num. The first and
// last node of every contour are flagged as leaves, and consecutive
// nodes of a contour are connected with contour edges.
// Complexity: O(total division points)
func FromContours(contours []geom.Polyline, courseHeight float64) (*Network, error) {
	// 1. Validate input.
	if len(contours) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughContours, len(contours))
	}
	if courseHeight <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCourseHeight, courseHeight)
	}

	kn := New()

	// 2. Divide the contours and fill the network with nodes.
	id := 0
	for i, contour := range contours {
		count := int(math.Round(contour.Length() / courseHeight))
		if count < 1 {
			count = 1
		}
		pts := contour.DivideByCount(count, true)
		for j, pt := range pts {
			node := &core.Node{
				ID:       id,
				Pos:      pt,
				Position: i,
				Num:      j,
				Leaf:     j == 0 || j == len(pts)-1,
				Color:    core.NoColor,
			}
			if err := kn.AddNode(node); err != nil {
				return nil, err
			}
			id++
		}
	}

	// 3. Chain each contour's nodes with contour edges.
	kn.initializePositionContourEdges()

	return kn, nil
}

// initializePositionContourEdges connects consecutive nodes of every
// position contour with contour edges.
func (kn *Network) initializePositionContourEdges() {
	for _, pos := range kn.AllNodesByPosition() {
		for j := 0; j+1 < len(pos); j++ {
			kn.createContourEdge(pos[j], pos[j+1])
		}
	}
}

// InitializeLeafConnections creates the initial weft edges between the
// leaf nodes of adjacent position contours: first leaf to first leaf,
// last leaf to last leaf.
func (kn *Network) InitializeLeafConnections() {
	var leavesByPos [][]*core.Node
	for _, p := range kn.Positions() {
		leavesByPos = append(leavesByPos, kn.LeafNodesOnPosition(p))
	}
	for i := 0; i+1 < len(leavesByPos); i++ {
		this, next := leavesByPos[i], leavesByPos[i+1]
		if len(this) < 2 || len(next) < 2 {
			continue
		}
		kn.createWeftEdge(this[0], next[0], nil)
		kn.createWeftEdge(this[len(this)-1], next[len(next)-1], nil)
	}
}

// createContourEdge adds a contour edge from a to b, keeping the
// creation direction in the edge geometry. Duplicate edges are a no-op.
func (kn *Network) createContourEdge(a, b *core.Node) *core.Edge {
	e, err := kn.AddEdge(a.ID, b.ID, core.WithGeometry(geom.Line(a.Pos, b.Pos)))
	if err != nil {
		return nil
	}

	return e
}

// createWeftEdge adds a weft edge from a to b with an optional segment
// id, keeping the creation direction in the edge geometry.
func (kn *Network) createWeftEdge(a, b *core.Node, seg *core.SegmentID) *core.Edge {
	opts := []core.EdgeOption{core.AsWeft(), core.WithGeometry(geom.Line(a.Pos, b.Pos))}
	if seg != nil {
		opts = append(opts, core.WithSegment(*seg))
	}
	e, err := kn.AddEdge(a.ID, b.ID, opts...)
	if err != nil {
		return nil
	}

	return e
}

// createWarpEdge adds a warp edge from a to b, keeping the creation
// direction in the edge geometry.
func (kn *Network) createWarpEdge(a, b *core.Node) *core.Edge {
	e, err := kn.AddEdge(a.ID, b.ID, core.AsWarp(), core.WithGeometry(geom.Line(a.Pos, b.Pos)))
	if err != nil {
		return nil
	}

	return e
}

// geometryAtPositionContour builds the polyline through the nodes of
// one position contour, ordered by Num.
func (kn *Network) geometryAtPositionContour(position int) geom.Polyline {
	nodes := kn.NodesOnPosition(position)
	pl := make(geom.Polyline, 0, len(nodes))
	for _, nd := range nodes {
		pl = append(pl, nd.Pos)
	}

	return pl
}

// longestPositionContour returns the index (within the ordered position
// list) of the geometrically longest contour.
func (kn *Network) longestPositionContour() int {
	longest, longestLen := 0, 0.0
	for i, p := range kn.Positions() {
		if l := kn.geometryAtPositionContour(p).Length(); l > longestLen {
			longest, longestLen = i, l
		}
	}

	return longest
}

// ToDirected returns the directed representation of this network: for
// every undirected edge u-v, directed edges u→v and v→u are created
// with the same attributes. The edge geometry keeps the original
// creation direction on both.
func (kn *Network) ToDirected() *core.Network {
	dir := core.NewNetwork(core.WithDirected(true))
	for _, nd := range kn.Nodes() {
		cp := *nd
		if nd.Segment != nil {
			seg := *nd.Segment
			cp.Segment = &seg
		}
		// errors are impossible here, ids are unique by construction
		_ = dir.AddNode(&cp)
	}
	for _, e := range kn.Edges() {
		opts := []core.EdgeOption{core.WithGeometry(e.Geo.Clone())}
		if e.Weft {
			opts = append(opts, core.AsWeft())
		}
		if e.Warp {
			opts = append(opts, core.AsWarp())
		}
		if e.Segment != nil {
			opts = append(opts, core.WithSegment(*e.Segment))
		}
		_, _ = dir.AddEdge(e.U, e.V, opts...)
		_, _ = dir.AddEdge(e.V, e.U, opts...)
	}

	return dir
}
