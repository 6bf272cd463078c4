package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
)

// addNode inserts a node with the given id and position or fails the test.
func addNode(t *testing.T, n *core.Network, id int, p geom.Point) {
	t.Helper()
	require.NoError(t, n.AddNode(&core.Node{ID: id, Pos: p, Color: core.NoColor}))
}

// TestNetwork_AddNode covers insertion, duplicates and the nil guard.
func TestNetwork_AddNode(t *testing.T) {
	n := core.NewNetwork()
	assert.ErrorIs(t, n.AddNode(nil), core.ErrNilNode)

	addNode(t, n, 3, geom.Point{X: 1})
	assert.ErrorIs(t, n.AddNode(&core.Node{ID: 3}), core.ErrDuplicateNode)
	assert.Equal(t, 1, n.NodeCount())
	assert.Equal(t, 4, n.NextNodeID())
}

// TestNetwork_AddEdge_Normalized checks that undirected edges always
// store the lower id first, whichever order they were added in.
func TestNetwork_AddEdge_Normalized(t *testing.T) {
	n := core.NewNetwork()
	addNode(t, n, 0, geom.Point{})
	addNode(t, n, 1, geom.Point{X: 1})

	e, err := n.AddEdge(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, e.U)
	assert.Equal(t, 1, e.V)
	// default geometry runs from U's position to V's position
	assert.Equal(t, geom.Point{}, e.Geo.Start())
	assert.Equal(t, geom.Point{X: 1}, e.Geo.End())

	// lookup works in either endpoint order
	assert.True(t, n.HasEdge(0, 1))
	assert.True(t, n.HasEdge(1, 0))

	_, err = n.AddEdge(0, 1)
	assert.ErrorIs(t, err, core.ErrEdgeExists)
}

// TestNetwork_AddEdge_Errors covers missing nodes and self-loops.
func TestNetwork_AddEdge_Errors(t *testing.T) {
	n := core.NewNetwork()
	addNode(t, n, 0, geom.Point{})

	_, err := n.AddEdge(0, 7)
	assert.ErrorIs(t, err, core.ErrNodeNotFound)
	_, err = n.AddEdge(0, 0)
	assert.ErrorIs(t, err, core.ErrLoopNotAllowed)
}

// TestNetwork_EdgeClasses verifies weft/warp exclusivity via options.
func TestNetwork_EdgeClasses(t *testing.T) {
	n := core.NewNetwork()
	addNode(t, n, 0, geom.Point{})
	addNode(t, n, 1, geom.Point{X: 1})
	addNode(t, n, 2, geom.Point{X: 2})

	weft, err := n.AddEdge(0, 1, core.AsWeft())
	require.NoError(t, err)
	assert.True(t, weft.Weft)
	assert.False(t, weft.Warp)
	assert.False(t, weft.IsContour())

	warp, err := n.AddEdge(1, 2, core.AsWarp(), core.AsWeft())
	require.NoError(t, err)
	// the last option wins and clears the other flag
	assert.True(t, warp.Weft)
	assert.False(t, warp.Warp)
}

// TestNetwork_Directed checks direction-preserving storage and the
// in/out accessors of directed networks.
func TestNetwork_Directed(t *testing.T) {
	n := core.NewNetwork(core.WithDirected(true))
	addNode(t, n, 0, geom.Point{})
	addNode(t, n, 1, geom.Point{X: 1})

	e, err := n.AddEdge(1, 0, core.AsWarp())
	require.NoError(t, err)
	assert.Equal(t, 1, e.U)
	assert.Equal(t, 0, e.V)

	assert.True(t, n.HasEdge(1, 0))
	assert.False(t, n.HasEdge(0, 1))

	assert.Len(t, n.NodeWarpEdgesOut(1), 1)
	assert.Empty(t, n.NodeWarpEdgesIn(1))
	assert.Len(t, n.NodeWarpEdgesIn(0), 1)
	assert.Equal(t, []int{1}, n.Predecessors(0))
}

// TestNetwork_RemoveNode verifies incident edges disappear with the node.
func TestNetwork_RemoveNode(t *testing.T) {
	n := core.NewNetwork()
	for i := 0; i < 3; i++ {
		addNode(t, n, i, geom.Point{X: float64(i)})
	}
	_, err := n.AddEdge(0, 1)
	require.NoError(t, err)
	_, err = n.AddEdge(1, 2)
	require.NoError(t, err)

	require.NoError(t, n.RemoveNode(1))
	assert.Equal(t, 0, n.EdgeCount())
	assert.Empty(t, n.Neighbors(0))
	assert.ErrorIs(t, n.RemoveNode(1), core.ErrNodeNotFound)
}

// TestNetwork_ParallelEdges covers networks created with
// WithParallelEdges: multiple edges per endpoint pair, their visibility
// through the accessors, and removal semantics.
func TestNetwork_ParallelEdges(t *testing.T) {
	n := core.NewNetwork(core.WithParallelEdges())
	addNode(t, n, 0, geom.Point{})
	addNode(t, n, 1, geom.Point{X: 1})

	first, err := n.AddEdge(0, 1, core.WithSegment(core.SegmentID{Start: 0, End: 1}))
	require.NoError(t, err)
	second, err := n.AddEdge(0, 1, core.WithSegment(core.SegmentID{Start: 0, End: 1, Dup: 1}))
	require.NoError(t, err)

	assert.Equal(t, 2, n.EdgeCount())
	assert.Len(t, n.Edges(), 2)
	assert.Len(t, n.NodeEdges(0), 2)
	assert.Len(t, n.NodeEdges(1), 2)
	assert.Equal(t, []int{1}, n.Neighbors(0))

	// insertion order, in either endpoint order
	between := n.EdgesBetween(1, 0)
	require.Len(t, between, 2)
	assert.Same(t, first, between[0])
	assert.Same(t, second, between[1])

	// Edge returns the first edge added
	e, ok := n.Edge(0, 1)
	require.True(t, ok)
	assert.Same(t, first, e)

	// removal promotes the next parallel edge before clearing adjacency
	require.NoError(t, n.RemoveEdge(0, 1))
	assert.Equal(t, 1, n.EdgeCount())
	assert.True(t, n.HasEdge(0, 1))
	e, ok = n.Edge(0, 1)
	require.True(t, ok)
	assert.Same(t, second, e)

	require.NoError(t, n.RemoveEdge(0, 1))
	assert.False(t, n.HasEdge(0, 1))
	assert.Empty(t, n.Neighbors(0))
	assert.ErrorIs(t, n.RemoveEdge(0, 1), core.ErrEdgeNotFound)
}

// TestNetwork_ParallelEdges_RemoveNode verifies parallel edges disappear
// with their node.
func TestNetwork_ParallelEdges_RemoveNode(t *testing.T) {
	n := core.NewNetwork(core.WithParallelEdges())
	addNode(t, n, 0, geom.Point{})
	addNode(t, n, 1, geom.Point{X: 1})
	for i := 0; i < 3; i++ {
		_, err := n.AddEdge(0, 1, core.AsWeft())
		require.NoError(t, err)
	}
	require.Equal(t, 3, n.EdgeCount())

	require.NoError(t, n.RemoveNode(0))
	assert.Equal(t, 0, n.EdgeCount())
	assert.Empty(t, n.NodeEdges(1))
}

// TestNetwork_ParallelEdges_Clone ensures parallel edges survive cloning
// detached and the clone still accepts further parallel edges.
func TestNetwork_ParallelEdges_Clone(t *testing.T) {
	n := core.NewNetwork(core.WithParallelEdges())
	addNode(t, n, 0, geom.Point{})
	addNode(t, n, 1, geom.Point{X: 1})
	_, err := n.AddEdge(0, 1, core.WithSegment(core.SegmentID{Start: 0, End: 1}))
	require.NoError(t, err)
	_, err = n.AddEdge(0, 1, core.WithSegment(core.SegmentID{Start: 0, End: 1, Dup: 1}))
	require.NoError(t, err)

	cp := n.Clone()
	between := cp.EdgesBetween(0, 1)
	require.Len(t, between, 2)
	between[1].Segment.Dup = 9
	assert.Equal(t, 1, n.EdgesBetween(0, 1)[1].Segment.Dup)

	_, err = cp.AddEdge(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, cp.EdgeCount())
	assert.Equal(t, 2, n.EdgeCount())
}

// TestNetwork_Clone ensures the clone is fully detached.
func TestNetwork_Clone(t *testing.T) {
	n := core.NewNetwork()
	addNode(t, n, 0, geom.Point{})
	addNode(t, n, 1, geom.Point{X: 1})
	seg := core.SegmentID{Start: 0, End: 1}
	_, err := n.AddEdge(0, 1, core.WithSegment(seg))
	require.NoError(t, err)

	cp := n.Clone()
	cpEdge, ok := cp.Edge(0, 1)
	require.True(t, ok)
	cpEdge.Segment.Dup = 9
	cpNode, ok := cp.Node(0)
	require.True(t, ok)
	cpNode.End = true

	orig, _ := n.Edge(0, 1)
	assert.Equal(t, 0, orig.Segment.Dup)
	origNode, _ := n.Node(0)
	assert.False(t, origNode.End)
	assert.Equal(t, 2, cp.NextNodeID())
}
