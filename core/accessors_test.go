package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
)

// buildTwoContours builds two positions with three nodes each,
// contour-chained, with leaves at both ends of each contour.
func buildTwoContours(t *testing.T) *core.Network {
	t.Helper()
	n := core.NewNetwork()
	id := 0
	for pos := 0; pos < 2; pos++ {
		for num := 0; num < 3; num++ {
			require.NoError(t, n.AddNode(&core.Node{
				ID:       id,
				Pos:      geom.Point{X: float64(num), Y: float64(pos)},
				Position: pos,
				Num:      num,
				Leaf:     num == 0 || num == 2,
				Color:    core.NoColor,
			}))
			id++
		}
	}
	for pos := 0; pos < 2; pos++ {
		base := pos * 3
		for num := 0; num < 2; num++ {
			_, err := n.AddEdge(base+num, base+num+1)
			require.NoError(t, err)
		}
	}

	return n
}

// TestAccessors_Positions checks position listing and per-position order.
func TestAccessors_Positions(t *testing.T) {
	n := buildTwoContours(t)
	assert.Equal(t, []int{0, 1}, n.Positions())

	nodes := n.NodesOnPosition(1)
	require.Len(t, nodes, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{nodes[0].Num, nodes[1].Num, nodes[2].Num})

	byPos := n.AllNodesByPosition()
	require.Len(t, byPos, 2)
	assert.Equal(t, 3, byPos[0][0].ID+byPos[0][1].ID+byPos[0][2].ID)
}

// TestAccessors_LeafNodes checks leaf selection overall and per position.
func TestAccessors_LeafNodes(t *testing.T) {
	n := buildTwoContours(t)
	assert.Len(t, n.LeafNodes(), 4)

	leaves := n.LeafNodesOnPosition(0)
	require.Len(t, leaves, 2)
	assert.Equal(t, 0, leaves[0].Num)
	assert.Equal(t, 2, leaves[1].Num)
}

// TestAccessors_EdgeClasses checks the per-class incident edge views.
func TestAccessors_EdgeClasses(t *testing.T) {
	n := buildTwoContours(t)
	_, err := n.AddEdge(0, 3, core.AsWeft())
	require.NoError(t, err)
	_, err = n.AddEdge(1, 4, core.AsWarp())
	require.NoError(t, err)

	assert.Len(t, n.NodeContourEdges(1), 2)
	assert.Len(t, n.NodeWeftEdges(0), 1)
	assert.Len(t, n.NodeWarpEdges(1), 1)
	assert.Len(t, n.WeftEdges(), 1)
	assert.Len(t, n.WarpEdges(), 1)
	assert.Len(t, n.ContourEdges(), 4)
}

// TestAccessors_Segments checks segment contour lookups and ordering.
func TestAccessors_Segments(t *testing.T) {
	n := core.NewNetwork()
	for i := 0; i < 3; i++ {
		require.NoError(t, n.AddNode(&core.Node{ID: i, Pos: geom.Point{X: float64(i)}, End: true, Color: core.NoColor}))
	}
	segB := core.SegmentID{Start: 0, End: 2, Dup: 1}
	segA := core.SegmentID{Start: 0, End: 1}
	_, err := n.AddEdge(0, 2, core.WithSegment(segB))
	require.NoError(t, err)
	_, err = n.AddEdge(0, 1, core.WithSegment(segA))
	require.NoError(t, err)

	edges := n.SegmentContourEdges()
	require.Len(t, edges, 2)
	assert.Equal(t, segA, *edges[0].Segment)
	assert.Equal(t, segB, *edges[1].Segment)

	starts := n.EndNodeSegmentsByStart(0)
	assert.Len(t, starts, 2)
	assert.Empty(t, n.EndNodeSegmentsByStart(1))
	assert.Len(t, n.EndNodeSegmentsByEnd(1), 1)
}

// TestAccessors_NodesOnSegment checks interior segment node ordering.
func TestAccessors_NodesOnSegment(t *testing.T) {
	n := core.NewNetwork()
	seg := core.SegmentID{Start: 0, End: 9}
	for i := 0; i < 3; i++ {
		s := seg
		require.NoError(t, n.AddNode(&core.Node{
			ID: 10 + i, Num: 2 - i, Segment: &s, Color: core.NoColor,
		}))
	}
	nodes := n.NodesOnSegment(seg)
	require.Len(t, nodes, 3)
	assert.Equal(t, 12, nodes[0].ID)
	assert.Equal(t, 10, nodes[2].ID)
}
