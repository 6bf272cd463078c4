package pattern_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
	"github.com/knitgraph/knitgraph/knit"
	"github.com/knitgraph/knitgraph/pattern"
)

// squareCover builds the directed double cover of a unit square.
func squareCover(t *testing.T) *core.Network {
	t.Helper()
	n := core.NewNetwork(core.WithDirected(true))
	pts := []geom.Point{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	for i, p := range pts {
		require.NoError(t, n.AddNode(&core.Node{ID: i, Pos: p, Color: core.NoColor}))
	}
	for i := range pts {
		j := (i + 1) % len(pts)
		_, err := n.AddEdge(i, j)
		require.NoError(t, err)
		_, err = n.AddEdge(j, i)
		require.NoError(t, err)
	}

	return n
}

// finalGridCover runs the full pipeline on a 3-contour grid and returns
// the directed double cover of the finished network.
func finalGridCover(t *testing.T) *core.Network {
	t.Helper()

	return finalCover(t, []geom.Polyline{
		{{X: 0, Y: 0}, {X: 4, Y: 0}},
		{{X: 0, Y: 1}, {X: 4, Y: 1}},
		{{X: 0, Y: 2}, {X: 4, Y: 2}},
	})
}

// finalCover runs the full pipeline on contours at course height and
// stitch width 1 and returns the directed double cover.
func finalCover(t *testing.T, contours []geom.Polyline) *core.Network {
	t.Helper()
	kn, err := knit.FromContours(contours, 1)
	require.NoError(t, err)
	kn.InitializeLeafConnections()
	require.NoError(t, kn.InitializeWeftEdges())
	kn.InitializeWarpEdges()
	require.NoError(t, kn.AssignSegmentAttributes())
	require.NoError(t, kn.CreateMappingNetwork())
	require.NoError(t, kn.SampleSegmentContours(1))
	require.NoError(t, kn.CreateFinalWeftConnections())
	require.NoError(t, kn.CreateFinalWarpConnections())

	return kn.ToDirected()
}

// TestFindCyclesSquare checks cycle discovery on a single square: the
// inner face and the outer boundary.
func TestFindCyclesSquare(t *testing.T) {
	cycles, err := pattern.FindCycles(squareCover(t))
	require.NoError(t, err)
	require.Len(t, cycles, 2)
	for _, cycle := range cycles {
		assert.Len(t, cycle, 4)
	}
}

// TestFindCyclesPlaneNormal sorts neighbors in local reference planes
// for a square standing upright in the XZ plane, where the world XY
// projection is degenerate.
func TestFindCyclesPlaneNormal(t *testing.T) {
	n := core.NewNetwork(core.WithDirected(true))
	pts := []geom.Point{{}, {X: 1}, {X: 1, Z: 1}, {Z: 1}}
	normals := make(map[int]geom.Vec, len(pts))
	for i, p := range pts {
		require.NoError(t, n.AddNode(&core.Node{ID: i, Pos: p, Color: core.NoColor}))
		normals[i] = geom.Vec{Y: 1}
	}
	for i := range pts {
		j := (i + 1) % len(pts)
		_, err := n.AddEdge(i, j)
		require.NoError(t, err)
		_, err = n.AddEdge(j, i)
		require.NoError(t, err)
	}

	cycles, err := pattern.FindCycles(n,
		pattern.WithPlaneMode(pattern.PlaneNormal),
		pattern.WithNormals(normals))
	require.NoError(t, err)
	require.Len(t, cycles, 2)
	for _, cycle := range cycles {
		assert.Len(t, cycle, 4)
	}
}

// TestFindCyclesPlaneModeFallback falls back to the XY plane when no
// normals are supplied.
func TestFindCyclesPlaneModeFallback(t *testing.T) {
	cycles, err := pattern.FindCycles(squareCover(t),
		pattern.WithPlaneMode(pattern.PlaneAverageNormal))
	require.NoError(t, err)
	assert.Len(t, cycles, 2)
}

// TestFindCyclesUndirected checks that undirected networks are rejected.
func TestFindCyclesUndirected(t *testing.T) {
	_, err := pattern.FindCycles(core.NewNetwork())
	assert.ErrorIs(t, err, pattern.ErrNotDirected)
}

// TestFindCyclesGrid checks the face count of the finished grid
// network: eight stitch cells plus the outer boundary.
func TestFindCyclesGrid(t *testing.T) {
	cycles, err := pattern.FindCycles(finalGridCover(t))
	require.NoError(t, err)
	require.Len(t, cycles, 9)

	quads, boundary := 0, 0
	for _, cycle := range cycles {
		switch len(cycle) {
		case 4:
			quads++
		case 12:
			boundary++
		}
	}
	assert.Equal(t, 8, quads)
	assert.Equal(t, 1, boundary)
}

// TestCreateMesh checks face construction, ngon fans and the valence
// limit.
func TestCreateMesh(t *testing.T) {
	dir := finalGridCover(t)

	mesh, err := pattern.CreateMesh(dir)
	require.NoError(t, err)
	assert.Len(t, mesh.Vertices, 15)
	assert.Len(t, mesh.Faces, 8)
	assert.Empty(t, mesh.Ngons)

	// raising the valence limit fans the boundary around a centroid
	mesh, err = pattern.CreateMesh(dir, pattern.WithMaxValence(12))
	require.NoError(t, err)
	assert.Len(t, mesh.Vertices, 16)
	assert.Len(t, mesh.Faces, 8+12)
	assert.Len(t, mesh.Ngons, 1)
}

// TestCreateDual checks the dual of the finished grid: one node per
// stitch cell, crossing edges with swapped weft/warp classes and the
// derived node attributes.
func TestCreateDual(t *testing.T) {
	dual, err := pattern.CreateDual(finalGridCover(t))
	require.NoError(t, err)

	assert.Equal(t, 8, dual.NodeCount())
	assert.Len(t, dual.WeftEdges(), 4)
	assert.Len(t, dual.WarpEdges(), 6)

	leaves, starts := 0, 0
	for _, nd := range dual.Nodes() {
		assert.True(t, nd.End, "dual node %d must be an end node", nd.ID)
		assert.False(t, nd.Increase)
		assert.False(t, nd.Decrease)
		if nd.Leaf {
			leaves++
		}
		if nd.Start {
			starts++
		}
	}
	// the outermost cells of both bands touch leaf nodes
	assert.Equal(t, 4, leaves)
	// the cast-on band starts its rows
	assert.Equal(t, 4, starts)

	assert.True(t, pattern.VerifyDualForm(dual))
}

// TestCreateDualMendTrailingRows checks the unsupported option.
func TestCreateDualMendTrailingRows(t *testing.T) {
	_, err := pattern.CreateDual(finalGridCover(t), pattern.WithMendTrailingRows())
	assert.ErrorIs(t, err, pattern.ErrUnsupported)
}

// TestMakePatternData checks the pattern matrix of the finished grid:
// four rows of two stitches, chained by warp dependencies.
func TestMakePatternData(t *testing.T) {
	dual, err := pattern.CreateDual(finalGridCover(t))
	require.NoError(t, err)

	matrix, err := pattern.MakePatternData(dual)
	require.NoError(t, err)

	require.Equal(t, 4, matrix.Rows())
	require.Equal(t, 2, matrix.Cols())

	for i := 0; i < matrix.Rows(); i++ {
		first, okF := dual.Node(matrix.At(i, 0))
		second, okS := dual.Node(matrix.At(i, 1))
		require.True(t, okF && okS, "row %d entries must be dual nodes", i)
		assert.True(t, first.Start, "row %d starts at a start node", i)
		// the row follows one weft edge
		e, ok := dual.Edge(first.ID, second.ID)
		require.True(t, ok)
		assert.True(t, e.Weft)
	}

	// consecutive rows are linked by a warp edge between their starts
	for i := 0; i+1 < matrix.Rows(); i++ {
		e, ok := dual.Edge(matrix.At(i, 0), matrix.At(i+1, 0))
		require.True(t, ok, "rows %d and %d must be warp-linked", i, i+1)
		assert.True(t, e.Warp)
	}
}

// TestMakePatternDataUndirected checks that undirected networks are
// rejected.
func TestMakePatternDataUndirected(t *testing.T) {
	_, err := pattern.MakePatternData(core.NewNetwork())
	assert.ErrorIs(t, err, pattern.ErrNotDirected)
}

// TestMatrix checks the matrix accessors, cloning and rendering.
func TestMatrix(t *testing.T) {
	m := pattern.Matrix{{3, pattern.Empty}, {4, 5}}
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 2, m.Cols())
	assert.Equal(t, 3, m.At(0, 0))
	assert.Equal(t, pattern.Empty, m.At(0, 1))
	assert.Equal(t, pattern.Empty, m.At(7, 7))

	clone := m.Clone()
	clone[0][0] = 9
	assert.Equal(t, 3, m.At(0, 0))

	assert.Equal(t, "3 .\n4 5\n", m.String())
}

// widenedCover runs the full pipeline over four contours whose upper
// half is twice as wide, opening an extra column between the bands.
func widenedCover(t *testing.T) *core.Network {
	t.Helper()

	return finalCover(t, []geom.Polyline{
		{{X: 0, Y: 0}, {X: 2, Y: 0}},
		{{X: 0, Y: 1}, {X: 2, Y: 1}},
		{{X: 0, Y: 2}, {X: 4, Y: 2}},
		{{X: 0, Y: 3}, {X: 4, Y: 3}},
	})
}

// narrowedCover runs the full pipeline over four contours whose upper
// half is shorter and shifted right, merging away the leftmost column.
func narrowedCover(t *testing.T) *core.Network {
	t.Helper()

	return finalCover(t, []geom.Polyline{
		{{X: 0, Y: 0}, {X: 4, Y: 0}},
		{{X: 0, Y: 1}, {X: 4, Y: 1}},
		{{X: 1, Y: 2}, {X: 4, Y: 2}},
		{{X: 1, Y: 3}, {X: 4, Y: 3}},
	})
}

// TestCreateDualWidenedContours checks the dual of the widened fabric:
// the column opening between the short and the long rows leaves a
// single increase cell beside it.
func TestCreateDualWidenedContours(t *testing.T) {
	dual, err := pattern.CreateDual(widenedCover(t))
	require.NoError(t, err)

	assert.Equal(t, 8, dual.NodeCount())
	assert.Len(t, dual.WeftEdges(), 5)
	assert.Len(t, dual.WarpEdges(), 4)

	var inc *core.Node
	for _, nd := range dual.Nodes() {
		assert.False(t, nd.Decrease, "dual node %d", nd.ID)
		if nd.Increase {
			require.Nil(t, inc, "a single increase cell expected")
			inc = nd
		}
	}
	require.NotNil(t, inc)
	assert.True(t, inc.End)
	assert.False(t, inc.Start)
	assert.False(t, inc.Leaf)
	assert.InDelta(t, 1.5, inc.Pos.X, 1e-9)
	assert.InDelta(t, 2.5, inc.Pos.Y, 1e-9)

	assert.True(t, pattern.VerifyDualForm(dual))
}

// TestCreateDualNarrowedContours checks the dual of the narrowed
// fabric: the column that merges away leaves a stack of decrease
// cells, one per course.
func TestCreateDualNarrowedContours(t *testing.T) {
	dual, err := pattern.CreateDual(narrowedCover(t))
	require.NoError(t, err)

	assert.Equal(t, 8, dual.NodeCount())
	assert.Len(t, dual.WeftEdges(), 5)
	assert.Len(t, dual.WarpEdges(), 5)

	var decs []*core.Node
	for _, nd := range dual.Nodes() {
		assert.False(t, nd.Increase, "dual node %d", nd.ID)
		if nd.Decrease {
			decs = append(decs, nd)
		}
	}
	require.Len(t, decs, 3)
	sort.Slice(decs, func(i, j int) bool { return decs[i].Pos.Y < decs[j].Pos.Y })
	for i, nd := range decs {
		assert.InDelta(t, 2.5, nd.Pos.X, 1e-9)
		assert.InDelta(t, 0.5+float64(i), nd.Pos.Y, 1e-9)
	}
	// the lowest cell opens its row, the middle one sits inside a row
	// and is no end cell, the top one closes its row
	assert.True(t, decs[0].End)
	assert.True(t, decs[0].Start)
	assert.False(t, decs[1].End)
	assert.True(t, decs[2].End)
	assert.False(t, decs[2].Start)

	assert.True(t, pattern.VerifyDualForm(dual))
}

// TestMakePatternDataWidenedContours checks the matrix of the widened
// fabric: the opened column pushes the increase cell into a matrix
// column of its own, padded with empty cells below.
func TestMakePatternDataWidenedContours(t *testing.T) {
	dual, err := pattern.CreateDual(widenedCover(t))
	require.NoError(t, err)

	matrix, err := pattern.MakePatternData(dual)
	require.NoError(t, err)

	require.Equal(t, 3, matrix.Rows())
	require.Equal(t, 4, matrix.Cols())

	assert.Equal(t, pattern.Empty, matrix.At(0, 2))
	assert.Equal(t, pattern.Empty, matrix.At(1, 0))
	assert.Equal(t, pattern.Empty, matrix.At(1, 2))
	assert.Equal(t, pattern.Empty, matrix.At(2, 0))

	inc, ok := dual.Node(matrix.At(0, 3))
	require.True(t, ok)
	assert.True(t, inc.Increase)
}

// TestMakePatternDataNarrowedContours checks the matrix of the
// narrowed fabric: the wale cut off by the merge comes out one cell
// short and the decrease cells line up in the last row.
func TestMakePatternDataNarrowedContours(t *testing.T) {
	dual, err := pattern.CreateDual(narrowedCover(t))
	require.NoError(t, err)

	matrix, err := pattern.MakePatternData(dual)
	require.NoError(t, err)

	require.Equal(t, 3, matrix.Rows())
	require.Equal(t, 3, matrix.Cols())
	assert.Equal(t, pattern.Empty, matrix.At(1, 2))

	for j := 0; j < matrix.Cols(); j++ {
		nd, ok := dual.Node(matrix.At(2, j))
		require.True(t, ok, "cell (2,%d) must be a dual node", j)
		assert.True(t, nd.Decrease, "cell (2,%d)", j)
	}
}
