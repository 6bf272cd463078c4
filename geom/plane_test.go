package geom_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knitgraph/knitgraph/geom"
)

// TestNewPlaneBasis checks the in-plane basis is orthonormal and
// right-handed with the normal.
func TestNewPlaneBasis(t *testing.T) {
	pl := geom.NewPlane(geom.Point{X: 1, Y: 2, Z: 3}, geom.Vec{X: 0, Y: 3, Z: 4})

	assert.InDelta(t, 1, pl.Normal.Length(), 1e-12)
	assert.InDelta(t, 1, pl.U.Length(), 1e-12)
	assert.InDelta(t, 1, pl.V.Length(), 1e-12)
	assert.InDelta(t, 0, pl.U.Dot(pl.V), 1e-12)
	assert.InDelta(t, 0, pl.U.Dot(pl.Normal), 1e-12)
	cross := pl.U.Cross(pl.V)
	assert.InDelta(t, 1, cross.Dot(pl.Normal), 1e-12)
}

// TestPlaneRemap maps the origin to zero and preserves in-plane
// distances.
func TestPlaneRemap(t *testing.T) {
	origin := geom.Point{X: 2, Y: 0, Z: 1}
	pl := geom.NewPlane(origin, geom.Vec{Y: 1})

	assert.Equal(t, geom.Point{}, pl.Remap(origin))

	p := geom.Point{X: 5, Y: 7, Z: 5}
	local := pl.Remap(p)
	assert.Zero(t, local.Z)
	// The normal component is dropped, the in-plane offset survives.
	assert.InDelta(t, 5, math.Hypot(local.X, local.Y), 1e-12)
}

// TestFitPlane recovers the plane of coplanar points.
func TestFitPlane(t *testing.T) {
	pts := []geom.Point{
		{X: 0, Y: 0, Z: 2}, {X: 1, Y: 0, Z: 2},
		{X: 1, Y: 1, Z: 2}, {X: 0, Y: 1, Z: 2},
	}

	pl, ok := geom.FitPlane(pts)
	require.True(t, ok)
	assert.InDelta(t, 1, math.Abs(pl.Normal.Z), 1e-12)
	assert.InDelta(t, 0, pl.Normal.X, 1e-12)
	assert.InDelta(t, 0, pl.Normal.Y, 1e-12)
	assert.Equal(t, geom.Point{X: 0.5, Y: 0.5, Z: 2}, pl.Origin)
}

// TestFitPlaneDegenerate rejects collinear and undersized inputs.
func TestFitPlaneDegenerate(t *testing.T) {
	_, ok := geom.FitPlane([]geom.Point{{X: 0}, {X: 1}})
	assert.False(t, ok)

	_, ok = geom.FitPlane([]geom.Point{{X: 0}, {X: 1}, {X: 2}})
	assert.False(t, ok)
}
