package geom

import "math"

// Plane is an oriented plane with an orthonormal in-plane basis. The
// basis is right-handed: U × V points along Normal.
type Plane struct {
	Origin Point
	Normal Vec
	U, V   Vec
}

// NewPlane builds a plane through origin with the given normal. The
// in-plane basis is chosen deterministically from the world axis least
// aligned with the normal.
func NewPlane(origin Point, normal Vec) Plane {
	n := normal.Unit()
	helper := Vec{Z: 1}
	if math.Abs(n.Z) > math.Abs(n.X) && math.Abs(n.Z) > math.Abs(n.Y) {
		helper = Vec{X: 1}
	}
	u := helper.Cross(n).Unit()
	v := n.Cross(u)

	return Plane{Origin: origin, Normal: n, U: u, V: v}
}

// Remap projects p onto the plane and returns its local coordinates:
// X along U, Y along V, Z zero.
func (pl Plane) Remap(p Point) Point {
	d := p.Sub(pl.Origin)

	return Point{X: d.Dot(pl.U), Y: d.Dot(pl.V)}
}

// FitPlane fits a least-squares plane through the points, anchored at
// their centroid. Returns false when the points are too few or
// degenerate (collinear) to define a plane.
// Complexity: O(n)
func FitPlane(pts []Point) (Plane, bool) {
	if len(pts) < 3 {
		return Plane{}, false
	}

	// 1. Covariance of the points about their centroid.
	c := Centroid(pts)
	var xx, xy, xz, yy, yz, zz float64
	for _, p := range pts {
		d := p.Sub(c)
		xx += d.X * d.X
		xy += d.X * d.Y
		xz += d.X * d.Z
		yy += d.Y * d.Y
		yz += d.Y * d.Z
		zz += d.Z * d.Z
	}

	// 2. The normal is the direction of least variance; pick the axis
	// with the largest determinant for numerical stability.
	detX := yy*zz - yz*yz
	detY := xx*zz - xz*xz
	detZ := xx*yy - xy*xy

	var normal Vec
	switch {
	case detX >= detY && detX >= detZ:
		if detX <= 0 {
			return Plane{}, false
		}
		normal = Vec{X: detX, Y: xz*yz - xy*zz, Z: xy*yz - xz*yy}
	case detY >= detZ:
		if detY <= 0 {
			return Plane{}, false
		}
		normal = Vec{X: xz*yz - xy*zz, Y: detY, Z: xy*xz - yz*xx}
	default:
		if detZ <= 0 {
			return Plane{}, false
		}
		normal = Vec{X: xy*yz - xz*yy, Y: xy*xz - yz*xx, Z: detZ}
	}

	return NewPlane(c, normal), true
}
