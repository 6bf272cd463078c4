package geom

import "math"

// Point is a location in 3D space.
type Point struct {
	X, Y, Z float64
}

// Vec is a displacement in 3D space.
type Vec struct {
	X, Y, Z float64
}

// Sub returns the vector from q to p.
// Complexity: O(1)
func (p Point) Sub(q Point) Vec {
	return Vec{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Add translates p by v.
func (p Point) Add(v Vec) Point {
	return Point{p.X + v.X, p.Y + v.Y, p.Z + v.Z}
}

// Mid returns the midpoint between p and q.
func (p Point) Mid(q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2, Z: (p.Z + q.Z) / 2}
}

// DistanceTo returns the Euclidean distance between p and q.
func (p Point) DistanceTo(q Point) float64 {
	return p.Sub(q).Length()
}

// SquaredDistanceTo returns the squared Euclidean distance between p and q.
// Cheaper than DistanceTo when only relative order matters.
func (p Point) SquaredDistanceTo(q Point) float64 {
	d := p.Sub(q)

	return d.Dot(d)
}

// Mid returns the midpoint of p and q.
func Mid(p, q Point) Point {
	return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2, (p.Z + q.Z) / 2}
}

// Centroid returns the arithmetic mean of pts.
// Returns the zero Point for an empty slice.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
		c.Z += p.Z
	}
	n := float64(len(pts))
	c.X /= n
	c.Y /= n
	c.Z /= n

	return c
}

// Dot returns the dot product of v and w.
func (v Vec) Dot(w Vec) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Add returns the sum of v and w.
func (v Vec) Add(w Vec) Vec {
	return Vec{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Cross returns the cross product of v and w.
func (v Vec) Cross(w Vec) Vec {
	return Vec{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Length returns the Euclidean norm of v.
func (v Vec) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec {
	return Vec{v.X * s, v.Y * s, v.Z * s}
}

// Neg returns the opposite vector.
func (v Vec) Neg() Vec {
	return Vec{-v.X, -v.Y, -v.Z}
}

// Unit returns v normalized to length 1, or the zero vector if v is zero.
func (v Vec) Unit() Vec {
	l := v.Length()
	if l == 0 {
		return Vec{}
	}

	return v.Scale(1 / l)
}

// AngleBetween returns the unsigned angle between v and w in radians,
// in the range [0, π]. Zero-length inputs yield 0.
func AngleBetween(v, w Vec) float64 {
	lv, lw := v.Length(), w.Length()
	if lv == 0 || lw == 0 {
		return 0
	}
	// Clamp against rounding drift before Acos.
	c := v.Dot(w) / (lv * lw)
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}

	return math.Acos(c)
}
