package geom

import "errors"

// ErrDisjointJoin indicates polylines passed to Join do not share endpoints.
var ErrDisjointJoin = errors.New("geom: polylines do not share endpoints")

// JoinTolerance is the maximum endpoint distance at which Join still
// considers two polylines connected.
const JoinTolerance = 1e-6

// Polyline is an ordered sequence of points. A two-point polyline is a
// line segment. Most pipeline edges carry one as their geometry.
type Polyline []Point

// Line returns the two-point polyline from a to b.
func Line(a, b Point) Polyline {
	return Polyline{a, b}
}

// Start returns the first point. Panics on an empty polyline.
func (pl Polyline) Start() Point { return pl[0] }

// End returns the last point. Panics on an empty polyline.
func (pl Polyline) End() Point { return pl[len(pl)-1] }

// Length returns the total arc length.
// Complexity: O(n)
func (pl Polyline) Length() float64 {
	var total float64
	for i := 1; i < len(pl); i++ {
		total += pl[i-1].DistanceTo(pl[i])
	}

	return total
}

// Mid returns the point halfway along the arc length.
func (pl Polyline) Mid() Point {
	return pl.PointAtLength(pl.Length() / 2)
}

// Reverse returns a copy with the point order inverted.
func (pl Polyline) Reverse() Polyline {
	out := make(Polyline, len(pl))
	for i, p := range pl {
		out[len(pl)-1-i] = p
	}

	return out
}

// Clone returns a copy of pl.
func (pl Polyline) Clone() Polyline {
	out := make(Polyline, len(pl))
	copy(out, pl)

	return out
}

// PointAtLength returns the point at arc-length distance d from the start.
// d is clamped to [0, Length()].
// Complexity: O(n)
func (pl Polyline) PointAtLength(d float64) Point {
	if len(pl) == 0 {
		return Point{}
	}
	if d <= 0 {
		return pl[0]
	}
	for i := 1; i < len(pl); i++ {
		seg := pl[i-1].DistanceTo(pl[i])
		if d <= seg && seg > 0 {
			t := d / seg

			return pl[i-1].Add(pl[i].Sub(pl[i-1]).Scale(t))
		}
		d -= seg
	}

	return pl[len(pl)-1]
}

// DivideByCount splits pl into count segments of equal arc length and
// returns the division points. With includeEnds the result has count+1
// points (both endpoints included); without it only the count-1 interior
// points are returned. count < 1 yields nil.
// Complexity: O(n·count)
func (pl Polyline) DivideByCount(count int, includeEnds bool) []Point {
	if count < 1 || len(pl) < 2 {
		return nil
	}
	step := pl.Length() / float64(count)
	var pts []Point
	if includeEnds {
		pts = append(pts, pl.Start())
	}
	for i := 1; i < count; i++ {
		pts = append(pts, pl.PointAtLength(step*float64(i)))
	}
	if includeEnds {
		pts = append(pts, pl.End())
	}

	return pts
}

// Join concatenates the given polylines into a single polyline. Each
// consecutive pair must share an endpoint within JoinTolerance; pieces
// are flipped as needed. Returns ErrDisjointJoin when a pair does not
// connect.
// Complexity: O(total points)
func Join(pieces []Polyline) (Polyline, error) {
	if len(pieces) == 0 {
		return nil, ErrDisjointJoin
	}
	out := pieces[0].Clone()
	for _, next := range pieces[1:] {
		if len(next) == 0 {
			return nil, ErrDisjointJoin
		}
		switch {
		case out.End().DistanceTo(next.Start()) <= JoinTolerance:
			out = append(out, next[1:]...)
		case out.End().DistanceTo(next.End()) <= JoinTolerance:
			rev := next.Reverse()
			out = append(out, rev[1:]...)
		case out.Start().DistanceTo(next.Start()) <= JoinTolerance:
			out = append(out.Reverse(), next[1:]...)
		case out.Start().DistanceTo(next.End()) <= JoinTolerance:
			rev := next.Reverse()
			out = append(out.Reverse(), rev[1:]...)
		default:
			return nil, ErrDisjointJoin
		}
	}

	return out, nil
}
