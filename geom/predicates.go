package geom

// IsCCWXY reports whether c lies to the left of the directed line a→b
// when the three points are projected onto the XY plane. With colinear
// set, points on the line also count as counter-clockwise.
// Complexity: O(1)
func IsCCWXY(a, b, c Point, colinear bool) bool {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	if colinear {
		return cross >= 0
	}

	return cross > 0
}
