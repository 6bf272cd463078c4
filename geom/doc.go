// Package geom provides the small set of 3D geometric primitives the
// knitting pipeline needs: points, vectors, and polylines, plus the
// planar orientation predicate used when walking faces.
//
// Key features:
//   - Point and Vec value types with the usual arithmetic.
//   - Polyline with length, interpolation, division and joining.
//   - IsCCWXY orientation test in the XY plane.
//   - AngleBetween for unsigned angles between vectors.
//
// All types are plain values; nothing here is concurrency-sensitive.
package geom
