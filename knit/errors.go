package knit

import "errors"

// Sentinel errors for pipeline operations.
var (
	// ErrNotEnoughContours indicates fewer than two input contours.
	ErrNotEnoughContours = errors.New("knit: not enough contours")

	// ErrInvalidCourseHeight indicates a non-positive course height.
	ErrInvalidCourseHeight = errors.New("knit: course height must be positive")

	// ErrInvalidStitchWidth indicates a non-positive stitch width.
	ErrInvalidStitchWidth = errors.New("knit: stitch width must be positive")

	// ErrStartIndexRange indicates the contour split index is too high.
	ErrStartIndexRange = errors.New("knit: start index out of range")

	// ErrNoWeftEdges indicates the network has no weft edges yet.
	ErrNoWeftEdges = errors.New("knit: no weft edges in network")

	// ErrNoEndNodes indicates the network has no end nodes yet.
	ErrNoEndNodes = errors.New("knit: no end nodes in network")

	// ErrNoMappingNetwork indicates the mapping network was not built.
	ErrNoMappingNetwork = errors.New("knit: mapping network not built")

	// ErrSegmentGeometry indicates segment geometry could not be joined.
	ErrSegmentGeometry = errors.New("knit: segment geometry could not be joined")

	// ErrTopology indicates the network topology contradicts an invariant.
	ErrTopology = errors.New("knit: network topology invariant violated")
)
