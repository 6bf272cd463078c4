// Package knit implements the knitting-pattern pipeline over a core
// network: contour initialization, weft and warp edge creation,
// segmentation, mapping network derivation, stitch-width sampling, and
// the final weft and warp connections between segment chains.
//
// The intended call order mirrors the stages of pattern generation:
//
//	net, err := knit.FromContours(contours, courseHeight)
//	net.InitializeLeafConnections()
//	err = net.InitializeWeftEdges()
//	net.InitializeWarpEdges()
//	err = net.AssignSegmentAttributes()
//	err = net.CreateMappingNetwork()
//	net.SampleSegmentContours(stitchWidth)
//	err = net.CreateFinalWeftConnections()
//	err = net.CreateFinalWarpConnections()
//	dir := net.ToDirected()
//
// The resulting directed network is the input for package pattern,
// which computes faces, the dual, and the pattern matrix.
//
// The weft and warp heuristics follow the approach described in
// "Automated Generation of Knit Patterns for Non-developable Surfaces"
// (Popescu et al.): nearest-candidate search, preference for the most
// perpendicular connection, and a least-angle-change tie break when
// candidates are nearly equivalent.
//
// Options:
//   - WithLogger           - structured trace logging via log/slog.
//   - WithMaxConnections   - connection cap per node (default 4).
//   - WithPrecise          - true Euclidean distances instead of squared.
//   - WithLeastConnected   - prefer least connected window node.
//   - WithStartIndex       - contour split index for weft propagation.
//   - WithPropagateFromCenter / WithForceContinuousStart /
//     WithForceContinuousEnd - weft propagation variants.
//   - WithIncludeEndNodes  - include interim end nodes in warp pairing.
//
// Errors:
//
//	ErrNotEnoughContours  - fewer than two contours supplied.
//	ErrStartIndexRange    - contour split index out of range.
//	ErrNoWeftEdges        - operation requires weft edges.
//	ErrNoEndNodes         - operation requires end nodes.
//	ErrNoMappingNetwork   - operation requires a mapping network.
//	ErrSegmentGeometry    - segment geometry could not be joined.
//	ErrTopology           - network topology contradicts an invariant.
package knit
