// Package pattern turns a finished knitting network into 2d knitting
// pattern data.
//
// The entry point is the directed double cover of a fully connected
// knitting network (see knit.Network.ToDirected). FindCycles discovers
// the faces of that network with a wall-follower walk over neighbors
// sorted in the world XY plane. CreateDual places one node at the
// centroid of every valid face and translates the crossing edges:
// warp edges of the original become weft edges of the dual and vice
// versa, so every dual node represents one stitch. MakePatternData
// finally sorts the dual's rows and columns topologically into a
// rectangular matrix of node ids with -1 marking empty cells.
//
// Cycle finding and neighbor sorting follow the network duality
// implementation of the COMPAS framework (Van Mele et al.); the
// pattern generation follows "Automated Generation of Knit Patterns
// for Non-developable Surfaces" (Popescu et al.).
//
// All operations expect node neighborhoods to be embeddable in the XY
// plane. Networks sampled on strongly folded surfaces should be
// relaxed or flattened before pattern generation.
package pattern
