// Package core defines the central Network, Node, and Edge types for
// knitting networks, and provides thread-safe primitives for building,
// querying, and cloning them.
//
// A Network is an attributed graph over stitch nodes. Nodes carry the
// knitting attributes (contour position, index on the contour, leaf/end
// flags, increase/decrease flags, segment id, color); edges carry their
// class (contour, weft, or warp), an optional segment id, and their
// geometry as a polyline.
//
// Networks are undirected by default: edge endpoints are normalized so
// the lower node id always comes first, and a pair of nodes carries at
// most one edge. WithDirected(true) builds a directed network instead,
// used for the dual of a knitting network; there edge direction is
// preserved and in/out accessors become meaningful.
//
// All core APIs use separate sync.RWMutex locks internally (muNode for
// nodes, muEdgeAdj for edges and adjacency), so networks can be shared
// across goroutines with minimal contention.
//
// Errors:
//
//	ErrNilNode       - node pointer is nil.
//	ErrDuplicateNode - node id already present.
//	ErrNodeNotFound  - requested node does not exist.
//	ErrEdgeNotFound  - requested edge does not exist.
//	ErrEdgeExists    - edge between the two nodes already present.
//	ErrLoopNotAllowed - self-loop attempted; knitting networks never loop.
package core
