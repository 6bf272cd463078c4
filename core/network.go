package core

import (
	"fmt"
	"sort"

	"github.com/knitgraph/knitgraph/geom"
)

// AddNode inserts node nd into the network. The node pointer is stored
// as-is; callers must not mutate ID afterwards.
// Returns ErrNilNode or ErrDuplicateNode on invalid input.
// Complexity: O(1)
func (n *Network) AddNode(nd *Node) error {
	// 1. Validate input.
	if nd == nil {
		return ErrNilNode
	}

	n.muNode.Lock()
	defer n.muNode.Unlock()

	// 2. Reject id collisions.
	if _, ok := n.nodes[nd.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, nd.ID)
	}

	// 3. Store and advance the id watermark.
	n.nodes[nd.ID] = nd
	if nd.ID >= n.nextID {
		n.nextID = nd.ID + 1
	}

	return nil
}

// NewNodeAt creates a node with the next free id at position p and
// inserts it. Returns the created node.
// Complexity: O(1)
func (n *Network) NewNodeAt(p geom.Point) *Node {
	n.muNode.Lock()
	nd := &Node{ID: n.nextID, Pos: p, Color: NoColor}
	n.nodes[nd.ID] = nd
	n.nextID++
	n.muNode.Unlock()

	return nd
}

// NextNodeID returns the smallest id not yet used by any node.
func (n *Network) NextNodeID() int {
	n.muNode.RLock()
	defer n.muNode.RUnlock()

	return n.nextID
}

// Node returns the node with the given id, or false when absent.
func (n *Network) Node(id int) (*Node, bool) {
	n.muNode.RLock()
	defer n.muNode.RUnlock()
	nd, ok := n.nodes[id]

	return nd, ok
}

// HasNode reports whether a node with the given id exists.
func (n *Network) HasNode(id int) bool {
	_, ok := n.Node(id)

	return ok
}

// NodeCount returns the number of nodes.
func (n *Network) NodeCount() int {
	n.muNode.RLock()
	defer n.muNode.RUnlock()

	return len(n.nodes)
}

// Nodes returns all nodes sorted by id.
// Complexity: O(V log V)
func (n *Network) Nodes() []*Node {
	n.muNode.RLock()
	out := make([]*Node, 0, len(n.nodes))
	for _, nd := range n.nodes {
		out = append(out, nd)
	}
	n.muNode.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// RemoveNode deletes the node and every edge incident to it.
// Returns ErrNodeNotFound when the id is unknown.
// Complexity: O(degree)
func (n *Network) RemoveNode(id int) error {
	n.muNode.Lock()
	if _, ok := n.nodes[id]; !ok {
		n.muNode.Unlock()

		return fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	delete(n.nodes, id)
	n.muNode.Unlock()

	n.muEdgeAdj.Lock()
	defer n.muEdgeAdj.Unlock()

	// Drop outgoing adjacency and matching edge records.
	for v := range n.succ[id] {
		key := n.edgeKey(id, v)
		delete(n.edges, key)
		delete(n.parallel, key)
		if n.directed {
			delete(n.pred[v], id)
		} else {
			delete(n.succ[v], id)
		}
	}
	delete(n.succ, id)

	// Drop incoming adjacency when directed.
	if n.directed {
		for u := range n.pred[id] {
			key := n.edgeKey(u, id)
			delete(n.edges, key)
			delete(n.parallel, key)
			delete(n.succ[u], id)
		}
		delete(n.pred, id)
	}

	return nil
}

// AddEdge connects u and v and returns the created edge. Undirected
// networks normalize the endpoints so e.U < e.V. The default geometry
// is the straight line between the endpoint positions; options may
// override class, segment and geometry.
// Returns ErrNodeNotFound, ErrLoopNotAllowed or ErrEdgeExists; networks
// created with WithParallelEdges store further edges between an already
// connected pair instead of rejecting them.
// Complexity: O(1)
func (n *Network) AddEdge(u, v int, opts ...EdgeOption) (*Edge, error) {
	// 1. Validate endpoints.
	if u == v {
		return nil, fmt.Errorf("%w: %d", ErrLoopNotAllowed, u)
	}
	n.muNode.RLock()
	nu, okU := n.nodes[u]
	nv, okV := n.nodes[v]
	n.muNode.RUnlock()
	if !okU {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, u)
	}
	if !okV {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, v)
	}

	n.muEdgeAdj.Lock()
	defer n.muEdgeAdj.Unlock()

	// 2. Reject duplicates unless parallel edges are allowed.
	key := n.edgeKey(u, v)
	_, occupied := n.edges[key]
	if occupied && !n.multi {
		return nil, fmt.Errorf("%w: %d-%d", ErrEdgeExists, u, v)
	}

	// 3. Build the edge with normalized endpoints and default geometry.
	e := &Edge{U: key[0], V: key[1]}
	if e.U == nu.ID {
		e.Geo = geom.Line(nu.Pos, nv.Pos)
	} else {
		e.Geo = geom.Line(nv.Pos, nu.Pos)
	}
	for _, opt := range opts {
		opt(e)
	}
	if occupied {
		n.parallel[key] = append(n.parallel[key], e)
	} else {
		n.edges[key] = e
	}

	// 4. Index adjacency.
	n.link(key[0], key[1])

	return e, nil
}

// link records adjacency for an already stored edge key.
func (n *Network) link(u, v int) {
	if n.succ[u] == nil {
		n.succ[u] = make(map[int]struct{})
	}
	n.succ[u][v] = struct{}{}
	if n.directed {
		if n.pred[v] == nil {
			n.pred[v] = make(map[int]struct{})
		}
		n.pred[v][u] = struct{}{}
	} else {
		if n.succ[v] == nil {
			n.succ[v] = make(map[int]struct{})
		}
		n.succ[v][u] = struct{}{}
	}
}

// Edge returns the edge between u and v, or false when absent.
// Undirected lookups accept the endpoints in either order. When the
// pair carries parallel edges the first one added is returned; use
// EdgesBetween to see all of them.
func (n *Network) Edge(u, v int) (*Edge, bool) {
	n.muEdgeAdj.RLock()
	defer n.muEdgeAdj.RUnlock()
	e, ok := n.edges[n.edgeKey(u, v)]

	return e, ok
}

// EdgesBetween returns every edge between u and v in insertion order,
// or nil when the nodes are not connected. Networks without parallel
// edges return at most one edge.
func (n *Network) EdgesBetween(u, v int) []*Edge {
	n.muEdgeAdj.RLock()
	defer n.muEdgeAdj.RUnlock()
	key := n.edgeKey(u, v)
	e, ok := n.edges[key]
	if !ok {
		return nil
	}
	out := make([]*Edge, 0, 1+len(n.parallel[key]))
	out = append(out, e)
	out = append(out, n.parallel[key]...)

	return out
}

// HasEdge reports whether u and v are connected.
func (n *Network) HasEdge(u, v int) bool {
	_, ok := n.Edge(u, v)

	return ok
}

// RemoveEdge deletes the edge between u and v. When the pair carries
// parallel edges the first one added is removed and the next takes its
// place; adjacency only clears once the last parallel edge is gone.
// Returns ErrEdgeNotFound when no such edge exists.
// Complexity: O(1)
func (n *Network) RemoveEdge(u, v int) error {
	n.muEdgeAdj.Lock()
	defer n.muEdgeAdj.Unlock()

	key := n.edgeKey(u, v)
	if _, ok := n.edges[key]; !ok {
		return fmt.Errorf("%w: %d-%d", ErrEdgeNotFound, u, v)
	}
	if pp := n.parallel[key]; len(pp) > 0 {
		n.edges[key] = pp[0]
		if len(pp) == 1 {
			delete(n.parallel, key)
		} else {
			n.parallel[key] = pp[1:]
		}

		return nil
	}
	delete(n.edges, key)
	delete(n.succ[key[0]], key[1])
	if n.directed {
		delete(n.pred[key[1]], key[0])
	} else {
		delete(n.succ[key[1]], key[0])
	}

	return nil
}

// EdgeCount returns the number of edges, parallel edges included.
func (n *Network) EdgeCount() int {
	n.muEdgeAdj.RLock()
	defer n.muEdgeAdj.RUnlock()
	c := len(n.edges)
	for _, pp := range n.parallel {
		c += len(pp)
	}

	return c
}

// Edges returns all edges, parallel edges included, sorted by (U, V)
// with segment ids breaking ties.
// Complexity: O(E log E)
func (n *Network) Edges() []*Edge {
	n.muEdgeAdj.RLock()
	out := make([]*Edge, 0, len(n.edges))
	for key, e := range n.edges {
		out = append(out, e)
		out = append(out, n.parallel[key]...)
	}
	n.muEdgeAdj.RUnlock()
	sortEdges(out)

	return out
}

func sortEdges(es []*Edge) {
	sort.SliceStable(es, func(i, j int) bool {
		if es[i].U != es[j].U {
			return es[i].U < es[j].U
		}
		if es[i].V != es[j].V {
			return es[i].V < es[j].V
		}
		si, sj := es[i].Segment, es[j].Segment
		switch {
		case si == nil:
			return sj != nil
		case sj == nil:
			return false
		default:
			return si.Less(*sj)
		}
	})
}

// Neighbors returns the ids adjacent to id, sorted ascending. In a
// directed network these are the successors; use Predecessors for the
// reverse direction.
// Complexity: O(d log d)
func (n *Network) Neighbors(id int) []int {
	n.muEdgeAdj.RLock()
	out := make([]int, 0, len(n.succ[id]))
	for v := range n.succ[id] {
		out = append(out, v)
	}
	n.muEdgeAdj.RUnlock()
	sort.Ints(out)

	return out
}

// Predecessors returns the ids with an edge into id, sorted ascending.
// Only meaningful for directed networks.
func (n *Network) Predecessors(id int) []int {
	n.muEdgeAdj.RLock()
	out := make([]int, 0, len(n.pred[id]))
	for u := range n.pred[id] {
		out = append(out, u)
	}
	n.muEdgeAdj.RUnlock()
	sort.Ints(out)

	return out
}

// Degree returns the number of edges incident to id. Directed networks
// count both directions.
func (n *Network) Degree(id int) int {
	n.muEdgeAdj.RLock()
	defer n.muEdgeAdj.RUnlock()
	d := len(n.succ[id])
	if n.directed {
		d += len(n.pred[id])
	}

	return d
}

// Clone returns a deep copy of the network: nodes, edges and geometry
// are all duplicated, so mutating the clone never touches the original.
// Complexity: O(V + E)
func (n *Network) Clone() *Network {
	out := NewNetwork(WithDirected(n.directed))
	out.multi = n.multi

	n.muNode.RLock()
	for _, nd := range n.nodes {
		cp := *nd
		if nd.Segment != nil {
			seg := *nd.Segment
			cp.Segment = &seg
		}
		out.nodes[cp.ID] = &cp
		if cp.ID >= out.nextID {
			out.nextID = cp.ID + 1
		}
	}
	n.muNode.RUnlock()

	n.muEdgeAdj.RLock()
	copyEdge := func(e *Edge) *Edge {
		cp := *e
		if e.Segment != nil {
			seg := *e.Segment
			cp.Segment = &seg
		}
		cp.Geo = e.Geo.Clone()

		return &cp
	}
	for key, e := range n.edges {
		out.edges[key] = copyEdge(e)
		for _, pe := range n.parallel[key] {
			out.parallel[key] = append(out.parallel[key], copyEdge(pe))
		}
		out.link(key[0], key[1])
	}
	n.muEdgeAdj.RUnlock()

	return out
}

// String returns a one-line summary with node and edge class counts.
func (n *Network) String() string {
	var weft, warp, contour int
	for _, e := range n.Edges() {
		switch {
		case e.Weft:
			weft++
		case e.Warp:
			warp++
		default:
			contour++
		}
	}
	kind := "Network"
	if n.directed {
		kind = "DiNetwork"
	}

	return fmt.Sprintf("%s(%d nodes, %d contour, %d weft, %d warp)",
		kind, n.NodeCount(), contour, weft, warp)
}
