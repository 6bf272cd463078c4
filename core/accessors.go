package core

import "sort"

// This file groups the knitting-specific views over a Network: nodes by
// contour position, leaf and end nodes, per-class incident edges, and
// segment lookups. All results come back in deterministic order.

// Positions returns the distinct contour positions present, ascending.
// Complexity: O(V log V)
func (n *Network) Positions() []int {
	seen := make(map[int]struct{})
	n.muNode.RLock()
	for _, nd := range n.nodes {
		seen[nd.Position] = struct{}{}
	}
	n.muNode.RUnlock()
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)

	return out
}

// NodesOnPosition returns the nodes of one contour position sorted by
// their index along the contour.
// Complexity: O(V)
func (n *Network) NodesOnPosition(pos int) []*Node {
	var out []*Node
	n.muNode.RLock()
	for _, nd := range n.nodes {
		if nd.Position == pos {
			out = append(out, nd)
		}
	}
	n.muNode.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Num < out[j].Num })

	return out
}

// AllNodesByPosition returns every contour's nodes, one slice per
// position, positions ascending and nodes sorted by Num.
func (n *Network) AllNodesByPosition() [][]*Node {
	positions := n.Positions()
	out := make([][]*Node, 0, len(positions))
	for _, p := range positions {
		out = append(out, n.NodesOnPosition(p))
	}

	return out
}

// LeafNodes returns all leaf nodes sorted by id.
func (n *Network) LeafNodes() []*Node {
	return n.selectNodes(func(nd *Node) bool { return nd.Leaf })
}

// LeafNodesOnPosition returns the leaf nodes of one contour position
// sorted by Num. A well-formed contour has exactly two.
func (n *Network) LeafNodesOnPosition(pos int) []*Node {
	all := n.NodesOnPosition(pos)
	out := all[:0:0]
	for _, nd := range all {
		if nd.Leaf {
			out = append(out, nd)
		}
	}

	return out
}

// EndNodes returns all end nodes sorted by id.
func (n *Network) EndNodes() []*Node {
	return n.selectNodes(func(nd *Node) bool { return nd.End })
}

// EndNodesByPosition returns the end nodes grouped by contour position,
// positions ascending and nodes sorted by Num.
func (n *Network) EndNodesByPosition() [][]*Node {
	var out [][]*Node
	for _, nodes := range n.AllNodesByPosition() {
		var ends []*Node
		for _, nd := range nodes {
			if nd.End {
				ends = append(ends, nd)
			}
		}
		if len(ends) > 0 {
			out = append(out, ends)
		}
	}

	return out
}

func (n *Network) selectNodes(keep func(*Node) bool) []*Node {
	var out []*Node
	n.muNode.RLock()
	for _, nd := range n.nodes {
		if keep(nd) {
			out = append(out, nd)
		}
	}
	n.muNode.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// NodesOnSegment returns the interior nodes carrying the given segment
// id, sorted by Num.
func (n *Network) NodesOnSegment(seg SegmentID) []*Node {
	out := n.selectNodes(func(nd *Node) bool {
		return nd.Segment != nil && *nd.Segment == seg
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Num < out[j].Num })

	return out
}

// edgesAt returns the stored edges at key, parallel edges included.
// Callers must hold muEdgeAdj.
func (n *Network) edgesAt(out []*Edge, key [2]int) []*Edge {
	out = append(out, n.edges[key])
	out = append(out, n.parallel[key]...)

	return out
}

// NodeEdges returns every edge incident to id, parallel edges
// included, sorted by (U, V). Directed networks include both incoming
// and outgoing edges.
// Complexity: O(d log d)
func (n *Network) NodeEdges(id int) []*Edge {
	n.muEdgeAdj.RLock()
	out := make([]*Edge, 0, len(n.succ[id]))
	for v := range n.succ[id] {
		out = n.edgesAt(out, n.edgeKey(id, v))
	}
	if n.directed {
		for u := range n.pred[id] {
			out = n.edgesAt(out, n.edgeKey(u, id))
		}
	}
	n.muEdgeAdj.RUnlock()
	sortEdges(out)

	return out
}

// NodeWeftEdges returns the weft edges incident to id.
func (n *Network) NodeWeftEdges(id int) []*Edge {
	return filterEdges(n.NodeEdges(id), func(e *Edge) bool { return e.Weft })
}

// NodeWarpEdges returns the warp edges incident to id.
func (n *Network) NodeWarpEdges(id int) []*Edge {
	return filterEdges(n.NodeEdges(id), func(e *Edge) bool { return e.Warp })
}

// NodeContourEdges returns the contour edges incident to id.
func (n *Network) NodeContourEdges(id int) []*Edge {
	return filterEdges(n.NodeEdges(id), (*Edge).IsContour)
}

// OutEdges returns the edges leaving id in a directed network,
// sorted by (U, V).
func (n *Network) OutEdges(id int) []*Edge {
	n.muEdgeAdj.RLock()
	out := make([]*Edge, 0, len(n.succ[id]))
	for v := range n.succ[id] {
		out = n.edgesAt(out, n.edgeKey(id, v))
	}
	n.muEdgeAdj.RUnlock()
	sortEdges(out)

	return out
}

// InEdges returns the edges entering id in a directed network,
// sorted by (U, V).
func (n *Network) InEdges(id int) []*Edge {
	n.muEdgeAdj.RLock()
	out := make([]*Edge, 0, len(n.pred[id]))
	for u := range n.pred[id] {
		out = n.edgesAt(out, n.edgeKey(u, id))
	}
	n.muEdgeAdj.RUnlock()
	sortEdges(out)

	return out
}

// NodeWeftEdgesOut returns the weft edges leaving id.
func (n *Network) NodeWeftEdgesOut(id int) []*Edge {
	return filterEdges(n.OutEdges(id), func(e *Edge) bool { return e.Weft })
}

// NodeWeftEdgesIn returns the weft edges entering id.
func (n *Network) NodeWeftEdgesIn(id int) []*Edge {
	return filterEdges(n.InEdges(id), func(e *Edge) bool { return e.Weft })
}

// NodeWarpEdgesOut returns the warp edges leaving id.
func (n *Network) NodeWarpEdgesOut(id int) []*Edge {
	return filterEdges(n.OutEdges(id), func(e *Edge) bool { return e.Warp })
}

// NodeWarpEdgesIn returns the warp edges entering id.
func (n *Network) NodeWarpEdgesIn(id int) []*Edge {
	return filterEdges(n.InEdges(id), func(e *Edge) bool { return e.Warp })
}

func filterEdges(es []*Edge, keep func(*Edge) bool) []*Edge {
	out := es[:0:0]
	for _, e := range es {
		if keep(e) {
			out = append(out, e)
		}
	}

	return out
}

// WeftEdges returns all weft edges sorted by (U, V).
func (n *Network) WeftEdges() []*Edge {
	return filterEdges(n.Edges(), func(e *Edge) bool { return e.Weft })
}

// WarpEdges returns all warp edges sorted by (U, V).
func (n *Network) WarpEdges() []*Edge {
	return filterEdges(n.Edges(), func(e *Edge) bool { return e.Warp })
}

// ContourEdges returns all contour edges sorted by (U, V).
func (n *Network) ContourEdges() []*Edge {
	return filterEdges(n.Edges(), (*Edge).IsContour)
}

// SegmentContourEdges returns the contour edges carrying a segment id,
// sorted by segment id. These are the backbone of a mapping network.
func (n *Network) SegmentContourEdges() []*Edge {
	out := filterEdges(n.Edges(), func(e *Edge) bool {
		return e.IsContour() && e.Segment != nil
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Segment.Less(*out[j].Segment)
	})

	return out
}

// EndNodeSegmentsByStart returns the segment contour edges whose
// segment starts at id, sorted by segment id.
func (n *Network) EndNodeSegmentsByStart(id int) []*Edge {
	out := filterEdges(n.NodeEdges(id), func(e *Edge) bool {
		return e.IsContour() && e.Segment != nil && e.Segment.Start == id
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Segment.Less(*out[j].Segment)
	})

	return out
}

// EndNodeSegmentsByEnd returns the segment contour edges whose segment
// terminates at id, sorted by segment id.
func (n *Network) EndNodeSegmentsByEnd(id int) []*Edge {
	out := filterEdges(n.NodeEdges(id), func(e *Edge) bool {
		return e.IsContour() && e.Segment != nil && e.Segment.End == id
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Segment.Less(*out[j].Segment)
	})

	return out
}
