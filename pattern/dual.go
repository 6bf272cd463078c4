package pattern

import (
	"fmt"
	"sort"

	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
)

// geometryDirection returns the endpoints of an edge ordered by its
// creation geometry: the node the geometry starts at comes first.
func geometryDirection(pos map[int]geom.Point, e *core.Edge) (int, int) {
	if len(e.Geo) > 0 && e.Geo.Start() == pos[e.U] {
		return e.U, e.V
	}

	return e.V, e.U
}

// CreateDual creates the dual of a knitting network from the faces of
// its directed double cover. Every valid face (three or four nodes)
// becomes a dual node at the face centroid; for every edge separating
// two valid faces a dual edge crosses it, turning warp into weft and
// weft into warp. The dual node attributes (start, end, increase,
// decrease) are derived from the counts and directions of the incident
// dual edges.
//
// With WithMergeAdjacentCreases, increase nodes next to a single
// weft-adjacent decrease are folded into one regular node.
// WithMendTrailingRows is rejected with ErrUnsupported.
func CreateDual(n *core.Network, opts ...Option) (*core.Network, error) {
	o := applyOptions(opts)
	if o.mendTrailingRows {
		return nil, fmt.Errorf("%w: mending trailing rows", ErrUnsupported)
	}

	cycles, _, err := findCycles(n, o)
	if err != nil {
		return nil, err
	}
	pos := positionIndex(n)

	dual := core.NewNetwork(core.WithDirected(true))

	// 1. One dual node per valid cycle, keyed by the cycle key.
	keys := make([]int, 0, len(cycles))
	for k := range cycles {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	edgeToCycle := make(map[[2]int]int)
	for _, ckey := range keys {
		cycle := cycles[ckey]
		if len(cycle) > 4 || len(cycle) < 3 {
			continue
		}

		for i, id := range cycle {
			edgeToCycle[[2]int{id, cycle[(i+1)%len(cycle)]}] = ckey
		}

		pts := make([]geom.Point, 0, len(cycle))
		leaf := false
		color := core.NoColor
		colorsMatch := true
		for i, id := range cycle {
			nd, ok := n.Node(id)
			if !ok {
				return nil, fmt.Errorf("%w: cycle node %d missing", ErrTopology, id)
			}
			pts = append(pts, nd.Pos)
			leaf = leaf || nd.Leaf
			if i == 0 {
				color = nd.Color
			} else if nd.Color != color {
				colorsMatch = false
			}
		}
		if !colorsMatch {
			color = core.NoColor
		}

		err := dual.AddNode(&core.Node{
			ID:       ckey,
			Pos:      geom.Centroid(pts),
			Position: -1,
			Num:      -1,
			Leaf:     leaf,
			Color:    color,
		})
		if err != nil {
			return nil, err
		}
	}

	// 2. Dual edges cross the original edges between two valid cycles.
	for _, e := range n.Edges() {
		a, b := geometryDirection(pos, e)
		cycleA, okA := edgeToCycle[[2]int{a, b}]
		cycleB, okB := edgeToCycle[[2]int{b, a}]
		if !okA || !okB {
			continue
		}
		switch {
		case e.Warp:
			createDualEdge(dual, cycleB, cycleA, true)
		case e.Weft:
			createDualEdge(dual, cycleA, cycleB, false)
		}
	}

	// 3. Classify the dual nodes from their edge constellation.
	for _, nd := range dual.Nodes() {
		classifyDualNode(dual, nd)
	}

	if o.mergeAdjacentCreases {
		mergeAdjacentCreases(dual)
	}

	o.logger.Info("dual network created",
		"nodes", dual.NodeCount(), "edges", dual.EdgeCount())

	return dual, nil
}

// createDualEdge adds one weft or warp edge between two dual nodes,
// ignoring duplicates.
func createDualEdge(dual *core.Network, from, to int, weft bool) {
	a, okA := dual.Node(from)
	b, okB := dual.Node(to)
	if !okA || !okB {
		return
	}
	opt := core.AsWarp()
	if weft {
		opt = core.AsWeft()
	}
	_, _ = dual.AddEdge(from, to, opt, core.WithGeometry(geom.Line(a.Pos, b.Pos)))
}

// classifyDualNode derives the start, end, increase and decrease
// attributes of one dual node from its incident edges.
func classifyDualNode(dual *core.Network, nd *core.Node) {
	warpIn := len(dual.NodeWarpEdgesIn(nd.ID))
	warpOut := len(dual.NodeWarpEdgesOut(nd.ID))
	weftIn := len(dual.NodeWeftEdgesIn(nd.ID))
	weftOut := len(dual.NodeWeftEdgesOut(nd.ID))

	warpLen := warpIn + warpOut
	weftLen := weftIn + weftOut

	switch {
	case warpLen == 2 && weftLen == 1:
		nd.End = true
		nd.Start = weftOut > 0
	case warpLen == 1 && weftLen == 1:
		nd.End = true
		nd.Start = weftOut > 0
		if warpOut > 0 && !nd.Leaf {
			nd.Increase = true
		} else if warpIn > 0 && !nd.Leaf {
			nd.Decrease = true
		}
	case warpLen == 2 && weftLen == 0:
		nd.End = true
		nd.Start = true
	case warpLen == 1 && weftLen == 0:
		nd.End = true
		nd.Start = true
	case warpLen == 0 && weftLen == 1:
		nd.End = true
		nd.Start = weftOut > 0
	case warpLen == 1 && weftLen == 2:
		if warpOut > 0 && !nd.Leaf {
			nd.Increase = true
		} else if warpIn > 0 && !nd.Leaf {
			nd.Decrease = true
		}
	}
}

// mergeAdjacentCreases folds every increase node with exactly one
// weft-adjacent decrease neighbor into a single regular node at the
// midpoint between the two, rewiring the decrease's edges onto the
// merged node.
func mergeAdjacentCreases(dual *core.Network) {
	for _, inc := range dual.Nodes() {
		if !inc.Increase || !dual.HasNode(inc.ID) {
			continue
		}

		var preds, sucs []int
		for _, p := range dual.Predecessors(inc.ID) {
			if nd, ok := dual.Node(p); ok && nd.Decrease {
				preds = append(preds, p)
			}
		}
		for _, s := range dual.Neighbors(inc.ID) {
			if nd, ok := dual.Node(s); ok && nd.Decrease {
				sucs = append(sucs, s)
			}
		}

		switch {
		case len(preds) == 1 && isWeft(dual, preds[0], inc.ID):
			mergeCreasePair(dual, preds[0], inc)
		case len(preds) == 0 && len(sucs) == 1 && isWeft(dual, inc.ID, sucs[0]):
			mergeCreasePair(dual, sucs[0], inc)
		}
	}
}

func isWeft(dual *core.Network, u, v int) bool {
	e, ok := dual.Edge(u, v)

	return ok && e.Weft
}

// mergeCreasePair removes the decrease node, moves the increase to the
// midpoint between the pair and rewires all edges of the decrease onto
// the merged node.
func mergeCreasePair(dual *core.Network, decrease int, inc *core.Node) {
	dec, ok := dual.Node(decrease)
	if !ok {
		return
	}

	// 1. Drop the connecting weft edge, whichever direction it runs.
	_ = dual.RemoveEdge(decrease, inc.ID)
	_ = dual.RemoveEdge(inc.ID, decrease)

	// 2. The merged node sits at the midpoint and is a regular stitch.
	inc.Pos = inc.Pos.Mid(dec.Pos)
	inc.Increase = false

	// 3. Rewire the decrease's remaining edges onto the merged node.
	for _, e := range dual.InEdges(decrease) {
		if e.U != inc.ID {
			rewireDualEdge(dual, e, e.U, inc.ID)
		}
		_ = dual.RemoveEdge(e.U, e.V)
	}
	for _, e := range dual.OutEdges(decrease) {
		if e.V != inc.ID {
			rewireDualEdge(dual, e, inc.ID, e.V)
		}
		_ = dual.RemoveEdge(e.U, e.V)
	}
	_ = dual.RemoveNode(decrease)

	// 4. Refresh the geometry of the merged node's edges.
	for _, e := range dual.OutEdges(inc.ID) {
		if other, ok := dual.Node(e.V); ok {
			e.Geo = geom.Line(inc.Pos, other.Pos)
		}
	}
	for _, e := range dual.InEdges(inc.ID) {
		if other, ok := dual.Node(e.U); ok {
			e.Geo = geom.Line(other.Pos, inc.Pos)
		}
	}
}

func rewireDualEdge(dual *core.Network, e *core.Edge, from, to int) {
	createDualEdge(dual, from, to, e.Weft)
}

// VerifyDualForm reports whether a dual network has the shape required
// for pattern generation: every node connected, at most two
// predecessors, at most two successors and at most four incident edges
// in total.
func VerifyDualForm(dual *core.Network) bool {
	for _, nd := range dual.Nodes() {
		preds := len(dual.Predecessors(nd.ID))
		sucs := len(dual.Neighbors(nd.ID))
		if preds > 2 || sucs > 2 {
			return false
		}
		total := preds + sucs
		if total == 0 || total > 4 {
			return false
		}
	}

	return true
}
