package pattern

import (
	"fmt"
	"math"
	"sort"

	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
)

// positionIndex maps node ids to their locations for plane predicates.
func positionIndex(n *core.Network) map[int]geom.Point {
	nodes := n.Nodes()
	pos := make(map[int]geom.Point, len(nodes))
	for _, nd := range nodes {
		pos[nd.ID] = nd.Pos
	}

	return pos
}

// nodeFrame builds the local sorting plane for the active plane mode.
// Without per-node normals every mode falls back to the world XY plane.
func nodeFrame(o options, pos map[int]geom.Point, key int, nbrs []int) (geom.Plane, bool) {
	if o.planeMode == PlaneXY || len(o.normals) == 0 {
		return geom.Plane{}, false
	}
	n, ok := o.normals[key]
	if !ok {
		return geom.Plane{}, false
	}

	switch o.planeMode {
	case PlaneNormal:
		return geom.NewPlane(pos[key], n), true
	case PlaneAverageNormal, PlaneFitted:
		avg := n
		for _, nbr := range nbrs {
			avg = avg.Add(o.normals[nbr])
		}
		if o.planeMode == PlaneAverageNormal {
			return geom.NewPlane(pos[key], avg), true
		}
		pts := make([]geom.Point, len(nbrs))
		for i, nbr := range nbrs {
			pts[i] = pos[nbr]
		}
		fit, ok := geom.FitPlane(pts)
		if !ok {
			return geom.NewPlane(pos[key], avg), true
		}
		fn := fit.Normal
		if fn.Dot(avg) < 0 {
			fn = fn.Neg()
		}

		return geom.NewPlane(pos[key], avg.Unit().Add(fn)), true
	}

	return geom.Plane{}, false
}

// sortNodeNeighbors orders the neighbors of one node counterclockwise
// around it using an insertion sort over the is-ccw predicate. The
// sorting plane is world XY unless a local plane mode is active.
func sortNodeNeighbors(o options, pos map[int]geom.Point, key int, nbrs []int) []int {
	if len(nbrs) == 1 {
		return nbrs
	}

	a := pos[key]
	if frame, ok := nodeFrame(o, pos, key, nbrs); ok {
		local := make(map[int]geom.Point, len(nbrs))
		for _, nbr := range nbrs {
			local[nbr] = frame.Remap(pos[nbr])
		}
		a = frame.Remap(a)
		pos = local
	}
	ordered := []int{nbrs[0]}
	at := func(p int) geom.Point {
		if p < 0 {
			p += len(ordered)
		}

		return pos[ordered[p]]
	}

	for i, nbr := range nbrs[1:] {
		c := pos[nbr]
		p := 0
		b := at(p)
		for !geom.IsCCWXY(a, b, c, false) {
			p++
			if p > i {
				break
			}
			b = at(p)
		}
		if p == 0 {
			p--
			b = at(p)
			for geom.IsCCWXY(a, b, c, false) {
				p--
				if p < -len(ordered) {
					break
				}
				b = at(p)
			}
			p++
		}
		if p < 0 {
			p += len(ordered)
			if p < 0 {
				p = 0
			}
		}
		ordered = append(ordered, 0)
		copy(ordered[p+1:], ordered[p:])
		ordered[p] = nbr
	}

	return ordered
}

// sortedNeighbors computes the neighbor rotation of every node. The
// rotations are stored clockwise, which is the direction the
// wall-follower walks in.
func sortedNeighbors(n *core.Network, o options, pos map[int]geom.Point) map[int][]int {
	rotations := make(map[int][]int, n.NodeCount())
	for _, nd := range n.Nodes() {
		ordered := sortNodeNeighbors(o, pos, nd.ID, n.Neighbors(nd.ID))
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
		rotations[nd.ID] = ordered
	}

	return rotations
}

// firstNodeNeighbor picks the neighbor with the smallest angle from the
// (-1,-1) direction, measured counterclockwise, as the start of the
// outer boundary cycle.
func firstNodeNeighbor(n *core.Network, pos map[int]geom.Point, key int) int {
	nbrs := n.Neighbors(key)
	if len(nbrs) == 1 {
		return nbrs[0]
	}

	a := pos[key]
	ab := geom.Vec{X: -1, Y: -1}
	b := geom.Point{X: a.X - 1, Y: a.Y - 1}

	best, bestAngle := nbrs[0], math.Inf(1)
	for _, nbr := range nbrs {
		c := pos[nbr]
		ac := geom.Vec{X: c.X - a.X, Y: c.Y - a.Y}
		alpha := geom.AngleBetween(ab, ac)
		if geom.IsCCWXY(a, b, c, true) {
			alpha = 2*math.Pi - alpha
		}
		if alpha < bestAngle {
			best, bestAngle = nbr, alpha
		}
	}

	return best
}

// findEdgeCycle walks the face to the left of u→v: at every node the
// walk turns to the neighbor preceding the one it came from in the
// clockwise rotation.
func findEdgeCycle(rotations map[int][]int, u, v, maxSteps int) ([]int, error) {
	cycle := []int{u}
	for steps := 0; ; steps++ {
		if steps > maxSteps {
			return nil, fmt.Errorf("%w: face walk from %d-%d does not close",
				ErrTopology, cycle[0], cycle[1])
		}
		cycle = append(cycle, v)
		nbrs := rotations[v]
		i := -1
		for j, nb := range nbrs {
			if nb == u {
				i = j
				break
			}
		}
		if i < 0 {
			return nil, fmt.Errorf("%w: node %d missing from rotation of %d",
				ErrTopology, u, v)
		}
		u, v = v, nbrs[(i-1+len(nbrs))%len(nbrs)]
		if v == cycle[0] {
			break
		}
	}

	return cycle, nil
}

func cycleKey(cycle []int) string {
	ids := append([]int(nil), cycle...)
	sort.Ints(ids)

	return fmt.Sprint(ids)
}

// findCycles discovers every face of the directed double cover and the
// halfedge map assigning each directed edge to the cycle on its left.
func findCycles(n *core.Network, o options) (map[int][]int, map[[2]int]int, error) {
	if !n.Directed() {
		return nil, nil, ErrNotDirected
	}
	if n.NodeCount() == 0 {
		return map[int][]int{}, map[[2]int]int{}, nil
	}

	pos := positionIndex(n)
	rotations := sortedNeighbors(n, o, pos)
	maxSteps := n.EdgeCount() + 1

	// the walk starts at the lowest leaf node, or the lowest node when
	// the network has no leaves
	var u int
	if leaves := n.LeafNodes(); len(leaves) > 0 {
		u = leaves[0].ID
	} else {
		u = n.Nodes()[0].ID
	}

	cycles := make(map[int][]int)
	found := make(map[string]int)
	halfedge := make(map[[2]int]int)
	ckey := 0

	record := func(cycle []int) {
		key := cycleKey(cycle)
		id, ok := found[key]
		if !ok {
			id = ckey
			found[key] = id
			cycles[id] = cycle
			ckey++
		}
		for i := range cycle {
			a, b := cycle[i], cycle[(i+1)%len(cycle)]
			halfedge[[2]int{a, b}] = id
		}
	}

	// the outer boundary comes first
	first, err := findEdgeCycle(rotations, u, firstNodeNeighbor(n, pos, u), maxSteps)
	if err != nil {
		return nil, nil, err
	}
	record(first)

	for _, e := range n.Edges() {
		for _, dir := range [][2]int{{e.U, e.V}, {e.V, e.U}} {
			if _, ok := halfedge[dir]; ok {
				continue
			}
			cycle, err := findEdgeCycle(rotations, dir[0], dir[1], maxSteps)
			if err != nil {
				return nil, nil, err
			}
			record(cycle)
		}
	}

	return cycles, halfedge, nil
}

// FindCycles finds the faces of the directed double cover of a
// knitting network with a wall-follower walk. The result maps cycle
// keys to node id sequences; the first cycle is the outer boundary.
// Neighbors are sorted in the world XY plane by default; WithPlaneMode
// plus WithNormals switch to a local reference plane per node.
// Returns ErrNotDirected for undirected networks and a wrapped
// ErrTopology when a face walk cannot close.
// Complexity: O(V·d log d + E·F)
func FindCycles(n *core.Network, opts ...Option) (map[int][]int, error) {
	cycles, _, err := findCycles(n, applyOptions(opts))

	return cycles, err
}
