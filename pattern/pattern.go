package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knitgraph/knitgraph/core"
)

// Empty marks a pattern matrix cell without a stitch.
const Empty = -1

// filler pads rows internally before the column alignment settles; it
// never appears in the returned matrix.
const filler = -2

// Matrix is a rectangular 2d knitting pattern: rows of dual node ids in
// knitting order, with Empty marking cells without a stitch.
type Matrix [][]int

// Rows returns the number of rows.
func (m Matrix) Rows() int { return len(m) }

// Cols returns the number of columns, 0 for an empty matrix.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}

	return len(m[0])
}

// At returns the cell at row i, column j. Out-of-range cells are Empty.
func (m Matrix) At(i, j int) int {
	if i < 0 || i >= len(m) || j < 0 || j >= len(m[i]) {
		return Empty
	}

	return m[i][j]
}

// Clone returns a deep copy of the matrix.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = append([]int(nil), row...)
	}

	return out
}

// String renders the matrix with one row per line, empty cells as dots.
func (m Matrix) String() string {
	var sb strings.Builder
	for _, row := range m {
		for j, v := range row {
			if j > 0 {
				sb.WriteByte(' ')
			}
			if v == Empty {
				sb.WriteByte('.')
			} else {
				sb.WriteString(strconv.Itoa(v))
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

// rowID identifies a row or column by its first and last node.
type rowID [2]int

// sequence is an ordered collection of node runs keyed by rowID.
type sequence struct {
	ids    []rowID
	byID   map[rowID][]int
	nodeID map[int]rowID
}

func newSequence() *sequence {
	return &sequence{byID: make(map[rowID][]int), nodeID: make(map[int]rowID)}
}

func (s *sequence) add(nodes []int) {
	id := rowID{nodes[0], nodes[len(nodes)-1]}
	s.ids = append(s.ids, id)
	s.byID[id] = nodes
	// a node shared by several runs belongs to the run added last
	for _, n := range nodes {
		s.nodeID[n] = id
	}
}

// MakePatternData topologically sorts a dual network into a rectangular
// knitting pattern matrix. Rows follow the weft edges starting at end
// nodes, columns follow the warp edges starting at increases, leaves
// and ends. Rows and columns are each ordered by a topological sort of
// their dependency graphs; the rows are then spread so that every
// column occupies a single matrix column, with Empty filling the gaps.
//
// Returns ErrNotDirected for undirected networks and a wrapped
// ErrTopology for branching rows or columns, for rows that end outside
// an end node and for cyclic row or column dependencies.
func MakePatternData(dual *core.Network, opts ...Option) (Matrix, error) {
	o := applyOptions(opts)
	if !dual.Directed() {
		return nil, ErrNotDirected
	}

	rows, err := buildRows(dual)
	if err != nil {
		return nil, err
	}
	cols, err := buildColumns(dual)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("pattern runs collected", "rows", len(rows.ids), "cols", len(cols.ids))

	// 1. Order rows and columns topologically: a warp successor puts
	// its row after this one, a weft successor its column.
	rowOrder, err := topoSort(rows, dependencyGraph(rows, func(node int) []*core.Edge {
		return dual.NodeWarpEdgesOut(node)
	}))
	if err != nil {
		return nil, err
	}
	colOrder, err := topoSort(cols, dependencyGraph(cols, func(node int) []*core.Edge {
		return dual.NodeWeftEdgesOut(node)
	}))
	if err != nil {
		return nil, err
	}

	// 2. Pad all rows to a common width.
	width := 0
	for _, id := range rows.ids {
		if l := len(rows.byID[id]); l > width {
			width = l
		}
	}
	sorted := make([][]int, len(rowOrder))
	for i, id := range rowOrder {
		row := append([]int(nil), rows.byID[id]...)
		for len(row) < width {
			row = append(row, filler)
		}
		sorted[i] = row
	}

	// 3. Spread the rows: walking the ordered columns left to right,
	// every row whose current cell is not part of the column shifts
	// right by one placeholder.
	for i, cid := range colOrder {
		members := make(map[int]bool, len(cols.byID[cid]))
		for _, n := range cols.byID[cid] {
			members[n] = true
		}
		for j, row := range sorted {
			if members[row[i]] {
				sorted[j] = append(row, filler)
			} else {
				row = append(row, 0)
				copy(row[i+1:], row[i:])
				row[i] = Empty
				sorted[j] = row
			}
		}
	}

	if len(sorted) == 0 {
		return Matrix{}, nil
	}

	// 4. Trim at the first filler cell of the top row and replace the
	// remaining internal padding.
	trim := len(sorted[0])
	for i, v := range sorted[0] {
		if v == filler {
			trim = i
			break
		}
	}
	out := make(Matrix, len(sorted))
	for i, row := range sorted {
		if len(row) > trim {
			row = row[:trim]
		}
		for j, v := range row {
			if v == filler {
				row[j] = Empty
			}
		}
		out[i] = row
	}

	if o.consolidate {
		out = consolidate(out)
	}

	o.logger.Info("pattern data created", "rows", out.Rows(), "cols", out.Cols())

	return out, nil
}

// buildRows collects the weft runs of the dual: every end node with an
// outgoing weft edge starts a row which is followed until the closing
// end node. A row ending in a node with a single wrong-way incoming
// weft edge flips that edge and continues.
func buildRows(dual *core.Network) (*sequence, error) {
	rows := newSequence()
	seen := make(map[int]bool)

	for _, nd := range dual.EndNodes() {
		if seen[nd.ID] {
			continue
		}
		weftOut := dual.NodeWeftEdgesOut(nd.ID)
		weftIn := dual.NodeWeftEdgesIn(nd.ID)

		// row ends are discovered by the rows that reach them
		if len(weftIn) > 0 && len(weftOut) == 0 {
			continue
		}
		if len(weftOut) > 1 {
			return nil, fmt.Errorf("%w: more than one outgoing weft edge at row start %d",
				ErrTopology, nd.ID)
		}
		if len(weftOut) == 0 && len(weftIn) == 0 {
			rows.add([]int{nd.ID})
			seen[nd.ID] = true
			continue
		}

		nodes := []int{nd.ID, weftOut[0].V}
		for {
			last := nodes[len(nodes)-1]
			next := dual.NodeWeftEdgesOut(last)
			if len(next) > 1 {
				return nil, fmt.Errorf("%w: more than one outgoing weft edge at row node %d",
					ErrTopology, last)
			}
			if len(next) == 0 {
				lastNode, ok := dual.Node(last)
				if ok && lastNode.End {
					seen[last] = true
					break
				}
				// a single reversed incoming weft edge is flipped and
				// the walk continues through it
				flipped, err := flipStrayWeftEdge(dual, nodes)
				if err != nil {
					return nil, err
				}
				nodes = append(nodes, flipped)
				continue
			}
			nodes = append(nodes, next[0].V)
		}
		rows.add(nodes)
		seen[nd.ID] = true
	}

	return rows, nil
}

// flipStrayWeftEdge reverses the single incoming weft edge at the end
// of an unfinished row, repairing imperfect dual graphs, and returns
// the node the row continues to.
func flipStrayWeftEdge(dual *core.Network, nodes []int) (int, error) {
	last := nodes[len(nodes)-1]
	prev := nodes[len(nodes)-2]

	var stray []*core.Edge
	for _, e := range dual.NodeWeftEdgesIn(last) {
		if e.U != prev {
			stray = append(stray, e)
		}
	}
	if len(stray) != 1 {
		return 0, fmt.Errorf("%w: unexpected end of row at node %d", ErrTopology, last)
	}

	e := stray[0]
	from := e.U
	geo := e.Geo.Reverse()
	var segOpt []core.EdgeOption
	if e.Segment != nil {
		segOpt = append(segOpt, core.WithSegment(*e.Segment))
	}
	if err := dual.RemoveEdge(e.U, e.V); err != nil {
		return 0, err
	}
	opts := append([]core.EdgeOption{core.AsWeft(), core.WithGeometry(geo)}, segOpt...)
	if _, err := dual.AddEdge(last, from, opts...); err != nil {
		return 0, err
	}

	return from, nil
}

// buildColumns collects the warp runs of the dual: every increase, leaf
// or end node without incoming warp edges starts a column which is
// followed along outgoing warp edges.
func buildColumns(dual *core.Network) (*sequence, error) {
	cols := newSequence()
	seen := make(map[int]bool)

	for _, nd := range dual.Nodes() {
		if !(nd.Increase || nd.Leaf || nd.End) || seen[nd.ID] {
			continue
		}
		if len(dual.NodeWarpEdgesIn(nd.ID)) > 0 {
			continue
		}
		warpOut := dual.NodeWarpEdgesOut(nd.ID)
		if len(warpOut) > 1 {
			return nil, fmt.Errorf("%w: more than one outgoing warp edge at column start %d",
				ErrTopology, nd.ID)
		}
		if len(warpOut) == 0 {
			cols.add([]int{nd.ID})
			seen[nd.ID] = true
			continue
		}

		nodes := []int{nd.ID, warpOut[0].V}
		for {
			next := dual.NodeWarpEdgesOut(nodes[len(nodes)-1])
			if len(next) > 1 {
				return nil, fmt.Errorf("%w: more than one outgoing warp edge at column node %d",
					ErrTopology, nodes[len(nodes)-1])
			}
			if len(next) == 0 {
				seen[nodes[len(nodes)-1]] = true
				break
			}
			nodes = append(nodes, next[0].V)
		}
		cols.add(nodes)
		seen[nd.ID] = true
	}

	return cols, nil
}

// dependencyGraph links every run to the runs that its nodes' crossing
// successors belong to.
func dependencyGraph(s *sequence, successors func(int) []*core.Edge) map[rowID][]rowID {
	adj := make(map[rowID][]rowID, len(s.ids))
	for _, id := range s.ids {
		var targets []rowID
		for _, node := range s.byID[id] {
			out := successors(node)
			if len(out) == 0 {
				continue
			}
			tid, ok := s.nodeID[out[0].V]
			if !ok {
				continue
			}
			dup := false
			for _, seenID := range targets {
				if seenID == tid {
					dup = true
					break
				}
			}
			if !dup {
				targets = append(targets, tid)
			}
		}
		adj[id] = targets
	}

	return adj
}

// node visitation states for the topological sort.
const (
	white = iota
	gray
	black
)

// topoSort orders the runs so that every run precedes the runs it
// points to, via a depth-first walk with white/gray/black states.
// Returns a wrapped ErrTopology when the dependencies contain a cycle.
func topoSort(s *sequence, adj map[rowID][]rowID) ([]rowID, error) {
	state := make(map[rowID]int, len(s.ids))
	order := make([]rowID, 0, len(s.ids))

	var visit func(id rowID) error
	visit = func(id rowID) error {
		switch state[id] {
		case gray:
			return fmt.Errorf("%w: cyclic dependency at run (%d,%d)",
				ErrTopology, id[0], id[1])
		case black:
			return nil
		}
		state[id] = gray
		for _, tid := range adj[id] {
			if err := visit(tid); err != nil {
				return err
			}
		}
		state[id] = black
		order = append(order, id)

		return nil
	}

	for _, id := range s.ids {
		if state[id] == white {
			if err := visit(id); err != nil {
				return nil, err
			}
		}
	}

	// reverse the post-order
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	return order, nil
}

// consolidate drops matrix columns consisting solely of empty cells.
func consolidate(m Matrix) Matrix {
	if len(m) == 0 {
		return m
	}
	keep := make([]bool, m.Cols())
	for j := range keep {
		for i := range m {
			if m.At(i, j) != Empty {
				keep[j] = true
				break
			}
		}
	}
	out := make(Matrix, len(m))
	for i, row := range m {
		var compact []int
		for j, v := range row {
			if j < len(keep) && keep[j] {
				compact = append(compact, v)
			}
		}
		out[i] = compact
	}

	return out
}
