package knit

import (
	"fmt"
	"sort"

	"github.com/knitgraph/knitgraph/core"
)

// interim segment markers carry -1 until the terminating end node is
// known.
const interimMark = -1

func isInterim(s *core.SegmentID) bool {
	return s != nil && s.End == interimMark
}

// AssignSegmentAttributes computes the segmentation of the network:
// every weft edge and every interior node receives a segment id of the
// form (startEnd, endEnd, dup). Contour and warp edges are temporarily
// removed so the traversal only ever follows weft edges, and restored
// afterwards.
// Returns ErrNoWeftEdges or ErrNoEndNodes when the prerequisites are
// missing, or a wrapped ErrTopology when a weft path branches.
func (kn *Network) AssignSegmentAttributes(opts ...Option) error {
	o := applyOptions(opts)

	// 1. Check prerequisites.
	if len(kn.WeftEdges()) == 0 {
		return ErrNoWeftEdges
	}
	if len(kn.EndNodes()) == 0 {
		return ErrNoEndNodes
	}

	// 2. Strip all non-weft edges, keeping them for restoration.
	var stored []*core.Edge
	for _, e := range kn.Edges() {
		if !e.Weft {
			stored = append(stored, e)
			// endpoints are known to exist, removal cannot fail
			_ = kn.RemoveEdge(e.U, e.V)
		}
	}

	// 3. Traverse weft paths from every end node, by position.
	var seen [][2]int
	for _, position := range kn.EndNodesByPosition() {
		for _, endNode := range position {
			var err error
			seen, err = kn.traverseWeftEdgesAndSetAttributes(o, endNode, seen)
			if err != nil {
				return err
			}
		}
	}

	// 4. Restore the stripped edges.
	for _, e := range stored {
		kn.restoreEdge(e)
	}

	o.logger.Info("segment attributes assigned", "segments", len(seen))

	return nil
}

// traverseWeftEdgesAndSetAttributes walks every unsegmented weft edge
// leaving one end node and assigns segment ids along the way.
func (kn *Network) traverseWeftEdgesAndSetAttributes(o options, endNode *core.Node, seen [][2]int) ([][2]int, error) {
	wefts := kn.NodeWeftEdges(endNode.ID)
	sort.Slice(wefts, func(i, j int) bool {
		return wefts[i].Other(endNode.ID) < wefts[j].Other(endNode.ID)
	})

	for _, cwe := range wefts {
		if cwe.Segment != nil {
			continue
		}
		connected, ok := kn.Node(cwe.Other(endNode.ID))
		if !ok {
			continue
		}

		if connected.End {
			// Direct end-to-end segment: only the edge gets the id.
			seg := segmentBetween(endNode.ID, connected.ID, seen)
			cwe.Segment = &seg
			seen = append(seen, [2]int{seg.Start, seg.End})
			continue
		}

		var err error
		seen, err = kn.traverseWeftEdgeUntilEnd(o, endNode.ID, connected, seen, []*core.Edge{cwe})
		if err != nil {
			return nil, err
		}
	}

	return seen, nil
}

// traverseWeftEdgeUntilEnd follows unsegmented weft edges from a start
// node until another end node terminates the segment, marking interim
// nodes and edges along the way and finalizing their segment ids on
// arrival. A branching weft path is a topology error.
func (kn *Network) traverseWeftEdgeUntilEnd(o options, startEnd int, start *core.Node, seen [][2]int, wayEdges []*core.Edge) ([][2]int, error) {
	wayNodes := []*core.Node{start}
	current := start

	// Upper bound on steps keeps a malformed network from looping.
	for steps := 0; steps <= kn.EdgeCount(); steps++ {
		// 1. Collect the unsegmented continuations.
		var filtered []*core.Edge
		for _, e := range kn.NodeWeftEdges(current.ID) {
			if e.Segment != nil {
				continue
			}
			onWay := false
			for _, we := range wayEdges {
				if we == e {
					onWay = true
					break
				}
			}
			if !onWay {
				filtered = append(filtered, e)
			}
		}

		switch {
		case len(filtered) > 1:
			return nil, fmt.Errorf("%w: weft path branches at node %d",
				ErrTopology, current.ID)
		case len(filtered) == 0:
			// dead end, nothing to finalize
			return seen, nil
		}

		e := filtered[0]
		connected, ok := kn.Node(e.Other(current.ID))
		if !ok {
			return seen, nil
		}

		// 2. Terminate at the next end node.
		if connected.End {
			seg := segmentBetween(startEnd, connected.ID, seen)
			seen = append(seen, [2]int{seg.Start, seg.End})
			wayEdges = append(wayEdges, e)
			for _, wn := range wayNodes {
				s := seg
				wn.Segment = &s
			}
			for _, we := range wayEdges {
				s := seg
				we.Segment = &s
			}
			o.logger.Debug("segment finalized",
				"start", seg.Start, "end", seg.End, "dup", seg.Dup)

			return seen, nil
		}

		// 3. Mark interim and continue.
		interim := core.SegmentID{Start: startEnd, End: interimMark, Dup: interimMark}
		ni, ei := interim, interim
		connected.Segment = &ni
		e.Segment = &ei
		wayNodes = append(wayNodes, connected)
		wayEdges = append(wayEdges, e)
		current = connected
	}

	return nil, fmt.Errorf("%w: weft path from node %d does not terminate",
		ErrTopology, startEnd)
}

// segmentBetween builds the segment id for a pair of end nodes, with
// the duplicate index counting previous segments between the same pair.
func segmentBetween(a, b int, seen [][2]int) core.SegmentID {
	start, end := a, b
	if start > end {
		start, end = end, start
	}
	dup := 0
	for _, s := range seen {
		if s[0] == start && s[1] == end {
			dup++
		}
	}

	return core.SegmentID{Start: start, End: end, Dup: dup}
}

// restoreEdge re-inserts a previously removed edge with its attributes.
func (kn *Network) restoreEdge(e *core.Edge) {
	opts := []core.EdgeOption{core.WithGeometry(e.Geo)}
	if e.Weft {
		opts = append(opts, core.AsWeft())
	}
	if e.Warp {
		opts = append(opts, core.AsWarp())
	}
	if e.Segment != nil {
		opts = append(opts, core.WithSegment(*e.Segment))
	}
	_, _ = kn.AddEdge(e.U, e.V, opts...)
}
