package knit

import (
	"github.com/knitgraph/knitgraph/core"
)

// ChainValue identifies a chain of segments: the start end node of its
// first segment, the terminating end node of its last segment, and an
// index distinguishing parallel chains between the same pair.
type ChainValue struct {
	Start int
	End   int
	Index int
}

// Less orders chain values lexicographically.
func (c ChainValue) Less(o ChainValue) bool {
	if c.Start != o.Start {
		return c.Start < o.Start
	}
	if c.End != o.End {
		return c.End < o.End
	}

	return c.Index < o.Index
}

// SegmentChain is an ordered run of segment ids with its chain value.
type SegmentChain struct {
	Segments []core.SegmentID
	Value    ChainValue
}

// TraverseSegmentsUntilWarp follows segment contour edges of the
// mapping network from the last segment in way until a warp edge to
// the previous (down) or next (up) end node is found, or a single warp
// edge at a leaf terminates the chain. With byEnd the traversal runs
// against the segment direction and the result is reversed. Segments
// always continue through the lowest-id connected segment.
func TraverseSegmentsUntilWarp(mapping *core.Network, way []core.SegmentID, down, byEnd bool) []core.SegmentID {
	if len(way) == 0 {
		return nil
	}
	segments := way

	// Cap iterations to the edge count to survive malformed topology.
	for steps := 0; steps <= mapping.EdgeCount(); steps++ {
		current := segments[len(segments)-1]

		// 1. Pick the probe node: segment start when traversing by end,
		// segment end otherwise.
		probe := current.End
		if byEnd {
			probe = current.Start
		}

		// 2. A warp edge towards the adjacent end node stops the chain,
		// as does a single warp edge on a leaf node.
		warpEdges := mapping.NodeWarpEdges(probe)
		want := probe + 1
		if down {
			want = probe - 1
		}
		stopped := false
		for _, we := range warpEdges {
			if we.Other(probe) == want {
				stopped = true
				break
			}
		}
		if !stopped && len(warpEdges) == 1 {
			if nd, ok := mapping.Node(probe); ok && nd.Leaf {
				stopped = true
			}
		}
		if stopped {
			break
		}

		// 3. Continue through the lowest connected segment.
		var connected []*core.Edge
		if byEnd {
			connected = mapping.EndNodeSegmentsByEnd(current.Start)
		} else {
			connected = mapping.EndNodeSegmentsByStart(current.End)
		}
		if len(connected) == 0 {
			break
		}
		segments = append(segments, *connected[0].Segment)
	}

	if byEnd {
		for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
			segments[i], segments[j] = segments[j], segments[i]
		}
	}

	return segments
}

// BuildChains builds the source and target chains of the mapping
// network from its warp edges: at both ends of every warp edge the
// connected segments are traversed upwards into source chains and
// downwards into target chains, with leaf end nodes contributing to
// both sides. Chains are deduplicated by their chain value; sources
// keep discovery order, targets are returned as a lookup map.
func BuildChains(mapping *core.Network) ([]SegmentChain, map[ChainValue][]core.SegmentID) {
	warpEdges := mapping.WarpEdges()

	var sourceChains []SegmentChain
	sourceSeen := make(map[ChainValue]bool)
	targetChains := make(map[ChainValue][]core.SegmentID)

	for _, warpEdge := range warpEdges {
		var sourcePass, targetPass []SegmentChain

		appendChain := func(pass []SegmentChain, segs []core.SegmentID) []SegmentChain {
			index := 0
			for _, c := range pass {
				if c.Segments[0].Start == segs[0].Start &&
					c.Segments[len(c.Segments)-1].End == segs[len(segs)-1].End {
					index++
				}
			}
			value := ChainValue{
				Start: segs[0].Start,
				End:   segs[len(segs)-1].End,
				Index: index,
			}

			return append(pass, SegmentChain{Segments: segs, Value: value})
		}

		// 1. Chains growing from the start node of the warp edge.
		startNode, okS := mapping.Node(warpEdge.U)
		for _, cs := range mapping.EndNodeSegmentsByStart(warpEdge.U) {
			up := TraverseSegmentsUntilWarp(mapping,
				[]core.SegmentID{*cs.Segment}, false, false)
			sourcePass = appendChain(sourcePass, up)

			if okS && startNode.Leaf {
				down := TraverseSegmentsUntilWarp(mapping,
					[]core.SegmentID{*cs.Segment}, true, false)
				targetPass = appendChain(targetPass, down)
			}
		}

		// 2. Chains growing from the end node of the warp edge.
		endNode, okE := mapping.Node(warpEdge.V)
		for _, cs := range mapping.EndNodeSegmentsByStart(warpEdge.V) {
			if okE && endNode.Leaf {
				up := TraverseSegmentsUntilWarp(mapping,
					[]core.SegmentID{*cs.Segment}, false, false)
				sourcePass = appendChain(sourcePass, up)
			}

			down := TraverseSegmentsUntilWarp(mapping,
				[]core.SegmentID{*cs.Segment}, true, false)
			targetPass = appendChain(targetPass, down)
		}

		// 3. Merge the pass results into the global collections.
		for _, chain := range sourcePass {
			if !sourceSeen[chain.Value] {
				sourceSeen[chain.Value] = true
				sourceChains = append(sourceChains, chain)
			}
		}
		for _, chain := range targetPass {
			if _, ok := targetChains[chain.Value]; !ok {
				targetChains[chain.Value] = chain.Segments
			}
		}
	}

	return sourceChains, targetChains
}
