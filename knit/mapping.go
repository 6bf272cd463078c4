package knit

import (
	"fmt"
	"math"
	"sort"

	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
)

// CreateMappingNetwork derives the mapping network from a fully
// segmented knitting network: one segment contour edge per distinct
// segment id, carrying the joined geometry of the segment's weft
// edges, plus copies of all warp edges. Afterwards the primary network
// is reduced to its end nodes and warp edges; final weft and warp
// connections are then built from the mapping network.
// Returns ErrNoWeftEdges when no segmented weft edges exist and a
// wrapped ErrSegmentGeometry when a segment's geometry will not join.
func (kn *Network) CreateMappingNetwork(opts ...Option) error {
	o := applyOptions(opts)

	// 1. Order the weft edges by segment id.
	weftEdges := kn.WeftEdges()
	for _, e := range weftEdges {
		if e.Segment == nil || isInterim(e.Segment) {
			return fmt.Errorf("%w: weft edge %d-%d has no final segment id",
				ErrTopology, e.U, e.V)
		}
	}
	sort.SliceStable(weftEdges, func(i, j int) bool {
		return weftEdges[i].Segment.Less(*weftEdges[j].Segment)
	})

	// 2. Collect the distinct segment ids in order.
	var segmentIDs []core.SegmentID
	for _, e := range weftEdges {
		if len(segmentIDs) == 0 || segmentIDs[len(segmentIDs)-1] != *e.Segment {
			segmentIDs = append(segmentIDs, *e.Segment)
		}
	}
	if len(segmentIDs) == 0 {
		return ErrNoWeftEdges
	}

	// Parallel segments between one end node pair each need their own
	// segment contour edge, and a warp edge may share an endpoint pair
	// with one of them.
	mapping := core.NewNetwork(core.WithParallelEdges())

	// 3. Create one segment contour edge per segment id.
	for _, id := range segmentIDs {
		var pieces []geom.Polyline
		for _, e := range weftEdges {
			if *e.Segment == id {
				pieces = append(pieces, e.Geo)
			}
		}
		joined, err := geom.Join(pieces)
		if err != nil {
			return fmt.Errorf("%w: segment (%d,%d,%d): %v",
				ErrSegmentGeometry, id.Start, id.End, id.Dup, err)
		}
		if err := kn.copyNodeTo(mapping, id.Start); err != nil {
			return err
		}
		if err := kn.copyNodeTo(mapping, id.End); err != nil {
			return err
		}
		_, err = mapping.AddEdge(id.Start, id.End,
			core.WithSegment(id), core.WithGeometry(joined))
		if err != nil {
			return fmt.Errorf("%w: segment (%d,%d,%d): %v",
				ErrSegmentGeometry, id.Start, id.End, id.Dup, err)
		}
	}

	// 4. Copy all warp edges into the mapping network, normalized.
	for _, we := range kn.WarpEdges() {
		if err := kn.copyNodeTo(mapping, we.U); err != nil {
			return err
		}
		if err := kn.copyNodeTo(mapping, we.V); err != nil {
			return err
		}
		_, err := mapping.AddEdge(we.U, we.V,
			core.AsWarp(), core.WithGeometry(we.Geo.Clone()))
		if err != nil {
			return fmt.Errorf("%w: warp edge %d-%d: %v",
				ErrTopology, we.U, we.V, err)
		}
	}

	kn.mapping = mapping

	// 5. Reduce the primary network to end nodes and warp edges.
	for _, nd := range kn.Nodes() {
		if !nd.End {
			_ = kn.RemoveNode(nd.ID)
		}
	}
	for _, e := range kn.Edges() {
		if !e.Warp {
			_ = kn.RemoveEdge(e.U, e.V)
		}
	}

	o.logger.Info("mapping network created",
		"segments", len(segmentIDs), "warpEdges", len(mapping.WarpEdges()))

	return nil
}

// copyNodeTo duplicates a node of the primary network into the mapping
// network, once.
func (kn *Network) copyNodeTo(mapping *core.Network, id int) error {
	if mapping.HasNode(id) {
		return nil
	}
	nd, ok := kn.Node(id)
	if !ok {
		return fmt.Errorf("%w: %d", core.ErrNodeNotFound, id)
	}
	cp := *nd
	if nd.Segment != nil {
		seg := *nd.Segment
		cp.Segment = &seg
	}

	return mapping.AddNode(&cp)
}

// SampleSegmentContours samples every segment contour of the mapping
// network at the given stitch width and adds the division points to
// the primary network as nodes. Each new node carries the segment id
// of its contour; nodes on a contour between two leaf end nodes are
// leaves themselves.
// Returns ErrNoMappingNetwork or ErrInvalidStitchWidth on bad input.
func (kn *Network) SampleSegmentContours(stitchWidth float64, opts ...Option) error {
	o := applyOptions(opts)
	if kn.mapping == nil {
		return ErrNoMappingNetwork
	}
	if stitchWidth <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidStitchWidth, stitchWidth)
	}

	added := 0
	for _, seg := range kn.mapping.SegmentContourEdges() {
		// 1. Division density from the contour length.
		density := int(math.Round(seg.Geo.Length() / stitchWidth))
		if density == 0 {
			continue
		}
		divPts := seg.Geo.DivideByCount(density, false)

		// 2. Leaf status propagates when both ends are leaves.
		startNode, okS := kn.mapping.Node(seg.Segment.Start)
		endNode, okE := kn.mapping.Node(seg.Segment.End)
		leaf := okS && okE && startNode.Leaf && endNode.Leaf

		// 3. Append the sample nodes.
		for j, pt := range divPts {
			s := *seg.Segment
			err := kn.AddNode(&core.Node{
				ID:       kn.NextNodeID(),
				Pos:      pt,
				Position: -1,
				Num:      j,
				Leaf:     leaf,
				Segment:  &s,
				Color:    core.NoColor,
			})
			if err != nil {
				return err
			}
			added++
		}
	}

	o.logger.Info("segment contours sampled",
		"stitchWidth", stitchWidth, "nodes", added)

	return nil
}

// segmentRecord groups a segment contour edge with the sampled nodes
// that lie on it.
type segmentRecord struct {
	id    core.SegmentID
	edge  *core.Edge
	nodes []*core.Node
}

// allNodesBySegment returns one record per segment contour edge of the
// mapping network, ordered by segment id, with the sampled interior
// nodes of the primary network sorted by Num.
func (kn *Network) allNodesBySegment() ([]segmentRecord, error) {
	if kn.mapping == nil {
		return nil, ErrNoMappingNetwork
	}
	var out []segmentRecord
	for _, seg := range kn.mapping.SegmentContourEdges() {
		out = append(out, segmentRecord{
			id:    *seg.Segment,
			edge:  seg,
			nodes: kn.NodesOnSegment(*seg.Segment),
		})
	}

	return out, nil
}

// CreateFinalWeftConnections chains the end nodes and sampled nodes of
// every segment with final weft edges carrying the segment id.
func (kn *Network) CreateFinalWeftConnections(opts ...Option) error {
	o := applyOptions(opts)
	records, err := kn.allNodesBySegment()
	if err != nil {
		return err
	}

	for _, rec := range records {
		first, okF := kn.Node(rec.id.Start)
		last, okL := kn.Node(rec.id.End)
		if !okF || !okL {
			return fmt.Errorf("%w: segment (%d,%d,%d) end node missing",
				ErrTopology, rec.id.Start, rec.id.End, rec.id.Dup)
		}
		id := rec.id
		switch len(rec.nodes) {
		case 0:
			kn.createWeftEdge(first, last, &id)
		case 1:
			kn.createWeftEdge(first, rec.nodes[0], &id)
			kn.createWeftEdge(rec.nodes[0], last, &id)
		default:
			kn.createWeftEdge(first, rec.nodes[0], &id)
			for j := 0; j+1 < len(rec.nodes); j++ {
				kn.createWeftEdge(rec.nodes[j], rec.nodes[j+1], &id)
			}
			kn.createWeftEdge(rec.nodes[len(rec.nodes)-1], last, &id)
		}
	}

	o.logger.Info("final weft connections created", "segments", len(records))

	return nil
}
