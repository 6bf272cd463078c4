package knit

import (
	"fmt"
	"sort"

	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
)

// chainPair records a matched source/target chain pair for the second
// warp pass.
type chainPair struct {
	source, target       []core.SegmentID
	sourceKey, targetKey ChainValue
}

func idsKey(ids []core.SegmentID) string {
	return fmt.Sprintf("%v", ids)
}

// CreateFinalWarpConnections creates the final warp edges by building
// chains of segment contours and pairing every source chain with a
// target chain. The pairing guesses the target by chain value in four
// cases (enclosed short row, short row to the right, short row to the
// left, regular row) and verifies each guess against the warp edges
// between the chains' end nodes. Matched pairs get initial warp
// connections with the nearest-candidate heuristic; two second passes
// then fill the remaining gaps in both directions.
func (kn *Network) CreateFinalWarpConnections(opts ...Option) error {
	o := applyOptions(opts)

	// 1. Index segments and build the chains.
	records, err := kn.allNodesBySegment()
	if err != nil {
		return err
	}
	segDict := make(map[core.SegmentID]segmentRecord, len(records))
	for _, rec := range records {
		segDict[rec.id] = rec
	}
	sourceChains, targetChainDict := BuildChains(kn.mapping)

	connectedChains := make(map[ChainValue]bool)
	var s2tOrder, t2sOrder []string
	s2t := make(map[string]chainPair)
	t2s := make(map[string]chainPair)

	// 2. Pair every source chain with a target chain.
	for _, sourceChain := range sourceChains {
		currentIDs := sourceChain.Segments
		chainValue := sourceChain.Value

		firstNode, okF := kn.Node(currentIDs[0].Start)
		lastNode, okL := kn.Node(currentIDs[len(currentIDs)-1].End)
		if !okF || !okL {
			return fmt.Errorf("%w: chain (%d,%d,%d) end node missing", ErrTopology,
				chainValue.Start, chainValue.End, chainValue.Index)
		}

		currentGeo, err := kn.chainGeometry(segDict, currentIDs)
		if err != nil {
			return err
		}
		currentMid := currentGeo.Mid()
		currentNodes := kn.chainPairNodes(o, segDict, currentIDs)

		o.logger.Debug("processing segment chain",
			"start", chainValue.Start, "end", chainValue.End, "index", chainValue.Index)

		matched := false
		for _, guess := range []struct {
			dStart, dEnd int
			label        string
		}{
			{0, 0, "<=====>"},
			{0, 1, "<=====/"},
			{1, 0, "/=====>"},
			{1, 1, "/=====/"},
		} {
			targetKey, targetIDs, ok := kn.guessTargetChain(o, segDict,
				targetChainDict, connectedChains, chainValue,
				guess.dStart, guess.dEnd, currentIDs, currentMid)
			if !ok {
				continue
			}

			// Verify the guess against existing warp edges. An
			// offset end must be a warp neighbor of the chain's end
			// node, a shared end must be the same node. The enclosed
			// case needs no verification.
			targetFirst := targetIDs[0].Start
			targetLast := targetIDs[len(targetIDs)-1].End
			verified := true
			if guess.dStart == 1 {
				verified = verified && kn.HasEdge(firstNode.ID, targetFirst)
			} else if guess.dEnd == 1 {
				verified = verified && targetFirst == firstNode.ID
			}
			if guess.dEnd == 1 {
				verified = verified && kn.HasEdge(lastNode.ID, targetLast)
			} else if guess.dStart == 1 {
				verified = verified && targetLast == lastNode.ID
			}
			if !verified {
				o.logger.Debug("guess rejected", "case", guess.label)
				continue
			}

			o.logger.Debug("chain pair detected", "case", guess.label,
				"targetStart", targetKey.Start, "targetEnd", targetKey.End,
				"targetIndex", targetKey.Index)

			targetNodes := kn.chainPairNodes(o, segDict, targetIDs)
			connectedChains[targetKey] = true

			sk, tk := idsKey(currentIDs), idsKey(targetIDs)
			if _, ok := s2t[sk]; !ok {
				s2tOrder = append(s2tOrder, sk)
				s2t[sk] = chainPair{
					source: currentIDs, target: targetIDs,
					sourceKey: chainValue, targetKey: targetKey,
				}
			}
			if _, ok := t2s[tk]; !ok {
				t2sOrder = append(t2sOrder, tk)
				t2s[tk] = chainPair{
					source: currentIDs, target: targetIDs,
					sourceKey: chainValue, targetKey: targetKey,
				}
			}

			kn.createInitialWarpConnections(o, currentNodes, targetNodes)
			matched = true
			break
		}
		if !matched {
			o.logger.Debug("no matching target chain", "start", chainValue.Start,
				"end", chainValue.End, "index", chainValue.Index)
		}
	}

	// 3. Second pass source → target.
	for _, key := range s2tOrder {
		pair := s2t[key]
		rev := pair.targetKey.Less(pair.sourceKey)
		kn.secondPassOverChain(o, segDict, pair.source, pair.target, rev)
	}

	// 4. Second pass target → source.
	for _, key := range t2sOrder {
		pair := t2s[key]
		rev := !pair.targetKey.Less(pair.sourceKey)
		kn.secondPassOverChain(o, segDict, pair.target, pair.source, rev)
	}

	return nil
}

// guessTargetChain proposes the target chain for one case offset,
// preferring the geometrically closest candidate when several keys fit.
func (kn *Network) guessTargetChain(
	o options,
	segDict map[core.SegmentID]segmentRecord,
	targets map[ChainValue][]core.SegmentID,
	connected map[ChainValue]bool,
	cv ChainValue,
	dStart, dEnd int,
	currentIDs []core.SegmentID,
	currentMid geom.Point,
) (ChainValue, []core.SegmentID, bool) {
	var keys []ChainValue
	for key := range targets {
		if key.Start == cv.Start+dStart && key.End == cv.End+dEnd && !connected[key] {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return ChainValue{}, nil, false
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	// single candidate shortcut, except for the enclosed case which
	// must exclude the geometrically identical chain
	if len(keys) == 1 && (dStart != 0 || dEnd != 0) {
		return keys[0], targets[keys[0]], true
	}

	best := -1
	bestDist := 0.0
	for i, key := range keys {
		ids := targets[key]
		if dStart == 0 && dEnd == 0 && sameSegments(ids, currentIDs) {
			continue
		}
		geo, err := kn.chainGeometry(segDict, ids)
		if err != nil {
			o.logger.Debug("target chain geometry rejected",
				"start", key.Start, "end", key.End, "err", err)
			continue
		}
		d := o.dist(currentMid, geo.Mid())
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best == -1 {
		return ChainValue{}, nil, false
	}

	return keys[best], targets[keys[best]], true
}

func sameSegments(a, b []core.SegmentID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// chainGeometry joins the segment contour geometry of a chain.
func (kn *Network) chainGeometry(segDict map[core.SegmentID]segmentRecord, ids []core.SegmentID) (geom.Polyline, error) {
	pieces := make([]geom.Polyline, 0, len(ids))
	for _, id := range ids {
		rec, ok := segDict[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown segment (%d,%d,%d)",
				ErrTopology, id.Start, id.End, id.Dup)
		}
		pieces = append(pieces, rec.edge.Geo)
	}
	joined, err := geom.Join(pieces)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSegmentGeometry, err)
	}

	return joined, nil
}

// chainPairNodes collects the sampled nodes of a chain for the first
// warp pass, optionally with the interim end nodes between segments.
func (kn *Network) chainPairNodes(o options, segDict map[core.SegmentID]segmentRecord, ids []core.SegmentID) []*core.Node {
	var out []*core.Node
	for j, id := range ids {
		if o.includeEndNodes && j > 0 {
			if nd, ok := kn.Node(id.Start); ok {
				out = append(out, nd)
			}
		}
		out = append(out, segDict[id].nodes...)
	}

	return out
}

// fullChainNodes collects every node of a chain including all end
// nodes, in course order.
func (kn *Network) fullChainNodes(segDict map[core.SegmentID]segmentRecord, ids []core.SegmentID) []*core.Node {
	var out []*core.Node
	for _, id := range ids {
		if nd, ok := kn.Node(id.Start); ok {
			out = append(out, nd)
		}
		out = append(out, segDict[id].nodes...)
	}
	if nd, ok := kn.Node(ids[len(ids)-1].End); ok {
		out = append(out, nd)
	}

	return out
}

// attemptWarpConnection connects node to candidate with a warp edge if
// the candidate is below the connection cap and not yet connected to
// the source chain. Reports whether the connection was made.
func (kn *Network) attemptWarpConnection(o options, node, cand *core.Node, sourceNodes []*core.Node) bool {
	neighbors := kn.Neighbors(cand.ID)
	if len(neighbors) >= o.maxConnections {
		return false
	}
	for _, cn := range neighbors {
		for _, sn := range sourceNodes {
			if cn == sn.ID {
				o.logger.Debug("candidate already connected to source chain",
					"candidate", cand.ID, "via", cn)

				return false
			}
		}
	}
	o.logger.Debug("warp connection", "from", node.ID, "to", cand.ID)
	kn.createWarpEdge(node, cand)

	return true
}

// createInitialWarpConnections runs the first warp pass between a pair
// of chains: nearest-four candidates, perpendicularity scoring, and a
// least-angle-change tie break against the previous warp edge. The
// forbidden-node marker keeps connections from crossing.
func (kn *Network) createInitialWarpConnections(o options, initial, target []*core.Node) {
	if len(initial) == 0 || len(target) == 0 {
		return
	}

	targets := target
	var forbidden *core.Node
	for k, node := range initial {
		// 1. Apply the forbidden-node marker: only targets from its
		// index onward remain.
		if forbidden != nil {
			for i, tn := range targets {
				if tn == forbidden {
					targets = targets[i:]
					break
				}
			}
		}
		if len(targets) == 0 {
			return
		}

		// 2. The four nearest targets are the possible connections.
		cands := make([]candidate, 0, len(targets))
		for _, tn := range targets {
			cands = append(cands, candidate{node: tn, dist: o.dist(node.Pos, tn.Pos)})
		}
		sort.SliceStable(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })
		if len(cands) > 4 {
			cands = cands[:4]
		}

		if len(cands) == 1 {
			if kn.attemptWarpConnection(o, node, cands[0].node, initial) {
				forbidden = cands[0].node
			}
			continue
		}

		// 3. Score by perpendicularity to the chain direction.
		scoreCandidates(cands, node.Pos, rowDirAt(initial, k))

		var final *core.Node
		aDelta := cands[0].angle - cands[1].angle
		if len(kn.Neighbors(node.ID)) > 2 && aDelta < leastAngleThreshold {
			prev := kn.NodeWarpEdges(node.ID)
			if len(prev) == 0 {
				final = cands[0].node
			} else {
				if len(prev) > 1 {
					o.logger.Debug("multiple prior warp connections, using first",
						"node", node.ID)
				}
				prevDir := edgeDir(prev[0])
				dirA := cands[0].node.Pos.Sub(node.Pos).Unit()
				dirB := cands[1].node.Pos.Sub(node.Pos).Unit()
				if geom.AngleBetween(prevDir, dirA) < geom.AngleBetween(prevDir, dirB) {
					final = cands[0].node
				} else {
					final = cands[1].node
				}
			}
		} else {
			final = cands[0].node
		}

		if kn.attemptWarpConnection(o, node, final, initial) {
			forbidden = final
		}
	}
}

// secondPassOverChain walks one matched chain pair and connects every
// node still missing a warp edge into a window of target chain nodes
// framed by its neighbors' existing connections.
func (kn *Network) secondPassOverChain(o options, segDict map[core.SegmentID]segmentRecord, currentIDs, targetIDs []core.SegmentID, rev bool) {
	currentChainNodes := kn.fullChainNodes(segDict, currentIDs)
	targetChainNodes := kn.fullChainNodes(segDict, targetIDs)
	if len(currentChainNodes) == 0 || len(targetChainNodes) == 0 {
		return
	}

	startOfWindow := -1
	for k, node := range currentChainNodes {
		// 1. The chain's first and last node count as connected.
		nodeConnected := k == 0 || k == len(currentChainNodes)-1

		// 2. Existing warp targets into the target chain advance the
		// window start.
		for _, we := range kn.NodeWarpEdges(node.ID) {
			wet := we.Other(node.ID)
			for n, tcn := range targetChainNodes {
				if wet == tcn.ID {
					if n > startOfWindow || startOfWindow == -1 {
						startOfWindow = n
					}
					nodeConnected = true
				}
			}
		}
		if nodeConnected {
			continue
		}

		o.logger.Debug("second pass warp window", "node", node.ID,
			"startOfWindow", startOfWindow)

		// 3. Shared first node shifts the window start past it.
		if len(targetChainNodes) >= 2 && startOfWindow == -1 {
			if targetChainNodes[0].ID == currentChainNodes[0].ID {
				startOfWindow = 1
			} else {
				startOfWindow = 0
			}
		}

		// 4. Find the window end: the target node matching the chain's
		// last node, or the first target node warp-connected back into
		// the current chain.
		endOfWindow := -1
		for n, tcn := range targetChainNodes {
			if n >= startOfWindow {
				if tcn.ID == currentChainNodes[len(currentChainNodes)-1].ID {
					endOfWindow = n
				}
				for _, twe := range kn.NodeWarpEdges(tcn.ID) {
					twet := twe.Other(tcn.ID)
					for _, cn := range currentChainNodes {
						if twet == cn.ID {
							endOfWindow = n
							break
						}
					}
					if endOfWindow == n {
						break
					}
				}
			}
			if endOfWindow > 0 && endOfWindow > startOfWindow {
				break
			}
		}

		// 5. Shared last node shrinks the window for the next-to-last
		// source node.
		if endOfWindow > 0 {
			if targetChainNodes[endOfWindow].ID == currentChainNodes[len(currentChainNodes)-1].ID &&
				k == len(currentChainNodes)-2 {
				endOfWindow--
			}
		}
		if endOfWindow == -1 || endOfWindow < startOfWindow {
			startOfWindow = -1
			o.logger.Debug("no valid window", "node", node.ID)
			continue
		}

		var window []*core.Node
		if endOfWindow == len(targetChainNodes)-1 {
			window = targetChainNodes[startOfWindow:]
		} else {
			window = targetChainNodes[startOfWindow : endOfWindow+1]
		}

		kn.createSecondPassWarpConnection(o, currentChainNodes, k, window, rev)
	}
}

// createSecondPassWarpConnection connects one source node to the best
// node of its window, scored by distance and perpendicularity to the
// source chain direction. With rev the warp edge runs from the window
// node to the source node.
func (kn *Network) createSecondPassWarpConnection(o options, sourceNodes []*core.Node, idx int, window []*core.Node, rev bool) {
	if len(window) == 0 {
		return
	}
	node := sourceNodes[idx]
	if len(window) == 1 {
		if rev {
			kn.createWarpEdge(window[0], node)
		} else {
			kn.createWarpEdge(node, window[0])
		}

		return
	}

	cands := make([]candidate, 0, len(window))
	for _, wn := range window {
		cands = append(cands, candidate{node: wn, dist: o.dist(node.Pos, wn.Pos)})
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })
	scoreCandidates(cands, node.Pos, rowDirAt(sourceNodes, idx))
	final := cands[0].node

	o.logger.Debug("second pass warp connection", "from", node.ID, "to", final.ID)
	if rev {
		kn.createWarpEdge(final, node)
	} else {
		kn.createWarpEdge(node, final)
	}
}
