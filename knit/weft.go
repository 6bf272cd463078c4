package knit

import (
	"fmt"
	"math"
	"sort"

	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
)

// leastAngleThreshold is the angle difference below which the two best
// candidates count as equivalent and the least-angle-change rule kicks in.
const leastAngleThreshold = 6.0 * math.Pi / 180.0

// candidate pairs a node with its scoring values during weft and warp
// candidate selection.
type candidate struct {
	node  *core.Node
	dist  float64
	angle float64
	delta float64
}

// dist returns the scoring distance between two points, squared unless
// the precise option is set.
func (o options) dist(a, b geom.Point) float64 {
	if o.precise {
		return a.DistanceTo(b)
	}

	return a.SquaredDistanceTo(b)
}

// edgeDir returns the unit direction of an edge's creation geometry.
func edgeDir(e *core.Edge) geom.Vec {
	return e.Geo.End().Sub(e.Geo.Start()).Unit()
}

// rowDirAt returns the unit running direction of a node row at index k:
// towards the next node, or from the previous node at the row's end.
// Single-node rows have no direction; candidate scoring then falls back
// to distance alone.
func rowDirAt(nodes []*core.Node, k int) geom.Vec {
	if k < len(nodes)-1 {
		return nodes[k+1].Pos.Sub(nodes[k].Pos).Unit()
	}
	if k == 0 {
		return geom.Vec{}
	}

	return nodes[k].Pos.Sub(nodes[k-1].Pos).Unit()
}

// scoreCandidates fills angle and delta for every candidate relative to
// the row direction and stable-sorts by (distance, delta).
func scoreCandidates(cands []candidate, from geom.Point, rowDir geom.Vec) {
	for i := range cands {
		dir := cands[i].node.Pos.Sub(from).Unit()
		cands[i].angle = geom.AngleBetween(rowDir, dir)
		cands[i].delta = math.Abs(cands[i].angle - math.Pi/2)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}

		return cands[i].delta < cands[j].delta
	})
}

// attemptWeftConnection connects node to candidate with a weft edge if
// the candidate is below the connection cap and not yet connected to
// the source row. The edge always runs from the lower to the higher
// contour position. Reports whether the connection was made.
func (kn *Network) attemptWeftConnection(o options, node, cand *core.Node, sourceNodes []*core.Node) bool {
	neighbors := kn.Neighbors(cand.ID)
	if len(neighbors) >= o.maxConnections {
		return false
	}
	for _, cn := range neighbors {
		for _, sn := range sourceNodes {
			if cn == sn.ID {
				o.logger.Debug("candidate already connected to source row",
					"candidate", cand.ID, "via", cn)

				return false
			}
		}
	}
	o.logger.Debug("weft connection", "from", node.ID, "to", cand.ID)
	if node.Position < cand.Position {
		kn.createWeftEdge(node, cand, nil)
	} else {
		kn.createWeftEdge(cand, node, nil)
	}

	return true
}

// createInitialWeftConnections runs the first weft pass over a set of
// contours: for every interior node the four nearest nodes on the next
// contour are candidates, the most perpendicular one wins, and a
// least-angle-change tie break applies when the two best are nearly
// equivalent. A forbidden-node watermark keeps connections from
// crossing each other.
func (kn *Network) createInitialWeftConnections(o options, contourSet [][]*core.Node) error {
	if len(contourSet) < 2 {
		o.logger.Debug("not enough contours in contour set")

		return nil
	}

	for i := 0; i+1 < len(contourSet); i++ {
		initial := trimRow(contourSet[i], o)
		targets := trimRow(contourSet[i+1], o)
		if len(initial) == 0 || len(targets) == 0 {
			continue
		}

		forbidden := -1
		for k, node := range initial {
			// 1. Apply the forbidden-node watermark.
			kept := targets[:0:0]
			for _, tn := range targets {
				if tn.ID >= forbidden {
					kept = append(kept, tn)
				}
			}
			targets = kept
			if len(targets) == 0 {
				continue
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
				if kn.attemptWeftConnection(o, node, cands[0].node, initial) {
					forbidden = cands[0].node.ID
				}
				continue
			}

			// 3. Score by perpendicularity to the row direction.
			scoreCandidates(cands, node.Pos, rowDirAt(initial, k))

			var final *core.Node
			aDelta := cands[0].angle - cands[1].angle
			if len(kn.Neighbors(node.ID)) > 2 && aDelta < leastAngleThreshold {
				// 4a. Least angle change against the previous weft edge.
				prev := kn.NodeWeftEdges(node.ID)
				switch {
				case len(prev) > 1:
					return fmt.Errorf("%w: node %d has more than one prior weft edge",
						ErrTopology, node.ID)
				case len(prev) == 0:
					final = cands[0].node
				default:
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
				// 4b. Most perpendicular connection.
				final = cands[0].node
			}

			if kn.attemptWeftConnection(o, node, final, initial) {
				forbidden = final.ID
			}
		}
	}

	return nil
}

// trimRow drops the leaf nodes from a contour row and, under the
// continuous start/end options, the rows already connected by them.
func trimRow(row []*core.Node, o options) []*core.Node {
	if len(row) < 2 {
		return nil
	}
	trimmed := row[1 : len(row)-1]
	if o.forceContinuousStart && len(trimmed) > 0 {
		trimmed = trimmed[1:]
	}
	if o.forceContinuousEnd && len(trimmed) > 0 {
		trimmed = trimmed[:len(trimmed)-1]
	}

	return trimmed
}

// createSecondPassWeftConnections closes the gaps the first pass left:
// nodes without a connection towards a neighboring contour look for a
// window of target nodes between the connections of their neighbors
// and connect to the best node inside it.
func (kn *Network) createSecondPassWeftConnections(o options, contourSet [][]*core.Node) {
	if len(contourSet) < 2 {
		o.logger.Debug("not enough contours in contour set")

		return
	}

	for i := range contourSet {
		initial := contourSet[i]

		// Determine neighboring target positions, -1 at the boundaries.
		targetA, targetB := -1, -1
		if i > 0 {
			targetA = contourSet[i-1][0].Position
		}
		if i < len(contourSet)-1 {
			targetB = contourSet[i+1][0].Position
		}

		for k, node := range initial {
			// 1. Positions this node is already weft-connected to.
			conPos := make(map[int]bool)
			for _, we := range kn.NodeWeftEdges(node.ID) {
				other, ok := kn.Node(we.Other(node.ID))
				if ok {
					conPos[other.Position] = true
				}
			}

			// 2. Select the target positions still missing.
			var targetPositions []int
			switch {
			case targetA == -1:
				if conPos[targetB] {
					continue
				}
				targetPositions = []int{targetB}
			case targetB == -1:
				if conPos[targetA] {
					continue
				}
				targetPositions = []int{targetA}
			case conPos[targetA] && conPos[targetB]:
				continue
			case conPos[targetB]:
				targetPositions = []int{targetA}
			case conPos[targetA]:
				targetPositions = []int{targetB}
			case len(conPos) == 0:
				targetPositions = []int{targetA, targetB}
			}

			for _, targetPosition := range targetPositions {
				kn.connectIntoWindow(o, initial, k, node, targetPosition)
			}
		}
	}
}

// connectIntoWindow finds the window of candidate nodes on the target
// position for one unconnected node and creates the weft edge to the
// best node in it.
func (kn *Network) connectIntoWindow(o options, initial []*core.Node, k int, node *core.Node, targetPosition int) {
	targetNodes := kn.NodesOnPosition(targetPosition)
	if len(targetNodes) == 0 {
		return
	}

	// 1. The farthest connection of the previous row node opens the window.
	prevNode := initial[(k-1+len(initial))%len(initial)]
	var startOfWindow *core.Node
	for _, pe := range kn.NodeWeftEdges(prevNode.ID) {
		other, ok := kn.Node(pe.Other(prevNode.ID))
		if !ok || other.Position != targetPosition {
			continue
		}
		if other.Num < len(targetNodes) {
			tn := targetNodes[other.Num]
			if startOfWindow == nil || tn.Num > startOfWindow.Num {
				startOfWindow = tn
			}
		}
	}
	if startOfWindow == nil {
		o.logger.Debug("no possible connection", "node", node.ID, "target", targetPosition)

		return
	}

	// 2. The next row node connected into the target position closes it.
	var endOfWindow *core.Node
	for _, future := range initial[k+1:] {
		var filtered []*core.Node
		for _, fe := range kn.NodeWeftEdges(future.ID) {
			fwn, ok := kn.Node(fe.Other(future.ID))
			if !ok || fwn.Position != targetPosition {
				continue
			}
			if fwn.Num == startOfWindow.Num {
				filtered = []*core.Node{fwn}
				break
			}
			if fwn.Num > startOfWindow.Num {
				filtered = append(filtered, fwn)
			}
		}
		if len(filtered) == 0 {
			continue
		}
		sort.Slice(filtered, func(a, b int) bool { return filtered[a].Num < filtered[b].Num })
		endOfWindow = filtered[0]
		break
	}

	// 3. Assemble the window as an id range over the whole network.
	var window []*core.Node
	if endOfWindow == nil || endOfWindow.ID == startOfWindow.ID {
		window = []*core.Node{startOfWindow}
	} else {
		for _, nd := range kn.Nodes() {
			if nd.ID >= startOfWindow.ID && nd.ID <= endOfWindow.ID {
				window = append(window, nd)
			}
		}
	}
	if len(window) == 0 {
		return
	}
	if len(window) == 1 {
		kn.connectWeftByPosition(node, window[0])

		return
	}

	// 4. Pick the best window node.
	cands := make([]candidate, 0, len(window))
	for _, wn := range window {
		cands = append(cands, candidate{node: wn, dist: o.dist(node.Pos, wn.Pos)})
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })

	var final *core.Node
	if o.leastConnected {
		counts := make([]int, len(cands))
		for i := range cands {
			counts[i] = len(kn.Neighbors(cands[i].node.ID))
		}
		sort.SliceStable(cands, func(a, b int) bool {
			if cands[a].dist != cands[b].dist {
				return cands[a].dist < cands[b].dist
			}

			return counts[a] < counts[b]
		})
		final = cands[0].node
	} else {
		scoreCandidates(cands, node.Pos, rowDirAt(initial, k))
		final = cands[0].node
	}

	o.logger.Debug("second pass weft connection", "from", node.ID, "to", final.ID)
	kn.connectWeftByPosition(node, final)
}

// connectWeftByPosition creates a weft edge running from the lower to
// the higher contour position.
func (kn *Network) connectWeftByPosition(a, b *core.Node) {
	if a.Position < b.Position {
		kn.createWeftEdge(a, b, nil)
	} else {
		kn.createWeftEdge(b, a, nil)
	}
}

// InitializeWeftEdges creates all preliminary weft connections: the
// contour list is split at the start index (the longest contour by
// default), both halves get first-pass and then second-pass weft
// connections. The continuous start/end options additionally chain the
// first or last interior row across all contours up front.
// Returns ErrStartIndexRange when the split index is out of range.
func (kn *Network) InitializeWeftEdges(opts ...Option) error {
	o := applyOptions(opts)
	all := kn.AllNodesByPosition()

	// 1. Resolve the split index.
	start := o.startIndex
	if start < 0 {
		start = kn.longestPositionContour()
	} else if start >= len(all) {
		return fmt.Errorf("%w: %d with %d contours", ErrStartIndexRange, start, len(all))
	}

	// 2. Optionally force continuous first and last rows.
	if o.forceContinuousStart {
		for i := 0; i+1 < len(all); i++ {
			if len(all[i]) > 1 && len(all[i+1]) > 1 {
				kn.createWeftEdge(all[i][1], all[i+1][1], nil)
			}
		}
	}
	if o.forceContinuousEnd {
		for i := 0; i+1 < len(all); i++ {
			if len(all[i]) > 1 && len(all[i+1]) > 1 {
				kn.createWeftEdge(all[i][len(all[i])-2], all[i+1][len(all[i+1])-2], nil)
			}
		}
	}

	// 3. Split the contour list at the start index.
	left := make([][]*core.Node, start+1)
	copy(left, all[:start+1])
	if o.propagateFromCenter {
		for i, j := 0, len(left)-1; i < j; i, j = i+1, j-1 {
			left[i], left[j] = left[j], left[i]
		}
	}
	right := all[start:]

	o.logger.Info("initializing weft edges",
		"contours", len(all), "splitIndex", start)

	// 4. First pass over both halves.
	if err := kn.createInitialWeftConnections(o, left); err != nil {
		return err
	}
	if err := kn.createInitialWeftConnections(o, right); err != nil {
		return err
	}

	// 5. Second pass over both halves.
	kn.createSecondPassWeftConnections(o, left)
	kn.createSecondPassWeftConnections(o, right)

	return nil
}
