package knit

// InitializeWarpEdges creates the first warp connections once all
// preliminary weft connections are made. A node becomes an end node
// when it has more than four edges, more than two weft edges, or lies
// on the first or last contour. Every non-weft edge incident to an end
// node becomes a warp edge and flags its far endpoint as an end node
// as well.
// Complexity: O(V + E)
func (kn *Network) InitializeWarpEdges(opts ...Option) {
	o := applyOptions(opts)
	contourSet := kn.AllNodesByPosition()

	for i, pos := range contourSet {
		for _, node := range pos {
			connected := kn.NodeEdges(node.ID)
			numWeft := len(kn.NodeWeftEdges(node.ID))
			if len(connected) > 4 || numWeft > 2 || i == 0 || i == len(contourSet)-1 {
				node.End = true
				for _, e := range connected {
					if e.Weft {
						continue
					}
					other, ok := kn.Node(e.Other(node.ID))
					if !ok {
						continue
					}
					other.End = true
					e.Warp = true
					o.logger.Debug("warp edge assigned", "u", e.U, "v", e.V)
				}
			}
		}
	}
}
