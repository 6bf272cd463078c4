package pattern

import (
	"sort"

	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
)

// Mesh is a face-vertex mesh built from the cycles of a knitting
// network. Faces hold vertex indices; cycles longer than four vertices
// are triangulated around their centroid and additionally recorded as
// ngons.
type Mesh struct {
	Vertices []geom.Point
	Faces    [][]int
	Ngons    [][]int
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(p geom.Point) int {
	m.Vertices = append(m.Vertices, p)

	return len(m.Vertices) - 1
}

// CreateMesh constructs a mesh from the faces of the directed double
// cover. Cycles of three or four nodes map directly to faces; longer
// cycles up to the maximum valence become a triangle fan around the
// cycle centroid plus an ngon record; anything longer is skipped.
func CreateMesh(n *core.Network, opts ...Option) (*Mesh, error) {
	o := applyOptions(opts)

	cycles, _, err := findCycles(n, o)
	if err != nil {
		return nil, err
	}

	mesh := &Mesh{}
	pos := positionIndex(n)
	nodeToVertex := make(map[int]int, n.NodeCount())
	for _, nd := range n.Nodes() {
		nodeToVertex[nd.ID] = mesh.AddVertex(nd.Pos)
	}

	keys := make([]int, 0, len(cycles))
	for k := range cycles {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	for _, ckey := range keys {
		cycle := cycles[ckey]
		switch {
		case len(cycle) < 3:
			continue
		case len(cycle) > 4:
			if len(cycle) > o.maxValence {
				continue
			}
			pts := make([]geom.Point, 0, len(cycle))
			for _, id := range cycle {
				pts = append(pts, pos[id])
			}
			center := mesh.AddVertex(geom.Centroid(pts))
			ngon := make([]int, 0, len(cycle))
			for i, id := range cycle {
				next := cycle[(i+1)%len(cycle)]
				mesh.Faces = append(mesh.Faces,
					[]int{nodeToVertex[id], nodeToVertex[next], center})
				ngon = append(ngon, nodeToVertex[id])
			}
			mesh.Ngons = append(mesh.Ngons, ngon)
		default:
			face := make([]int, 0, len(cycle))
			for _, id := range cycle {
				face = append(face, nodeToVertex[id])
			}
			mesh.Faces = append(mesh.Faces, face)
		}
	}

	o.logger.Info("mesh created",
		"vertices", len(mesh.Vertices), "faces", len(mesh.Faces), "ngons", len(mesh.Ngons))

	return mesh, nil
}
