package pattern_test

import (
	"fmt"

	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
	"github.com/knitgraph/knitgraph/knit"
	"github.com/knitgraph/knitgraph/pattern"
)

// gridCover runs the full pipeline on three stacked contours and
// returns the directed double cover.
func gridCover() (*core.Network, error) {
	contours := []geom.Polyline{
		{{X: 0, Y: 0}, {X: 4, Y: 0}},
		{{X: 0, Y: 1}, {X: 4, Y: 1}},
		{{X: 0, Y: 2}, {X: 4, Y: 2}},
	}
	kn, err := knit.FromContours(contours, 1)
	if err != nil {
		return nil, err
	}
	kn.InitializeLeafConnections()
	if err := kn.InitializeWeftEdges(); err != nil {
		return nil, err
	}
	kn.InitializeWarpEdges()
	if err := kn.AssignSegmentAttributes(); err != nil {
		return nil, err
	}
	if err := kn.CreateMappingNetwork(); err != nil {
		return nil, err
	}
	if err := kn.SampleSegmentContours(1); err != nil {
		return nil, err
	}
	if err := kn.CreateFinalWeftConnections(); err != nil {
		return nil, err
	}
	if err := kn.CreateFinalWarpConnections(); err != nil {
		return nil, err
	}

	return kn.ToDirected(), nil
}

// ExampleMakePatternData sorts the dual of a fully connected grid
// network into a pattern matrix of stitch rows.
func ExampleMakePatternData() {
	cover, err := gridCover()
	if err != nil {
		fmt.Println(err)
		return
	}
	dual, err := pattern.CreateDual(cover)
	if err != nil {
		fmt.Println(err)
		return
	}

	m, err := pattern.MakePatternData(dual)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("rows:", m.Rows())
	fmt.Println("cols:", m.Cols())
	// Output:
	// rows: 4
	// cols: 2
}
