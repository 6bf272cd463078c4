// Package knitgraph turns stacks of contour curves into machine-knittable
// stitch patterns.
//
// 🧶 What is knitgraph?
//
//	A pure Go toolkit for computational knitting, organized as a pipeline:
//		• Contours in: ordered polylines sliced into courses at knitting gauge
//		• Weft & warp: course nodes connected along and across the rows
//		• Segmentation: warp edges cut the network into mapping segments
//		• Sampling: segments resampled at stitch width into the final grid
//		• Dual & sort: faces become stitches, topologically sorted rows out
//
// Under the hood, everything is organized under these subpackages:
//
//	geom/    — points, vectors, polylines and planar predicates
//	core/    — the attributed node/edge network, undirected and directed
//	knit/    — the contour-to-grid pipeline over a core network
//	pattern/ — cycle finding, dual networks and pattern matrix sorting
//	cons/    — Autoknit constraint (.cons) file codec
//	config/  — YAML pipeline configuration with environment overrides
//	store/   — SQLite persistence for networks and matrices
//	cmd/     — the knitgraph CLI
//
// Quick ASCII example:
//
//	    ┌─┬─┬─┐        course 1
//	    ├─┼─┼─┤   ==>  course 0
//	    └─┴─┴─┘
//
//	two contours sampled into stitches, connected into a knittable grid.
//
// The approach follows Popescu et al., "Automated Generation of Knit
// Patterns for Non-developable Surfaces". Dive into the package docs for
// the pipeline stages and their tunables.
//
//	go get github.com/knitgraph/knitgraph
package knitgraph
