package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knitgraph/knitgraph/config"
	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
	"github.com/knitgraph/knitgraph/knit"
	"github.com/knitgraph/knitgraph/pattern"
)

var (
	generateSave  string
	generateHuman bool
)

func init() {
	generateCmd.Flags().StringVar(&generateSave, "save", "", "Persist networks and matrix to the database under this name")
	generateCmd.Flags().BoolVar(&generateHuman, "human", false, "Print the matrix as a text grid instead of JSON")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate <contours.json>",
	Short: "Run the pipeline from contour curves to a pattern matrix",
	Long: `Run the full pipeline on a contour file and print the pattern matrix.

The input is a JSON array of contours, each contour an array of [x,y,z]
points ordered along the curve. Gauge and connection parameters come
from the configuration file and KNITGRAPH_* environment variables.

Examples:
  knitgraph generate contours.json
  knitgraph generate --config knitgraph.yaml --human contours.json
  knitgraph generate --db patterns.db --save swatch contours.json`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	contours, err := readContours(args[0])
	if err != nil {
		return err
	}

	kn, dual, matrix, err := runPipeline(cfg, contours)
	if err != nil {
		return err
	}

	if generateSave != "" {
		if err := persistRun(cfg, generateSave, kn, dual, matrix); err != nil {
			return err
		}
	}

	if generateHuman {
		fmt.Println(matrix.String())
		return nil
	}

	return outputJSON(matrix)
}

// runPipeline chains every stage from contours to the sorted matrix.
func runPipeline(cfg config.Config, contours []geom.Polyline) (*knit.Network, *core.Network, pattern.Matrix, error) {
	logger := newLogger()
	opts := []knit.Option{
		knit.WithLogger(logger),
		knit.WithMaxConnections(cfg.MaxConnections),
	}
	if cfg.Precise {
		opts = append(opts, knit.WithPrecise())
	}
	if cfg.LeastConnected {
		opts = append(opts, knit.WithLeastConnected())
	}
	weftOpts := append([]knit.Option{}, opts...)
	if cfg.StartIndex >= 0 {
		weftOpts = append(weftOpts, knit.WithStartIndex(cfg.StartIndex))
	}
	if cfg.PropagateFromCenter {
		weftOpts = append(weftOpts, knit.WithPropagateFromCenter())
	}

	kn, err := knit.FromContours(contours, cfg.CourseHeight)
	if err != nil {
		return nil, nil, nil, err
	}
	kn.InitializeLeafConnections()
	if err := kn.InitializeWeftEdges(weftOpts...); err != nil {
		return nil, nil, nil, err
	}
	kn.InitializeWarpEdges(opts...)
	if err := kn.AssignSegmentAttributes(opts...); err != nil {
		return nil, nil, nil, err
	}
	if err := kn.CreateMappingNetwork(opts...); err != nil {
		return nil, nil, nil, err
	}
	if err := kn.SampleSegmentContours(cfg.StitchWidth, opts...); err != nil {
		return nil, nil, nil, err
	}
	if err := kn.CreateFinalWeftConnections(opts...); err != nil {
		return nil, nil, nil, err
	}
	if err := kn.CreateFinalWarpConnections(opts...); err != nil {
		return nil, nil, nil, err
	}

	popts := []pattern.Option{pattern.WithLogger(logger)}
	if cfg.MergeAdjacentCreases {
		popts = append(popts, pattern.WithMergeAdjacentCreases())
	}
	if cfg.Consolidate {
		popts = append(popts, pattern.WithConsolidate())
	}
	dual, err := pattern.CreateDual(kn.ToDirected(), popts...)
	if err != nil {
		return nil, nil, nil, err
	}
	matrix, err := pattern.MakePatternData(dual, popts...)
	if err != nil {
		return nil, nil, nil, err
	}

	return kn, dual, matrix, nil
}

// readContours parses a JSON file of contours, each an array of [x,y,z]
// points.
func readContours(path string) ([]geom.Polyline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading contours: %w", err)
	}
	var raw [][][3]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing contours: %w", err)
	}
	contours := make([]geom.Polyline, len(raw))
	for i, pts := range raw {
		pl := make(geom.Polyline, len(pts))
		for j, p := range pts {
			pl[j] = geom.Point{X: p[0], Y: p[1], Z: p[2]}
		}
		contours[i] = pl
	}

	return contours, nil
}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
