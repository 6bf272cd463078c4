package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knitgraph/knitgraph/cons"
	"github.com/knitgraph/knitgraph/geom"
)

func init() {
	consCmd.AddCommand(consDumpCmd)
	consCmd.AddCommand(consWriteCmd)
	rootCmd.AddCommand(consCmd)
}

var consCmd = &cobra.Command{
	Use:   "cons",
	Short: "Read and write Autoknit constraint (.cons) files",
}

// consJSON is the JSON shape used by cons dump and cons write.
type consJSON struct {
	Vertices [][3]float64 `json:"vertices"`
	Value    float64      `json:"value"`
	Radius   float64      `json:"radius"`
}

var consDumpCmd = &cobra.Command{
	Use:   "dump <file.cons>",
	Short: "Print a constraint file as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		constraints, err := cons.ReadFile(args[0])
		if err != nil {
			return err
		}

		out := make([]consJSON, len(constraints))
		for i, c := range constraints {
			verts := make([][3]float64, len(c.Vertices))
			for j, p := range c.Vertices {
				verts[j] = [3]float64{p.X, p.Y, p.Z}
			}
			out[i] = consJSON{Vertices: verts, Value: c.Value, Radius: c.Radius}
		}

		return outputJSON(out)
	},
}

var consWriteCmd = &cobra.Command{
	Use:   "write <constraints.json> <file.cons>",
	Short: "Encode a JSON constraint list into the binary format",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading constraints: %w", err)
		}
		var in []consJSON
		if err := json.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("parsing constraints: %w", err)
		}

		constraints := make([]cons.Constraint, len(in))
		for i, c := range in {
			verts := make([]geom.Point, len(c.Vertices))
			for j, p := range c.Vertices {
				verts[j] = geom.Point{X: p[0], Y: p[1], Z: p[2]}
			}
			constraints[i] = cons.Constraint{Vertices: verts, Value: c.Value, Radius: c.Radius}
		}

		return cons.WriteFile(args[1], constraints)
	},
}
