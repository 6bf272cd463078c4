// Package cons reads and writes Autoknit constraint (.cons) files.
//
// The format is a flat little-endian binary stream:
//
//	uint32  total vertex count
//	3×float32 per vertex, for every constraint, concatenated in order
//	uint32  constraint count
//	per constraint: uint32 vertex count, float32 value, float32 radius
//
// Each constraint claims the next run of vertices from the shared vertex
// sequence, so the per-constraint counts must sum to the total vertex
// count. Values are stored as float32 on the wire and widened to float64
// in memory.
package cons

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/knitgraph/knitgraph/geom"
)

var (
	// ErrVertexCount is returned when the per-constraint vertex counts
	// do not match the vertex sequence in the file.
	ErrVertexCount = errors.New("cons: constraint vertex counts do not match vertex sequence")

	// ErrTooLarge is returned when a stored count exceeds MaxCount.
	ErrTooLarge = errors.New("cons: stored count exceeds limit")
)

// MaxCount bounds the vertex and constraint counts accepted by Read,
// guarding against corrupt or truncated headers allocating huge slices.
const MaxCount = 1 << 24

// Constraint is a single time constraint on a mesh region: a run of
// vertices pinned to the given time value, with an influence radius.
type Constraint struct {
	Vertices []geom.Point
	Value    float64
	Radius   float64
}

// storedConstraint mirrors one on-disk constraint record.
type storedConstraint struct {
	Count  uint32
	Value  float32
	Radius float32
}

// Read decodes a constraint file from r.
//
// The shared vertex sequence is consumed in order: the first constraint
// takes the first Count vertices, the second the next run, and so on.
// Read fails with ErrVertexCount when the counts do not add up.
func Read(r io.Reader) ([]Constraint, error) {
	// 1. Vertex sequence.
	var nVerts uint32
	if err := binary.Read(r, binary.LittleEndian, &nVerts); err != nil {
		return nil, fmt.Errorf("cons: read vertex count: %w", err)
	}
	if nVerts > MaxCount {
		return nil, fmt.Errorf("%w: %d vertices", ErrTooLarge, nVerts)
	}
	raw := make([][3]float32, nVerts)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, fmt.Errorf("cons: read vertices: %w", err)
	}

	// 2. Constraint sequence.
	var nCons uint32
	if err := binary.Read(r, binary.LittleEndian, &nCons); err != nil {
		return nil, fmt.Errorf("cons: read constraint count: %w", err)
	}
	if nCons > MaxCount {
		return nil, fmt.Errorf("%w: %d constraints", ErrTooLarge, nCons)
	}
	stored := make([]storedConstraint, nCons)
	if err := binary.Read(r, binary.LittleEndian, stored); err != nil {
		return nil, fmt.Errorf("cons: read constraints: %w", err)
	}

	// 3. Slice the vertex sequence into per-constraint runs.
	constraints := make([]Constraint, 0, nCons)
	offset := uint32(0)
	for i, sc := range stored {
		if offset+sc.Count > nVerts {
			return nil, fmt.Errorf("%w: constraint %d wants %d vertices, %d left",
				ErrVertexCount, i, sc.Count, nVerts-offset)
		}
		verts := make([]geom.Point, sc.Count)
		for j, v := range raw[offset : offset+sc.Count] {
			verts[j] = geom.Point{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
		}
		constraints = append(constraints, Constraint{
			Vertices: verts,
			Value:    float64(sc.Value),
			Radius:   float64(sc.Radius),
		})
		offset += sc.Count
	}
	if offset != nVerts {
		return nil, fmt.Errorf("%w: %d vertices unclaimed", ErrVertexCount, nVerts-offset)
	}

	return constraints, nil
}

// Write encodes constraints to w in the .cons wire format.
//
// Vertices of all constraints are chained into one sequence, followed by
// the constraint records that partition it.
func Write(w io.Writer, constraints []Constraint) error {
	// 1. Chained vertex sequence.
	total := 0
	for _, c := range constraints {
		total += len(c.Vertices)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(total)); err != nil {
		return fmt.Errorf("cons: write vertex count: %w", err)
	}
	raw := make([][3]float32, 0, total)
	for _, c := range constraints {
		for _, p := range c.Vertices {
			raw = append(raw, [3]float32{float32(p.X), float32(p.Y), float32(p.Z)})
		}
	}
	if err := binary.Write(w, binary.LittleEndian, raw); err != nil {
		return fmt.Errorf("cons: write vertices: %w", err)
	}

	// 2. Constraint records.
	if err := binary.Write(w, binary.LittleEndian, uint32(len(constraints))); err != nil {
		return fmt.Errorf("cons: write constraint count: %w", err)
	}
	stored := make([]storedConstraint, len(constraints))
	for i, c := range constraints {
		stored[i] = storedConstraint{
			Count:  uint32(len(c.Vertices)),
			Value:  float32(c.Value),
			Radius: float32(c.Radius),
		}
	}
	if err := binary.Write(w, binary.LittleEndian, stored); err != nil {
		return fmt.Errorf("cons: write constraints: %w", err)
	}

	return nil
}

// ReadFile decodes the constraint file at path.
func ReadFile(path string) ([]Constraint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cons: open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f)
}

// WriteFile encodes constraints to the file at path, replacing it.
func WriteFile(path string, constraints []Constraint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cons: create %s: %w", path, err)
	}
	if err := Write(f, constraints); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
