// Package store persists networks and pattern matrices to SQLite.
//
// Networks are stored as node and edge rows keyed by a named network
// record, edge geometry as JSON point arrays. Matrices are stored as a
// single JSON row payload. The driver is modernc.org/sqlite, a pure Go
// build with no cgo requirement.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/geom"
	"github.com/knitgraph/knitgraph/pattern"
)

var (
	// ErrNotFound is returned when no record matches the given name.
	ErrNotFound = errors.New("store: not found")
)

const schema = `
	CREATE TABLE IF NOT EXISTS networks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		directed INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nodes (
		network_id INTEGER NOT NULL REFERENCES networks(id) ON DELETE CASCADE,
		id INTEGER NOT NULL,
		x REAL NOT NULL, y REAL NOT NULL, z REAL NOT NULL,
		position INTEGER NOT NULL,
		num INTEGER NOT NULL,
		leaf INTEGER NOT NULL,
		end_node INTEGER NOT NULL,
		start_node INTEGER NOT NULL,
		increase INTEGER NOT NULL,
		decrease INTEGER NOT NULL,
		seg_start INTEGER, seg_end INTEGER, seg_dup INTEGER,
		color INTEGER NOT NULL,
		PRIMARY KEY (network_id, id)
	);

	CREATE TABLE IF NOT EXISTS edges (
		network_id INTEGER NOT NULL REFERENCES networks(id) ON DELETE CASCADE,
		u INTEGER NOT NULL,
		v INTEGER NOT NULL,
		weft INTEGER NOT NULL,
		warp INTEGER NOT NULL,
		seg_start INTEGER, seg_end INTEGER, seg_dup INTEGER,
		geo TEXT NOT NULL,
		PRIMARY KEY (network_id, u, v)
	);

	CREATE TABLE IF NOT EXISTS matrices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		data TEXT NOT NULL
	);
`

// Store is a handle to one SQLite pattern database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// The driver has no concurrent write support.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveNetwork stores the network under name, replacing any previous
// network with that name. It returns the record id.
func (s *Store) SaveNetwork(name string, n *core.Network) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	// 1. Replace the network record; cascading deletes clear old rows.
	if _, err := tx.Exec("DELETE FROM networks WHERE name = ?", name); err != nil {
		return 0, fmt.Errorf("store: delete network %q: %w", name, err)
	}
	res, err := tx.Exec("INSERT INTO networks (name, directed) VALUES (?, ?)",
		name, boolInt(n.Directed()))
	if err != nil {
		return 0, fmt.Errorf("store: insert network %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: network id: %w", err)
	}

	// 2. Node rows.
	nodeStmt, err := tx.Prepare(`
		INSERT INTO nodes (network_id, id, x, y, z, position, num,
			leaf, end_node, start_node, increase, decrease,
			seg_start, seg_end, seg_dup, color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare nodes: %w", err)
	}
	defer nodeStmt.Close()
	for _, nd := range n.Nodes() {
		segStart, segEnd, segDup := segmentColumns(nd.Segment)
		_, err := nodeStmt.Exec(id, nd.ID, nd.Pos.X, nd.Pos.Y, nd.Pos.Z,
			nd.Position, nd.Num,
			boolInt(nd.Leaf), boolInt(nd.End), boolInt(nd.Start),
			boolInt(nd.Increase), boolInt(nd.Decrease),
			segStart, segEnd, segDup, nd.Color)
		if err != nil {
			return 0, fmt.Errorf("store: insert node %d: %w", nd.ID, err)
		}
	}

	// 3. Edge rows, geometry as a JSON point array.
	edgeStmt, err := tx.Prepare(`
		INSERT INTO edges (network_id, u, v, weft, warp,
			seg_start, seg_end, seg_dup, geo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare edges: %w", err)
	}
	defer edgeStmt.Close()
	for _, e := range n.Edges() {
		geo, err := marshalGeometry(e.Geo)
		if err != nil {
			return 0, fmt.Errorf("store: edge (%d,%d) geometry: %w", e.U, e.V, err)
		}
		segStart, segEnd, segDup := segmentColumns(e.Segment)
		_, err = edgeStmt.Exec(id, e.U, e.V, boolInt(e.Weft), boolInt(e.Warp),
			segStart, segEnd, segDup, geo)
		if err != nil {
			return 0, fmt.Errorf("store: insert edge (%d,%d): %w", e.U, e.V, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}

	return id, nil
}

// LoadNetwork rebuilds the network stored under name.
func (s *Store) LoadNetwork(name string) (*core.Network, error) {
	var id int64
	var directed int
	err := s.db.QueryRow("SELECT id, directed FROM networks WHERE name = ?", name).
		Scan(&id, &directed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: network %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("store: query network %q: %w", name, err)
	}

	n := core.NewNetwork(core.WithDirected(directed != 0))

	// 1. Nodes.
	rows, err := s.db.Query(`
		SELECT id, x, y, z, position, num,
			leaf, end_node, start_node, increase, decrease,
			seg_start, seg_end, seg_dup, color
		FROM nodes WHERE network_id = ? ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("store: query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var nd core.Node
		var leaf, end, start, inc, dec int
		var segStart, segEnd, segDup sql.NullInt64
		err := rows.Scan(&nd.ID, &nd.Pos.X, &nd.Pos.Y, &nd.Pos.Z,
			&nd.Position, &nd.Num,
			&leaf, &end, &start, &inc, &dec,
			&segStart, &segEnd, &segDup, &nd.Color)
		if err != nil {
			return nil, fmt.Errorf("store: scan node: %w", err)
		}
		nd.Leaf, nd.End, nd.Start = leaf != 0, end != 0, start != 0
		nd.Increase, nd.Decrease = inc != 0, dec != 0
		nd.Segment = segmentFromColumns(segStart, segEnd, segDup)
		if err := n.AddNode(&nd); err != nil {
			return nil, fmt.Errorf("store: add node %d: %w", nd.ID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: nodes: %w", err)
	}

	// 2. Edges.
	erows, err := s.db.Query(`
		SELECT u, v, weft, warp, seg_start, seg_end, seg_dup, geo
		FROM edges WHERE network_id = ? ORDER BY u, v
	`, id)
	if err != nil {
		return nil, fmt.Errorf("store: query edges: %w", err)
	}
	defer erows.Close()
	for erows.Next() {
		var u, v, weft, warp int
		var segStart, segEnd, segDup sql.NullInt64
		var geoJSON string
		if err := erows.Scan(&u, &v, &weft, &warp, &segStart, &segEnd, &segDup, &geoJSON); err != nil {
			return nil, fmt.Errorf("store: scan edge: %w", err)
		}
		geo, err := unmarshalGeometry(geoJSON)
		if err != nil {
			return nil, fmt.Errorf("store: edge (%d,%d) geometry: %w", u, v, err)
		}
		opts := []core.EdgeOption{core.WithGeometry(geo)}
		if weft != 0 {
			opts = append(opts, core.AsWeft())
		}
		if warp != 0 {
			opts = append(opts, core.AsWarp())
		}
		if seg := segmentFromColumns(segStart, segEnd, segDup); seg != nil {
			opts = append(opts, core.WithSegment(*seg))
		}
		if _, err := n.AddEdge(u, v, opts...); err != nil {
			return nil, fmt.Errorf("store: add edge (%d,%d): %w", u, v, err)
		}
	}
	if err := erows.Err(); err != nil {
		return nil, fmt.Errorf("store: edges: %w", err)
	}

	return n, nil
}

// ListNetworks returns the stored network names in lexical order.
func (s *Store) ListNetworks() ([]string, error) {
	return s.listNames("SELECT name FROM networks ORDER BY name")
}

// DeleteNetwork removes the network stored under name along with its
// node and edge rows.
func (s *Store) DeleteNetwork(name string) error {
	res, err := s.db.Exec("DELETE FROM networks WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("store: delete network %q: %w", name, err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return fmt.Errorf("%w: network %q", ErrNotFound, name)
	}

	return nil
}

// SaveMatrix stores the pattern matrix under name, replacing any
// previous matrix with that name.
func (s *Store) SaveMatrix(name string, m pattern.Matrix) error {
	data, err := json.Marshal([][]int(m))
	if err != nil {
		return fmt.Errorf("store: encode matrix %q: %w", name, err)
	}
	_, err = s.db.Exec("INSERT OR REPLACE INTO matrices (name, data) VALUES (?, ?)",
		name, string(data))
	if err != nil {
		return fmt.Errorf("store: insert matrix %q: %w", name, err)
	}

	return nil
}

// LoadMatrix returns the pattern matrix stored under name.
func (s *Store) LoadMatrix(name string) (pattern.Matrix, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM matrices WHERE name = ?", name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: matrix %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("store: query matrix %q: %w", name, err)
	}
	var rows [][]int
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, fmt.Errorf("store: decode matrix %q: %w", name, err)
	}

	return pattern.Matrix(rows), nil
}

// ListMatrices returns the stored matrix names in lexical order.
func (s *Store) ListMatrices() ([]string, error) {
	return s.listNames("SELECT name FROM matrices ORDER BY name")
}

func (s *Store) listNames(query string) ([]string, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: scan name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}

	return names, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func segmentColumns(s *core.SegmentID) (start, end, dup sql.NullInt64) {
	if s == nil {
		return
	}
	start = sql.NullInt64{Int64: int64(s.Start), Valid: true}
	end = sql.NullInt64{Int64: int64(s.End), Valid: true}
	dup = sql.NullInt64{Int64: int64(s.Dup), Valid: true}

	return
}

func segmentFromColumns(start, end, dup sql.NullInt64) *core.SegmentID {
	if !start.Valid {
		return nil
	}

	return &core.SegmentID{Start: int(start.Int64), End: int(end.Int64), Dup: int(dup.Int64)}
}

func marshalGeometry(pl geom.Polyline) (string, error) {
	pts := make([][3]float64, len(pl))
	for i, p := range pl {
		pts[i] = [3]float64{p.X, p.Y, p.Z}
	}
	data, err := json.Marshal(pts)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func unmarshalGeometry(data string) (geom.Polyline, error) {
	var pts [][3]float64
	if err := json.Unmarshal([]byte(data), &pts); err != nil {
		return nil, err
	}
	pl := make(geom.Polyline, len(pts))
	for i, p := range pts {
		pl[i] = geom.Point{X: p[0], Y: p[1], Z: p[2]}
	}

	return pl, nil
}
