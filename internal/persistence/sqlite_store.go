package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// SQLiteGridStore is a GridStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing the
// driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteGridStore struct {
	db *sql.DB
}

var _ GridStore = (*SQLiteGridStore)(nil)

// NewSQLiteGridStore initializes the required schema in the given
// database and returns a new SQLiteGridStore.
func NewSQLiteGridStore(db *sql.DB) (*SQLiteGridStore, error) {
	s := &SQLiteGridStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteGridStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sweep_grids (
			name TEXT PRIMARY KEY,
			shape TEXT NOT NULL,
			keys TEXT NOT NULL,
			points INTEGER NOT NULL,
			complete INTEGER NOT NULL,
			columns BLOB
		);`,
	)
	return err
}

// SaveGrid stores a snapshot under name, replacing any previous snapshot
// with the same name.
func (s *SQLiteGridStore) SaveGrid(name string, g *api.Grid) error {
	shape, err := json.Marshal([]int(g.Shape()))
	if err != nil {
		return err
	}
	keys, err := json.Marshal(g.Keys())
	if err != nil {
		return err
	}
	cols := make(map[string][]any, len(g.Keys()))
	for _, k := range g.Keys() {
		col, err := g.Column(k)
		if err != nil {
			return err
		}
		cols[k] = col
	}
	blob, err := EncodeColumns(cols)
	if err != nil {
		return err
	}

	complete := 0
	if g.Complete() {
		complete = 1
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO sweep_grids (name, shape, keys, points, complete, columns)
		VALUES (?, ?, ?, ?, ?, ?)`,
		name, string(shape), string(keys), g.Points(), complete, blob,
	)
	return err
}

func (s *SQLiteGridStore) LoadGrid(name string) (*api.Grid, error) {
	row := s.db.QueryRow(`
		SELECT shape, keys, points, complete, columns
		FROM sweep_grids
		WHERE name = ?`,
		name,
	)

	var shapeJSON, keysJSON string
	var points, complete int
	var blob []byte
	if err := row.Scan(&shapeJSON, &keysJSON, &points, &complete, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSweepNotFound
		}
		return nil, err
	}

	var shape []int
	if err := json.Unmarshal([]byte(shapeJSON), &shape); err != nil {
		return nil, err
	}
	var keys []string
	if err := json.Unmarshal([]byte(keysJSON), &keys); err != nil {
		return nil, err
	}
	cols, err := DecodeColumns(blob)
	if err != nil {
		return nil, err
	}

	return api.RestoredGrid(api.Shape(shape), keys, cols, points, complete == 1)
}

func (s *SQLiteGridStore) ListGrids() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM sweep_grids ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
