package ndsweep

import (
	"database/sql"

	"github.com/lightwave-lab/ndsweep/internal/persistence"
	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// Archive stores named grid snapshots and a run log in one database, so
// a lab machine keeps a browsable history of what was swept and when.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:sweeps.db?_journal=WAL")
//	arch, err := ndsweep.OpenArchive(db)
//	swp.SetArchive(arch)             // run log entries per gather
//	...
//	arch.SaveGrid("gain-map-v2", swp.Grid())
type Archive struct {
	grids persistence.GridStore
	runs  persistence.RunLog
}

// OpenArchive initializes the archive schema in the given database. The
// caller imports the SQLite driver, e.g.:
//
//	import _ "modernc.org/sqlite"
func OpenArchive(db *sql.DB) (*Archive, error) {
	grids, err := persistence.NewSQLiteGridStore(db)
	if err != nil {
		return nil, err
	}
	runs, err := persistence.NewSQLiteRunLog(db)
	if err != nil {
		return nil, err
	}
	return &Archive{grids: grids, runs: runs}, nil
}

// NewMemoryArchive returns an archive backed entirely by memory.
// Non-durable; best for tests.
func NewMemoryArchive() *Archive {
	mem := persistence.NewInMemoryStore()
	return &Archive{grids: mem, runs: mem}
}

// SaveGrid stores a grid snapshot under name, replacing any previous one.
func (a *Archive) SaveGrid(name string, g *api.Grid) error {
	return a.grids.SaveGrid(name, g)
}

// LoadGrid retrieves a snapshot by name. The error wraps a not-found
// sentinel exposed as ErrSweepNotFound.
func (a *Archive) LoadGrid(name string) (*api.Grid, error) {
	return a.grids.LoadGrid(name)
}

// ListGrids returns the stored snapshot names.
func (a *Archive) ListGrids() ([]string, error) {
	return a.grids.ListGrids()
}

// Runs returns the run log, optionally filtered by sweep name; an empty
// name returns everything.
func (a *Archive) Runs(sweep string) ([]api.RunRecord, error) {
	return a.runs.ListRuns(sweep)
}

// ErrSweepNotFound is returned by LoadGrid for unknown snapshot names.
var ErrSweepNotFound = persistence.ErrSweepNotFound
