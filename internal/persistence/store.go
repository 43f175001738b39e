// Package persistence holds the sweep storage backends: JSON files for
// human-inspectable saves and a SQLite archive for named grid snapshots
// plus an append-only run log.
package persistence

import (
	"errors"

	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// ErrSweepNotFound is returned when a named snapshot is not in the store.
var ErrSweepNotFound = errors.New("sweep not found")

// GridStore persists named grid snapshots.
type GridStore interface {
	SaveGrid(name string, g *api.Grid) error
	LoadGrid(name string) (*api.Grid, error)
	ListGrids() ([]string, error)
}

// RunLog is an append-only history of gather runs.
type RunLog interface {
	BeginRun(sweep string, total int) (int64, error)
	FinishRun(id int64, points int, status, errMsg string) error
	ListRuns(sweep string) ([]api.RunRecord, error)
}

// NoopRunLog discards all run records.
type NoopRunLog struct{}

func (NoopRunLog) BeginRun(sweep string, total int) (int64, error)        { return 0, nil }
func (NoopRunLog) FinishRun(id int64, points int, status, e string) error { return nil }
func (NoopRunLog) ListRuns(sweep string) ([]api.RunRecord, error)         { return nil, nil }
