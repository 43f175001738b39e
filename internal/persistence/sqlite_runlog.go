package persistence

import (
	"database/sql"
	"time"

	"github.com/lightwave-lab/ndsweep/pkg/api"
)

// SQLiteRunLog stores gather run records in SQLite.
type SQLiteRunLog struct {
	db *sql.DB
}

var _ RunLog = (*SQLiteRunLog)(nil)

func NewSQLiteRunLog(db *sql.DB) (*SQLiteRunLog, error) {
	s := &SQLiteRunLog{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteRunLog) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sweep_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sweep_name TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL DEFAULT 0,
			points INTEGER NOT NULL DEFAULT 0,
			total INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_sweep_runs_name ON sweep_runs(sweep_name, id);
	`)
	return err
}

func (s *SQLiteRunLog) BeginRun(sweep string, total int) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO sweep_runs (sweep_name, started_at, total, status)
		VALUES (?, ?, ?, ?)`,
		sweep, time.Now().UnixMilli(), total, api.RunRunning,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteRunLog) FinishRun(id int64, points int, status, errMsg string) error {
	res, err := s.db.Exec(`
		UPDATE sweep_runs
		SET finished_at = ?, points = ?, status = ?, error = ?
		WHERE id = ?`,
		time.Now().UnixMilli(), points, status, errMsg, id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSweepNotFound
	}
	return nil
}

func (s *SQLiteRunLog) ListRuns(sweep string) ([]api.RunRecord, error) {
	query := `
		SELECT id, sweep_name, started_at, finished_at, points, total, status, error
		FROM sweep_runs`
	var args []any
	if sweep != "" {
		query += ` WHERE sweep_name = ?`
		args = append(args, sweep)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []api.RunRecord
	for rows.Next() {
		var r api.RunRecord
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.Sweep, &started, &finished, &r.Points, &r.Total, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started)
		if finished != 0 {
			r.FinishedAt = time.UnixMilli(finished)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
