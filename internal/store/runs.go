package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/project-janitor/internal/util"
)

// Run records one scan pass over a source tree
type Run struct {
	RunID      string    `json:"run_id"`
	Root       string    `json:"root"`
	Workers    int       `json:"workers"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// StartRun inserts a new scan run
func (s *Store) StartRun(run *Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO scan_runs (run_id, root, workers, started_at_unix)
		VALUES (?, ?, ?, ?)
	`, run.RunID, run.Root, run.Workers, run.StartedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of a scan run
func (s *Store) FinishRun(run *Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	_, err := s.db.Exec(`
		UPDATE scan_runs
		SET finished_at_unix = ?, total = ?, succeeded = ?, failed = ?
		WHERE run_id = ?
	`, run.FinishedAt.Unix(), run.Total, run.Succeeded, run.Failed, run.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// LastRun returns the most recently started scan run, or ErrNotFound
func (s *Store) LastRun() (*Run, error) {
	var (
		run      Run
		workers  sql.NullInt64
		started  int64
		finished sql.NullInt64
	)
	err := s.db.QueryRow(`
		SELECT run_id, root, workers, started_at_unix, finished_at_unix, total, succeeded, failed
		FROM scan_runs
		ORDER BY started_at_unix DESC, rowid DESC
		LIMIT 1
	`).Scan(&run.RunID, &run.Root, &workers, &started, &finished, &run.Total, &run.Succeeded, &run.Failed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no scan runs recorded", util.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	run.Workers = int(workers.Int64)
	run.StartedAt = time.Unix(started, 0)
	run.FinishedAt = unixTime(finished)
	return &run, nil
}
