package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/project-janitor/internal/util"
)

// Assignment is the classification outcome for one project
type Assignment struct {
	Category string
	Priority int
}

// ClassifyFunc computes the assignment for an analysed project
type ClassifyFunc func(p *Project) (Assignment, error)

// ClassifyAll re-classifies every analysed project inside one transaction.
// Previous results are cleared first so the pass is idempotent. Any error,
// including a row missing a required field, rolls the whole pass back.
func (s *Store) ClassifyAll(fn ClassifyFunc) (int, error) {
	var classified int

	err := s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			UPDATE projects
			SET processed = 0, category = NULL, usage_priority = NULL, classified_at_unix = NULL
		`); err != nil {
			return fmt.Errorf("failed to reset classifications: %w", err)
		}

		projects, err := loadClassifiable(tx)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			UPDATE projects
			SET category = ?, usage_priority = ?, processed = 1, classified_at_unix = ?
			WHERE id = ?
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare classification update: %w", err)
		}
		defer stmt.Close()

		now := time.Now().Unix()
		for _, p := range projects {
			a, err := fn(p)
			if err != nil {
				return fmt.Errorf("failed to classify %s: %w", p.FilePath, err)
			}
			if a.Category == "" || a.Priority < 0 || a.Priority > 100 {
				return fmt.Errorf("%w: invalid assignment %q/%d for %s",
					util.ErrInvariant, a.Category, a.Priority, p.FilePath)
			}
			if _, err := stmt.Exec(a.Category, a.Priority, now, p.ID); err != nil {
				return fmt.Errorf("failed to store classification for %s: %w", p.FilePath, err)
			}
			classified++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return classified, nil
}

// loadClassifiable reads every analysed row within tx, rejecting rows that
// lack a field the classifier depends on
func loadClassifiable(tx *sql.Tx) ([]*Project, error) {
	rows, err := tx.Query(`
		SELECT ` + projectColumns + `,
			complexity_score IS NULL OR completion_status IS NULL OR duration_seconds IS NULL
			OR track_count IS NULL OR audio_folder_size IS NULL OR last_modified_unix IS NULL
		FROM projects
		WHERE analyzed = 1
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysed projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var missing bool
		p, err := scanProject(withExtra(rows, &missing))
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if missing {
			return nil, fmt.Errorf("%w: analysed project %s is missing derived fields",
				util.ErrInvariant, p.FilePath)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return projects, nil
}

// extraScanner appends additional destinations after the project columns
type extraScanner struct {
	row   rowScanner
	extra []any
}

func withExtra(row rowScanner, extra ...any) rowScanner {
	return extraScanner{row: row, extra: extra}
}

func (e extraScanner) Scan(dest ...any) error {
	return e.row.Scan(append(dest, e.extra...)...)
}
