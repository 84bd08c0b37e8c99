package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/franz/project-janitor/internal/util"
)

// QueueOptions filters the migration queue
type QueueOptions struct {
	Category    string // empty means all categories
	Limit       int    // <= 0 means unlimited
	PendingOnly bool   // skip projects already migrated
}

// MigrationQueue returns classified projects ordered by usage priority
// (highest first), ties broken by id
func (s *Store) MigrationQueue(opts QueueOptions) ([]*Project, error) {
	where := []string{"processed = 1"}
	args := []any{}

	if opts.Category != "" {
		where = append(where, "category = ?")
		args = append(args, opts.Category)
	}
	if opts.PendingOnly {
		where = append(where, "migrated = 0")
	}

	query := "SELECT " + projectColumns + " FROM projects WHERE " +
		strings.Join(where, " AND ") +
		" ORDER BY usage_priority DESC, id ASC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	return s.queryProjects(query, args...)
}

// SetMigrationResult records the outcome of moving a project
func (s *Store) SetMigrationResult(path string, ok bool, errMsg string) error {
	var (
		migrated, failed int
		msg              any
		at               any
	)
	if ok {
		migrated = 1
		at = time.Now().Unix()
	} else {
		failed = 1
		msg = errMsg
	}

	result, err := s.db.Exec(`
		UPDATE projects
		SET migrated = ?, migration_failed = ?, migration_error = ?, migrated_at_unix = ?
		WHERE file_path = ?
	`, migrated, failed, msg, at, path)
	if err != nil {
		return fmt.Errorf("failed to record migration result: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check migration update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: project %s", util.ErrNotFound, path)
	}

	return nil
}
