package store

import (
	"fmt"
)

// Stats holds aggregate figures over the projects table
type Stats struct {
	Total           int     `json:"total"`
	Analyzed        int     `json:"analyzed"`
	Processed       int     `json:"processed"`
	Migrated        int     `json:"migrated"`
	MigrationFailed int     `json:"migration_failed"`
	AvgComplexity   float64 `json:"avg_complexity"`
	MinComplexity   float64 `json:"min_complexity"`
	MaxComplexity   float64 `json:"max_complexity"`
	TotalFileSize   int64   `json:"total_file_size"`
	TotalAudioSize  int64   `json:"total_audio_size"`
	TotalDuration   float64 `json:"total_duration_seconds"`
}

// Remaining is the number of classified projects not yet migrated
func (st *Stats) Remaining() int {
	return st.Processed - st.Migrated
}

// GroupCount is one row of a breakdown
type GroupCount struct {
	Key           string  `json:"key"`
	Count         int     `json:"count"`
	AvgComplexity float64 `json:"avg_complexity"`
	AvgPriority   float64 `json:"avg_priority"`
	TotalAudio    int64   `json:"total_audio_size"`
}

// Stats returns database-wide aggregates
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{}
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(analyzed), 0),
			COALESCE(SUM(processed), 0),
			COALESCE(SUM(migrated), 0),
			COALESCE(SUM(migration_failed), 0),
			COALESCE(AVG(CASE WHEN analyzed = 1 THEN complexity_score END), 0),
			COALESCE(MIN(CASE WHEN analyzed = 1 THEN complexity_score END), 0),
			COALESCE(MAX(CASE WHEN analyzed = 1 THEN complexity_score END), 0),
			COALESCE(SUM(file_size), 0),
			COALESCE(SUM(audio_folder_size), 0),
			COALESCE(SUM(duration_seconds), 0)
		FROM projects
	`).Scan(
		&st.Total, &st.Analyzed, &st.Processed, &st.Migrated, &st.MigrationFailed,
		&st.AvgComplexity, &st.MinComplexity, &st.MaxComplexity,
		&st.TotalFileSize, &st.TotalAudioSize, &st.TotalDuration,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return st, nil
}

// CategoryBreakdown groups classified projects by category, ordered by
// average priority so the first row is the first migration wave
func (s *Store) CategoryBreakdown() ([]GroupCount, error) {
	return s.breakdown(`
		SELECT category, COUNT(*), AVG(complexity_score), AVG(usage_priority), COALESCE(SUM(audio_folder_size), 0)
		FROM projects
		WHERE processed = 1
		GROUP BY category
		ORDER BY AVG(usage_priority) DESC, category
	`)
}

// CompletionBreakdown groups analysed projects by completion status
func (s *Store) CompletionBreakdown() ([]GroupCount, error) {
	return s.breakdown(`
		SELECT completion_status, COUNT(*), AVG(complexity_score), COALESCE(AVG(usage_priority), 0), COALESCE(SUM(audio_folder_size), 0)
		FROM projects
		WHERE analyzed = 1
		GROUP BY completion_status
		ORDER BY COUNT(*) DESC, completion_status
	`)
}

// PhaseBreakdown groups analysed projects by their phase directory
func (s *Store) PhaseBreakdown() ([]GroupCount, error) {
	return s.breakdown(`
		SELECT phase, COUNT(*), AVG(complexity_score), COALESCE(AVG(usage_priority), 0), COALESCE(SUM(audio_folder_size), 0)
		FROM projects
		WHERE analyzed = 1
		GROUP BY phase
		ORDER BY COUNT(*) DESC, phase
	`)
}

// TopByComplexity returns the most complex analysed projects
func (s *Store) TopByComplexity(limit int) ([]*Project, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryProjects(
		"SELECT "+projectColumns+" FROM projects WHERE analyzed = 1 ORDER BY complexity_score DESC, id ASC LIMIT ?",
		limit,
	)
}

func (s *Store) breakdown(query string) ([]GroupCount, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query breakdown: %w", err)
	}
	defer rows.Close()

	var groups []GroupCount
	for rows.Next() {
		var g GroupCount
		if err := rows.Scan(&g.Key, &g.Count, &g.AvgComplexity, &g.AvgPriority, &g.TotalAudio); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}
