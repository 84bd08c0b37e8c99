package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/project-janitor/internal/util"
)

// Project represents one analysed Live set, keyed by its absolute file path
type Project struct {
	ID              int64
	FilePath        string
	ProjectName     string
	ContentHash     string
	LiveVersion     string
	Phase           string
	FileSize        int64
	AudioFolderSize int64
	LastModified    time.Time

	TrackCount           int
	AudioTrackCount      int
	MidiTrackCount       int
	PluginCount          int
	EffectCount          int
	ClipCount            int
	SessionClipCount     int
	ArrangementClipCount int

	Tempo                    float64
	KeySignature             string
	DurationBeats            float64
	ArrangementDurationBeats float64
	DurationSeconds          float64

	HasMidiTracks  bool
	HasAudioTracks bool
	HasAutomation  bool
	HasArrangement bool
	SessionOnly    bool

	ComplexityScore  float64
	CompletionStatus string

	// Classification results; only meaningful when Processed is set
	Category      string
	UsagePriority int

	Analyzed        bool
	Processed       bool
	Migrated        bool
	MigrationFailed bool
	MigrationError  string

	AnalyzedAt   time.Time
	ClassifiedAt time.Time
	MigratedAt   time.Time
}

// DurationMinutes returns the project length in minutes
func (p *Project) DurationMinutes() float64 {
	return p.DurationSeconds / 60
}

const projectColumns = `
	id, file_path, project_name, content_hash, live_version, phase,
	file_size, audio_folder_size, last_modified_unix,
	track_count, audio_track_count, midi_track_count, plugin_count, effect_count,
	clip_count, session_clip_count, arrangement_clip_count,
	tempo, key_signature, duration_beats, arrangement_duration_beats, duration_seconds,
	has_midi_tracks, has_audio_tracks, has_automation, has_arrangement, session_only,
	complexity_score, completion_status, category, usage_priority,
	analyzed, processed, migrated, migration_failed, migration_error,
	analyzed_at_unix, classified_at_unix, migrated_at_unix
`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanProject reads one row selected with projectColumns
func scanProject(row rowScanner) (*Project, error) {
	var (
		p                                                      Project
		contentHash, liveVersion, keySig, completion, category sql.NullString
		migrationError                                         sql.NullString
		fileSize, audioSize, lastMod                           sql.NullInt64
		tracks, audioTracks, midiTracks, plugins, effects      sql.NullInt64
		clips, sessionClips, arrangementClips                  sql.NullInt64
		priority, analyzedAt, classifiedAt, migratedAt         sql.NullInt64
		tempo, beats, arrangementBeats, seconds, complexity    sql.NullFloat64
	)

	err := row.Scan(
		&p.ID, &p.FilePath, &p.ProjectName, &contentHash, &liveVersion, &p.Phase,
		&fileSize, &audioSize, &lastMod,
		&tracks, &audioTracks, &midiTracks, &plugins, &effects,
		&clips, &sessionClips, &arrangementClips,
		&tempo, &keySig, &beats, &arrangementBeats, &seconds,
		&p.HasMidiTracks, &p.HasAudioTracks, &p.HasAutomation, &p.HasArrangement, &p.SessionOnly,
		&complexity, &completion, &category, &priority,
		&p.Analyzed, &p.Processed, &p.Migrated, &p.MigrationFailed, &migrationError,
		&analyzedAt, &classifiedAt, &migratedAt,
	)
	if err != nil {
		return nil, err
	}

	p.ContentHash = contentHash.String
	p.LiveVersion = liveVersion.String
	p.KeySignature = keySig.String
	p.CompletionStatus = completion.String
	p.Category = category.String
	p.MigrationError = migrationError.String

	p.FileSize = fileSize.Int64
	p.AudioFolderSize = audioSize.Int64
	p.LastModified = unixTime(lastMod)

	p.TrackCount = int(tracks.Int64)
	p.AudioTrackCount = int(audioTracks.Int64)
	p.MidiTrackCount = int(midiTracks.Int64)
	p.PluginCount = int(plugins.Int64)
	p.EffectCount = int(effects.Int64)
	p.ClipCount = int(clips.Int64)
	p.SessionClipCount = int(sessionClips.Int64)
	p.ArrangementClipCount = int(arrangementClips.Int64)

	p.Tempo = tempo.Float64
	p.DurationBeats = beats.Float64
	p.ArrangementDurationBeats = arrangementBeats.Float64
	p.DurationSeconds = seconds.Float64
	p.ComplexityScore = complexity.Float64
	p.UsagePriority = int(priority.Int64)

	p.AnalyzedAt = unixTime(analyzedAt)
	p.ClassifiedAt = unixTime(classifiedAt)
	p.MigratedAt = unixTime(migratedAt)

	return &p, nil
}

func unixTime(v sql.NullInt64) time.Time {
	if !v.Valid || v.Int64 == 0 {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0)
}

// UpsertProject inserts or replaces the analysis of a project by file path.
// Re-analysis invalidates any previous classification; migration flags are kept.
func (s *Store) UpsertProject(p *Project) error {
	if p.HasArrangement && p.SessionOnly {
		return fmt.Errorf("%w: %s has arrangement and is session-only", util.ErrInvariant, p.FilePath)
	}

	now := time.Now().Unix()
	var lastMod int64
	if !p.LastModified.IsZero() {
		lastMod = p.LastModified.Unix()
	}

	var id int64
	err := s.db.QueryRow(`
		INSERT INTO projects (
			file_path, project_name, content_hash, live_version, phase,
			file_size, audio_folder_size, last_modified_unix,
			track_count, audio_track_count, midi_track_count, plugin_count, effect_count,
			clip_count, session_clip_count, arrangement_clip_count,
			tempo, key_signature, duration_beats, arrangement_duration_beats, duration_seconds,
			has_midi_tracks, has_audio_tracks, has_automation, has_arrangement, session_only,
			complexity_score, completion_status,
			analyzed, processed, category, usage_priority, analyzed_at_unix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 0, NULL, NULL, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			project_name = excluded.project_name,
			content_hash = excluded.content_hash,
			live_version = excluded.live_version,
			phase = excluded.phase,
			file_size = excluded.file_size,
			audio_folder_size = excluded.audio_folder_size,
			last_modified_unix = excluded.last_modified_unix,
			track_count = excluded.track_count,
			audio_track_count = excluded.audio_track_count,
			midi_track_count = excluded.midi_track_count,
			plugin_count = excluded.plugin_count,
			effect_count = excluded.effect_count,
			clip_count = excluded.clip_count,
			session_clip_count = excluded.session_clip_count,
			arrangement_clip_count = excluded.arrangement_clip_count,
			tempo = excluded.tempo,
			key_signature = excluded.key_signature,
			duration_beats = excluded.duration_beats,
			arrangement_duration_beats = excluded.arrangement_duration_beats,
			duration_seconds = excluded.duration_seconds,
			has_midi_tracks = excluded.has_midi_tracks,
			has_audio_tracks = excluded.has_audio_tracks,
			has_automation = excluded.has_automation,
			has_arrangement = excluded.has_arrangement,
			session_only = excluded.session_only,
			complexity_score = excluded.complexity_score,
			completion_status = excluded.completion_status,
			analyzed = 1,
			processed = 0,
			category = NULL,
			usage_priority = NULL,
			classified_at_unix = NULL,
			analyzed_at_unix = excluded.analyzed_at_unix
		RETURNING id
	`,
		p.FilePath, p.ProjectName, p.ContentHash, p.LiveVersion, p.Phase,
		p.FileSize, p.AudioFolderSize, lastMod,
		p.TrackCount, p.AudioTrackCount, p.MidiTrackCount, p.PluginCount, p.EffectCount,
		p.ClipCount, p.SessionClipCount, p.ArrangementClipCount,
		p.Tempo, p.KeySignature, p.DurationBeats, p.ArrangementDurationBeats, p.DurationSeconds,
		p.HasMidiTracks, p.HasAudioTracks, p.HasAutomation, p.HasArrangement, p.SessionOnly,
		p.ComplexityScore, p.CompletionStatus,
		now,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}

	p.ID = id
	p.Analyzed = true
	p.Processed = false
	p.Category = ""
	p.UsagePriority = 0
	p.AnalyzedAt = time.Unix(now, 0)

	return nil
}

// GetProject returns the project stored under path, or ErrNotFound
func (s *Store) GetProject(path string) (*Project, error) {
	row := s.db.QueryRow("SELECT "+projectColumns+" FROM projects WHERE file_path = ?", path)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: project %s", util.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListAnalyzed returns all analysed projects ordered by id
func (s *Store) ListAnalyzed() ([]*Project, error) {
	return s.queryProjects("SELECT " + projectColumns + " FROM projects WHERE analyzed = 1 ORDER BY id")
}

// CountProjects returns the number of stored rows
func (s *Store) CountProjects() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}

// DeleteProject removes a project row; a missing row is not an error
func (s *Store) DeleteProject(path string) error {
	if _, err := s.db.Exec("DELETE FROM projects WHERE file_path = ?", path); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (s *Store) queryProjects(query string, args ...any) ([]*Project, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}
