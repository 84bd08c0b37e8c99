package store

// Schema v1 - projects table keyed by unique file path, plus scan run bookkeeping
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS projects (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  file_path TEXT UNIQUE NOT NULL,
  project_name TEXT NOT NULL,
  content_hash TEXT,
  live_version TEXT,
  phase TEXT NOT NULL DEFAULT '',
  file_size INTEGER,
  audio_folder_size INTEGER,
  last_modified_unix INTEGER,

  track_count INTEGER,
  audio_track_count INTEGER,
  midi_track_count INTEGER,
  plugin_count INTEGER,
  effect_count INTEGER,
  clip_count INTEGER,
  session_clip_count INTEGER,
  arrangement_clip_count INTEGER,

  tempo REAL,
  key_signature TEXT,
  duration_beats REAL,
  arrangement_duration_beats REAL,
  duration_seconds REAL,

  has_midi_tracks INTEGER NOT NULL DEFAULT 0,
  has_audio_tracks INTEGER NOT NULL DEFAULT 0,
  has_automation INTEGER NOT NULL DEFAULT 0,
  has_arrangement INTEGER NOT NULL DEFAULT 0,
  session_only INTEGER NOT NULL DEFAULT 0,

  complexity_score REAL CHECK (complexity_score IS NULL OR (complexity_score >= 0 AND complexity_score <= 100)),
  completion_status TEXT,
  category TEXT,
  usage_priority INTEGER CHECK (usage_priority IS NULL OR (usage_priority >= 0 AND usage_priority <= 100)),

  analyzed INTEGER NOT NULL DEFAULT 0,
  processed INTEGER NOT NULL DEFAULT 0,
  migrated INTEGER NOT NULL DEFAULT 0,
  migration_failed INTEGER NOT NULL DEFAULT 0,
  migration_error TEXT,

  analyzed_at_unix INTEGER,
  classified_at_unix INTEGER,
  migrated_at_unix INTEGER,

  CHECK (NOT (has_arrangement = 1 AND session_only = 1)),
  CHECK (processed = 0 OR (category IS NOT NULL AND usage_priority IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_projects_analyzed ON projects(analyzed);
CREATE INDEX IF NOT EXISTS idx_projects_queue ON projects(processed, usage_priority DESC);
CREATE INDEX IF NOT EXISTS idx_projects_category ON projects(category);
CREATE INDEX IF NOT EXISTS idx_projects_phase ON projects(phase);

CREATE TABLE IF NOT EXISTS scan_runs (
  run_id TEXT PRIMARY KEY,
  root TEXT NOT NULL,
  workers INTEGER,
  started_at_unix INTEGER NOT NULL,
  finished_at_unix INTEGER,
  total INTEGER NOT NULL DEFAULT 0,
  succeeded INTEGER NOT NULL DEFAULT 0,
  failed INTEGER NOT NULL DEFAULT 0
);
`
