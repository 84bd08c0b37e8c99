package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/franz/project-janitor/internal/meta/alstest"
	"github.com/franz/project-janitor/internal/store"
	"github.com/franz/project-janitor/internal/util"
)

func TestIsProjectFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"Song.als", true},
		{"Song.ALS", true}, // Case insensitive
		{"/music/Phases/Phase 1/Song.als", true},
		{"Song.alc", false},
		{"Song.als.bak", false},
		{"._Song.als", false},
		{"Song", false},
	}

	for _, tt := range tests {
		if got := IsProjectFile(tt.path); got != tt.expected {
			t.Errorf("IsProjectFile(%s) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	set := alstest.Arranged(1, 16)

	files := []string{
		"Phases/Phase 1/B Project/B.als",
		"Phases/Phase 1/A Project/A.ALS",
		"Phases/Phase 2/C Project/C.als",
		"Phases/Phase 2/C Project/Backup/C [2024-01-01 120000].als",
		"Phases/Phase 2/C Project/backup/C old.als",
		"_BACKUP_PHASES/Phase 1/A Project/A.als",
		"Loose.als",
	}
	for _, f := range files {
		alstest.Write(t, filepath.Join(root, f), set)
	}
	os.WriteFile(filepath.Join(root, "Phases", "notes.txt"), []byte("hi"), 0o644)
	os.WriteFile(filepath.Join(root, "._Loose.als"), []byte("resource fork"), 0o644)

	paths, err := Discover(context.Background(), root, DefaultExclude)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	want := []string{
		filepath.Join(root, "Loose.als"),
		filepath.Join(root, "Phases/Phase 1/A Project/A.ALS"),
		filepath.Join(root, "Phases/Phase 1/B Project/B.als"),
		filepath.Join(root, "Phases/Phase 2/C Project/C.als"),
	}
	if len(paths) != len(want) {
		t.Fatalf("Discover returned %d paths, want %d: %v", len(paths), len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(context.Background(), filepath.Join(t.TempDir(), "gone"), nil)
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDiscoverRootIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.als")
	alstest.Write(t, path, alstest.Set{})

	_, err := Discover(context.Background(), path, nil)
	if !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestScanIsolatesCorruptFile(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "state.db")

	var corrupt string
	for i := 1; i <= 100; i++ {
		path := filepath.Join(root, "Phases", "Phase 1", fmt.Sprintf("Song %03d Project", i), fmt.Sprintf("Song %03d.als", i))
		if i == 37 {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte{0x1f, 0x8b, 0xde, 0xad, 0xbe, 0xef}, 0o644); err != nil {
				t.Fatal(err)
			}
			corrupt = path
			continue
		}
		alstest.Write(t, path, alstest.Arranged(1+i%6, float64(16*(1+i%4))))
	}

	scanner := New(&Config{DBPath: dbPath, Workers: 4})
	result, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if result.Total != 100 || result.Succeeded != 99 || result.Failed != 1 {
		t.Errorf("got total=%d succeeded=%d failed=%d, want 100/99/1", result.Total, result.Succeeded, result.Failed)
	}
	if len(result.Failures) != 1 || result.Failures[0].Path != corrupt {
		t.Fatalf("unexpected failures: %+v", result.Failures)
	}
	if !errors.Is(result.Failures[0].Err, util.ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", result.Failures[0].Err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	analyzed, err := db.ListAnalyzed()
	if err != nil {
		t.Fatalf("ListAnalyzed failed: %v", err)
	}
	if len(analyzed) != 99 {
		t.Errorf("store has %d analyzed rows, want 99", len(analyzed))
	}
	if _, err := db.GetProject(corrupt); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("corrupt file should not be stored, got %v", err)
	}

	for _, p := range analyzed {
		if p.ComplexityScore < 0 || p.ComplexityScore > 100 {
			t.Errorf("%s: complexity %v out of range", p.FilePath, p.ComplexityScore)
		}
		if p.HasArrangement && p.SessionOnly {
			t.Errorf("%s: both has_arrangement and session_only", p.FilePath)
		}
		if p.Phase != "Phase 1" {
			t.Errorf("%s: phase = %q, want Phase 1", p.FilePath, p.Phase)
		}
	}

	run, err := db.LastRun()
	if err != nil {
		t.Fatalf("LastRun failed: %v", err)
	}
	if run.RunID != result.RunID || run.Succeeded != 99 || run.Failed != 1 {
		t.Errorf("unexpected run record: %+v", run)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "state.db")

	for i := 0; i < 5; i++ {
		alstest.Write(t, filepath.Join(root, fmt.Sprintf("p%d", i), "p.als"), alstest.Arranged(i+1, 64))
	}

	scanner := New(&Config{DBPath: dbPath, Workers: 2})
	if _, err := scanner.Scan(context.Background(), root); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	first, _ := db.ListAnalyzed()

	if _, err := scanner.Scan(context.Background(), root); err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	second, _ := db.ListAnalyzed()

	if len(first) != 5 || len(second) != 5 {
		t.Fatalf("expected 5 rows after both scans, got %d and %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.ID != b.ID || a.ContentHash != b.ContentHash || a.ComplexityScore != b.ComplexityScore ||
			a.CompletionStatus != b.CompletionStatus || a.DurationBeats != b.DurationBeats || a.ClipCount != b.ClipCount {
			t.Errorf("row %d changed between scans: %+v vs %+v", i, a, b)
		}
	}
}

func TestRescan(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "state.db")
	path := filepath.Join(root, "Song Project", "Song.als")

	alstest.Write(t, path, alstest.Arranged(2, 16))

	scanner := New(&Config{DBPath: dbPath, Workers: 1})
	if _, err := scanner.Scan(context.Background(), root); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	alstest.Write(t, path, alstest.Arranged(6, 128))
	result, err := scanner.Rescan(context.Background(), []string{path, filepath.Join(root, "missing.als")})
	if err != nil {
		t.Fatalf("rescan failed: %v", err)
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("rescan got %d/%d, want 1 succeeded 1 failed", result.Succeeded, result.Failed)
	}
	if !errors.Is(result.Failures[0].Err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing file, got %v", result.Failures[0].Err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	p, err := db.GetProject(path)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if p.TrackCount != 6 || p.DurationBeats != 128 {
		t.Errorf("rescan did not update row: tracks=%d beats=%v", p.TrackCount, p.DurationBeats)
	}
}

func TestScanResolvesRelativeRoot(t *testing.T) {
	dir := t.TempDir()
	alstest.Write(t, filepath.Join(dir, "archive", "Song.als"), alstest.Arranged(1, 16))
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	want, err := filepath.Abs("archive")
	if err != nil {
		t.Fatalf("failed to resolve expected root: %v", err)
	}

	scanner := New(&Config{DBPath: filepath.Join(t.TempDir(), "state.db"), Workers: 1})
	result, err := scanner.Scan(context.Background(), "archive")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.Root != want {
		t.Errorf("Root = %q, want %q", result.Root, want)
	}
	if result.Succeeded != 1 {
		t.Errorf("expected 1 analyzed project, got %d", result.Succeeded)
	}
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 3; i++ {
		alstest.Write(t, filepath.Join(root, fmt.Sprintf("p%d.als", i)), alstest.Arranged(1, 16))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := New(&Config{DBPath: filepath.Join(t.TempDir(), "state.db"), Workers: 2})
	if _, err := scanner.Scan(ctx, root); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAnalyzeFileScores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Song.als")
	set := alstest.Set{Tempo: "120"}
	for i := 0; i < 8; i++ {
		track := alstest.Track{
			Audio:            i < 4,
			Automation:       i == 0,
			ArrangementClips: []alstest.Clip{{Start: 0, End: 160}},
		}
		if i < 3 {
			track.Plugins = 1
		}
		if i < 4 {
			track.AudioEffects = 1
		}
		set.Tracks = append(set.Tracks, track)
	}
	alstest.Write(t, path, set)

	p, err := AnalyzeFile(path)
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}
	if p.PluginCount != 3 || p.TrackCount != 8 || p.EffectCount != 4 {
		t.Fatalf("unexpected counts: plugins=%d tracks=%d effects=%d", p.PluginCount, p.TrackCount, p.EffectCount)
	}
	if p.CompletionStatus != "complete" {
		t.Errorf("CompletionStatus = %q (complexity %.2f), want complete", p.CompletionStatus, p.ComplexityScore)
	}
}
