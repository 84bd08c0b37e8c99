package classify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/project-janitor/internal/report"
	"github.com/franz/project-janitor/internal/score"
	"github.com/franz/project-janitor/internal/store"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestClassifier() *Classifier {
	return New(&Config{Now: func() time.Time { return fixedNow }})
}

func project(status string, complexity, seconds float64) *store.Project {
	return &store.Project{
		FilePath:         "/music/x.als",
		CompletionStatus: status,
		ComplexityScore:  complexity,
		DurationSeconds:  seconds,
		LastModified:     fixedNow,
	}
}

func TestMatchTable(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name         string
		project      *store.Project
		wantCategory string
		wantFallback bool
	}{
		{"complete and complex", project(score.Complete, 75, 200), "production_ready", false},
		{"first declared wins on overlap", project(score.Complete, 60, 200), "production_ready", false},
		{"complete but simple", project(score.Complete, 40, 60), "finished_experiments", false},
		{"active over development", project(score.WorkInProgress, 50, 90), "active_production", false},
		{"development", project(score.WorkInProgress, 30, 45), "development", false},
		{"complex sketch", project(score.Sketch, 45, 0), "complex_sketches", false},
		{"boundary goes to earlier row", project(score.Idea, 30, 0), "complex_sketches", false},
		{"simple idea", project(score.Idea, 5, 0), "simple_ideas", false},

		{"complete too short and too complex", project(score.Complete, 70, 60), "production_ready", true},
		{"complete too short", project(score.Complete, 20, 10), "finished_experiments", true},
		{"complete at threshold stays below", project(score.Complete, 50, 10), "finished_experiments", true},
		{"wip complex but short", project(score.WorkInProgress, 80, 30), "active_production", true},
		{"wip too simple", project(score.WorkInProgress, 10, 100), "development", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, fallback := c.Match(tt.project)
			require.NotNil(t, cat)
			assert.Equal(t, tt.wantCategory, cat.Name)
			assert.Equal(t, tt.wantFallback, fallback)
		})
	}
}

func TestMatchIsTotal(t *testing.T) {
	c := newTestClassifier()

	for _, status := range score.Statuses {
		for complexity := 0.0; complexity <= 100; complexity += 2.5 {
			for _, seconds := range []float64{0, 15, 29.9, 30, 59, 60, 119, 120, 600} {
				cat, _ := c.Match(project(status, complexity, seconds))
				require.NotNil(t, cat, "status=%s complexity=%v seconds=%v", status, complexity, seconds)
			}
		}
	}
}

func TestPriority(t *testing.T) {
	c := newTestClassifier()
	rules := DefaultRules()

	t.Run("saturated bonuses clamp to 100", func(t *testing.T) {
		p := &store.Project{
			ComplexityScore: 80,
			DurationSeconds: 600,
			AudioFolderSize: 10 << 30,
			TrackCount:      40,
			LastModified:    fixedNow,
		}
		assert.Equal(t, 100, c.Priority(p, rules.Lookup("production_ready")))
	})

	t.Run("small idea", func(t *testing.T) {
		// 5 + 2 + 1.67 + 0 + 1 + 5 = 14.67
		p := &store.Project{
			ComplexityScore: 10,
			DurationSeconds: 60,
			TrackCount:      2,
			LastModified:    fixedNow.Add(-150 * 24 * time.Hour),
		}
		assert.Equal(t, 14, c.Priority(p, rules.Lookup("simple_ideas")))
	})

	t.Run("old files get no recency bonus", func(t *testing.T) {
		p := &store.Project{LastModified: fixedNow.Add(-1000 * 24 * time.Hour)}
		assert.Equal(t, 5, c.Priority(p, rules.Lookup("simple_ideas")))
	})

	t.Run("future modification time is capped", func(t *testing.T) {
		p := &store.Project{LastModified: fixedNow.Add(100 * 24 * time.Hour)}
		assert.Equal(t, 15, c.Priority(p, rules.Lookup("simple_ideas")))
	})

	t.Run("never negative", func(t *testing.T) {
		zero := &Category{Name: "zero", PriorityMultiplier: 0}
		p := &store.Project{ComplexityScore: -50, DurationSeconds: -100, AudioFolderSize: -1, TrackCount: -10}
		got := c.Priority(p, zero)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	})
}

func TestPriorityPrefersLargerAndNewer(t *testing.T) {
	c := newTestClassifier()

	base := func() *store.Project {
		return &store.Project{
			CompletionStatus: score.WorkInProgress,
			ComplexityScore:  45,
			DurationSeconds:  180,
			TrackCount:       12,
		}
	}

	small := base()
	small.AudioFolderSize = 0
	small.LastModified = fixedNow.Add(-400 * 24 * time.Hour)

	large := base()
	large.AudioFolderSize = 5 << 30
	large.LastModified = fixedNow.Add(-5 * 24 * time.Hour)

	smallAssign, _, err := c.Assign(small)
	require.NoError(t, err)
	largeAssign, _, err := c.Assign(large)
	require.NoError(t, err)

	assert.Equal(t, smallAssign.Category, largeAssign.Category)
	assert.Greater(t, largeAssign.Priority, smallAssign.Priority)
}

func TestPriorityUnknownModificationTime(t *testing.T) {
	c := newTestClassifier()
	cat := c.Rules().Lookup("simple_ideas")
	require.NotNil(t, cat)

	fresh := project(score.Sketch, 10, 30)
	unknown := project(score.Sketch, 10, 30)
	unknown.LastModified = time.Time{}

	assert.Equal(t, c.Priority(fresh, cat)-int(recencyBonusMax), c.Priority(unknown, cat))
}

func TestRunLogsOnlyCommittedAssignments(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "rollback.db"))
	require.NoError(t, err)
	defer db.Close()

	// The second row has a status no rule or fallback covers
	require.NoError(t, db.UpsertProject(&store.Project{
		FilePath:         "/music/a.als",
		ProjectName:      "a",
		CompletionStatus: score.Complete,
		ComplexityScore:  80,
		DurationSeconds:  300,
		LastModified:     fixedNow,
	}))
	require.NoError(t, db.UpsertProject(&store.Project{
		FilePath:         "/music/b.als",
		ProjectName:      "b",
		CompletionStatus: score.Idea,
		LastModified:     fixedNow,
	}))

	logDir := t.TempDir()
	logger, err := report.NewEventLogger(logDir, report.LevelDebug)
	require.NoError(t, err)

	rules := &Rules{
		Categories: []Category{{
			Name:               "finished",
			Statuses:           []string{score.Complete},
			ComplexityMax:      100,
			PriorityMultiplier: 1,
		}},
	}
	c := New(&Config{Rules: rules, Now: func() time.Time { return fixedNow }, Logger: logger})

	_, err = c.Run(context.Background(), db)
	require.Error(t, err)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logger.Path())
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "/music/a.als"),
		"rolled back assignment was logged: %s", data)

	p, err := db.GetProject("/music/a.als")
	require.NoError(t, err)
	assert.False(t, p.Processed)
}

func TestRunClassifiesEveryAnalyzedRow(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "classify.db"))
	require.NoError(t, err)
	defer db.Close()

	statuses := score.Statuses
	for i := 0; i < 20; i++ {
		p := &store.Project{
			FilePath:         fmt.Sprintf("/music/p%02d.als", i),
			ProjectName:      fmt.Sprintf("p%02d", i),
			Tempo:            120,
			CompletionStatus: statuses[i%len(statuses)],
			ComplexityScore:  float64(i * 5),
			DurationSeconds:  float64(i * 20),
			TrackCount:       i,
			AudioFolderSize:  int64(i) << 28,
			LastModified:     fixedNow.Add(-time.Duration(i) * 24 * time.Hour),
		}
		require.NoError(t, db.UpsertProject(p))
	}

	c := newTestClassifier()
	result, err := c.Run(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 20, result.Classified)

	total := 0
	for _, n := range result.ByCategory {
		total += n
	}
	assert.Equal(t, 20, total)

	projects, err := db.ListAnalyzed()
	require.NoError(t, err)
	for _, p := range projects {
		assert.True(t, p.Processed, p.FilePath)
		assert.NotEmpty(t, p.Category, p.FilePath)
		assert.GreaterOrEqual(t, p.UsagePriority, 0)
		assert.LessOrEqual(t, p.UsagePriority, 100)
	}

	// A second run is idempotent
	again, err := c.Run(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, result.ByCategory, again.ByCategory)
}

func TestRunHonoursCancellation(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "cancel.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.UpsertProject(&store.Project{
		FilePath:         "/music/a.als",
		ProjectName:      "a",
		CompletionStatus: score.Sketch,
		LastModified:     fixedNow,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = newTestClassifier().Run(ctx, db)
	require.ErrorIs(t, err, context.Canceled)

	p, err := db.GetProject("/music/a.als")
	require.NoError(t, err)
	assert.False(t, p.Processed)
}
