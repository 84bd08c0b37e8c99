package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/project-janitor/internal/util"
)

func TestDefaultRulesValid(t *testing.T) {
	rules := DefaultRules()
	require.NoError(t, rules.Validate())
	assert.Equal(t, []string{
		"production_ready",
		"active_production",
		"finished_experiments",
		"development",
		"complex_sketches",
		"simple_ideas",
	}, rules.Names())
}

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "categories.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRules(t *testing.T) {
	path := writeRules(t, `
[[category]]
name = "keepers"
statuses = ["complete", "work_in_progress"]
complexity_min = 0
complexity_max = 100
duration_min_seconds = 60
priority_multiplier = 1.0

[[category]]
name = "scraps"
statuses = ["sketch", "idea"]
complexity_min = 0
complexity_max = 100
priority_multiplier = 0.2

[[fallback]]
statuses = ["complete", "work_in_progress", "sketch", "idea"]
threshold = 50
above = "keepers"
below = "scraps"
`)

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"keepers", "scraps"}, rules.Names())
	assert.Equal(t, 0.2, rules.Lookup("scraps").PriorityMultiplier)

	c := New(&Config{Rules: rules})
	cat, fallback := c.Match(project("complete", 70, 10))
	require.NotNil(t, cat)
	assert.Equal(t, "keepers", cat.Name)
	assert.True(t, fallback)
}

func TestLoadRulesErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not toml", "[[category]\nname ="},
		{"no categories", "# empty\n"},
		{"unknown status", `
[[category]]
name = "x"
statuses = ["finished"]
complexity_max = 100
`},
		{"inverted range", `
[[category]]
name = "x"
statuses = ["idea"]
complexity_min = 80
complexity_max = 20
`},
		// built-in fallback ladder names categories this file lacks
		{"fallback unresolved", `
[[category]]
name = "everything"
statuses = ["complete", "work_in_progress", "sketch", "idea"]
complexity_max = 100
priority_multiplier = 0.5
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRules(writeRules(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, util.ErrInvalidConfig)
		})
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, util.ErrNotFound)
}
