package classify

import (
	"fmt"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/franz/project-janitor/internal/score"
	"github.com/franz/project-janitor/internal/util"
)

// Category is one row of the rule table. A project matches when its
// completion status is listed, its complexity is within the inclusive range
// and its duration reaches the minimum.
type Category struct {
	Name               string   `toml:"name"`
	Description        string   `toml:"description"`
	Statuses           []string `toml:"statuses"`
	ComplexityMin      float64  `toml:"complexity_min"`
	ComplexityMax      float64  `toml:"complexity_max"`
	DurationMinSeconds float64  `toml:"duration_min_seconds"`
	PriorityMultiplier float64  `toml:"priority_multiplier"`
}

// Matches reports whether the category accepts the given values
func (c *Category) Matches(status string, complexity, durationSeconds float64) bool {
	return slices.Contains(c.Statuses, status) &&
		complexity >= c.ComplexityMin && complexity <= c.ComplexityMax &&
		durationSeconds >= c.DurationMinSeconds
}

// Fallback routes a status to one of two categories by a complexity threshold
// when no table row matched. Above is used when complexity > Threshold.
type Fallback struct {
	Statuses  []string `toml:"statuses"`
	Threshold float64  `toml:"threshold"`
	Above     string   `toml:"above"`
	Below     string   `toml:"below"`
}

// Rules is the ordered category table plus its fallback ladder.
// Declaration order is significant: the first matching category wins.
type Rules struct {
	Categories []Category `toml:"category"`
	Fallbacks  []Fallback `toml:"fallback"`
}

// DefaultRules returns the built-in table
func DefaultRules() *Rules {
	return &Rules{
		Categories: []Category{
			{
				Name:               "production_ready",
				Description:        "Finished, complex tracks ready for release work",
				Statuses:           []string{score.Complete},
				ComplexityMin:      60,
				ComplexityMax:      100,
				DurationMinSeconds: 120,
				PriorityMultiplier: 1.0,
			},
			{
				Name:               "active_production",
				Description:        "Substantial projects still being worked on",
				Statuses:           []string{score.WorkInProgress},
				ComplexityMin:      40,
				ComplexityMax:      100,
				DurationMinSeconds: 60,
				PriorityMultiplier: 0.8,
			},
			{
				Name:               "finished_experiments",
				Description:        "Complete but simpler pieces",
				Statuses:           []string{score.Complete},
				ComplexityMin:      0,
				ComplexityMax:      60,
				DurationMinSeconds: 30,
				PriorityMultiplier: 0.6,
			},
			{
				Name:               "development",
				Description:        "Early work in progress",
				Statuses:           []string{score.WorkInProgress},
				ComplexityMin:      20,
				ComplexityMax:      70,
				DurationMinSeconds: 30,
				PriorityMultiplier: 0.4,
			},
			{
				Name:               "complex_sketches",
				Description:        "Sketches with a lot going on",
				Statuses:           []string{score.Sketch, score.Idea},
				ComplexityMin:      30,
				ComplexityMax:      100,
				DurationMinSeconds: 0,
				PriorityMultiplier: 0.3,
			},
			{
				Name:               "simple_ideas",
				Description:        "Loops and quick ideas",
				Statuses:           []string{score.Sketch, score.Idea},
				ComplexityMin:      0,
				ComplexityMax:      30,
				DurationMinSeconds: 0,
				PriorityMultiplier: 0.1,
			},
		},
		Fallbacks: []Fallback{
			{Statuses: []string{score.Complete}, Threshold: 50, Above: "production_ready", Below: "finished_experiments"},
			{Statuses: []string{score.WorkInProgress}, Threshold: 40, Above: "active_production", Below: "development"},
			{Statuses: []string{score.Sketch, score.Idea}, Threshold: 30, Above: "complex_sketches", Below: "simple_ideas"},
		},
	}
}

// LoadRules reads a TOML rule file. A file without [[fallback]] entries
// keeps the built-in ladder, which must then still resolve.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category rules: %w", util.ClassifyIOError(err))
	}

	var rules Rules
	if err := toml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", util.ErrInvalidConfig, path, err)
	}
	if len(rules.Fallbacks) == 0 {
		rules.Fallbacks = DefaultRules().Fallbacks
	}

	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &rules, nil
}

// Validate checks that the table is usable and that every status has a
// fallback resolving to a declared category
func (r *Rules) Validate() error {
	if len(r.Categories) == 0 {
		return fmt.Errorf("%w: no categories defined", util.ErrInvalidConfig)
	}

	seen := make(map[string]bool)
	for i, c := range r.Categories {
		if c.Name == "" {
			return fmt.Errorf("%w: category %d has no name", util.ErrInvalidConfig, i+1)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate category %q", util.ErrInvalidConfig, c.Name)
		}
		seen[c.Name] = true

		if c.ComplexityMin > c.ComplexityMax {
			return fmt.Errorf("%w: category %q has complexity_min > complexity_max", util.ErrInvalidConfig, c.Name)
		}
		if c.PriorityMultiplier < 0 || c.PriorityMultiplier > 1 {
			return fmt.Errorf("%w: category %q priority_multiplier must be within [0, 1]", util.ErrInvalidConfig, c.Name)
		}
		for _, s := range c.Statuses {
			if !slices.Contains(score.Statuses, s) {
				return fmt.Errorf("%w: category %q lists unknown status %q", util.ErrInvalidConfig, c.Name, s)
			}
		}
	}

	for _, status := range score.Statuses {
		fb := r.fallbackFor(status)
		if fb == nil {
			return fmt.Errorf("%w: no fallback for status %q", util.ErrInvalidConfig, status)
		}
		if !seen[fb.Above] || !seen[fb.Below] {
			return fmt.Errorf("%w: fallback for %q names an undeclared category", util.ErrInvalidConfig, status)
		}
	}

	return nil
}

// Lookup returns the category with the given name
func (r *Rules) Lookup(name string) *Category {
	for i := range r.Categories {
		if r.Categories[i].Name == name {
			return &r.Categories[i]
		}
	}
	return nil
}

// Descriptions maps every category name to its description
func (r *Rules) Descriptions() map[string]string {
	out := make(map[string]string, len(r.Categories))
	for _, c := range r.Categories {
		out[c.Name] = c.Description
	}
	return out
}

// Names returns category names in declaration order
func (r *Rules) Names() []string {
	names := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		names[i] = c.Name
	}
	return names
}

func (r *Rules) fallbackFor(status string) *Fallback {
	for i := range r.Fallbacks {
		if slices.Contains(r.Fallbacks[i].Statuses, status) {
			return &r.Fallbacks[i]
		}
	}
	return nil
}
