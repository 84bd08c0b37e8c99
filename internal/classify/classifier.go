package classify

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/franz/project-janitor/internal/report"
	"github.com/franz/project-janitor/internal/store"
	"github.com/franz/project-janitor/internal/util"
)

// Priority weights and caps
const (
	basePriority           = 50.0
	complexityBonusMax     = 20.0
	durationBonusMax       = 10.0
	durationSaturationMins = 6.0
	audioBonusPerGB        = 5.0
	audioBonusMax          = 15.0
	trackBonusPerTrack     = 0.5
	trackBonusMax          = 10.0
	recencyBonusMax        = 10.0
	recencyWindowDays      = 300.0

	bytesPerGB = 1 << 30
)

// Classifier assigns categories and migration priorities to analysed projects
type Classifier struct {
	rules  *Rules
	now    func() time.Time
	logger *report.EventLogger
}

// Config holds classifier configuration
type Config struct {
	Rules  *Rules           // nil uses DefaultRules
	Now    func() time.Time // nil uses time.Now
	Logger *report.EventLogger
}

// New creates a new Classifier
func New(cfg *Config) *Classifier {
	if cfg.Rules == nil {
		cfg.Rules = DefaultRules()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Classifier{
		rules:  cfg.Rules,
		now:    cfg.Now,
		logger: cfg.Logger,
	}
}

// Rules returns the table in use
func (c *Classifier) Rules() *Rules {
	return c.rules
}

// Result represents classification results
type Result struct {
	Classified int
	Fallbacks  int
	ByCategory map[string]int
}

// Match returns the first category in declaration order accepting p, and
// whether the fallback ladder had to be used instead. It never returns nil
// for rules that passed Validate.
func (c *Classifier) Match(p *store.Project) (*Category, bool) {
	for i := range c.rules.Categories {
		cat := &c.rules.Categories[i]
		if cat.Matches(p.CompletionStatus, p.ComplexityScore, p.DurationSeconds) {
			return cat, false
		}
	}

	fb := c.rules.fallbackFor(p.CompletionStatus)
	if fb == nil {
		return nil, true
	}
	name := fb.Below
	if p.ComplexityScore > fb.Threshold {
		name = fb.Above
	}
	return c.rules.Lookup(name), true
}

// Priority computes the migration priority of p in category cat
func (c *Classifier) Priority(p *store.Project, cat *Category) int {
	minutes := p.DurationSeconds / 60
	gigabytes := float64(p.AudioFolderSize) / bytesPerGB

	// An unknown modification time earns no recency bonus
	recency := 0.0
	if !p.LastModified.IsZero() {
		days := c.now().Sub(p.LastModified).Hours() / 24
		recency = clamp(recencyBonusMax-days*recencyBonusMax/recencyWindowDays, 0, recencyBonusMax)
	}

	total := basePriority*cat.PriorityMultiplier +
		p.ComplexityScore/100*complexityBonusMax +
		math.Min(durationBonusMax, minutes*durationBonusMax/durationSaturationMins) +
		math.Min(audioBonusMax, gigabytes*audioBonusPerGB) +
		math.Min(trackBonusMax, float64(p.TrackCount)*trackBonusPerTrack) +
		recency

	return int(clamp(total, 0, 100))
}

// Assign returns the category and priority for p
func (c *Classifier) Assign(p *store.Project) (store.Assignment, bool, error) {
	cat, fallback := c.Match(p)
	if cat == nil {
		return store.Assignment{}, fallback, fmt.Errorf("%w: no category for status %q", util.ErrInvariant, p.CompletionStatus)
	}
	return store.Assignment{Category: cat.Name, Priority: c.Priority(p, cat)}, fallback, nil
}

// Run re-classifies every analysed project in db within one transaction
func (c *Classifier) Run(ctx context.Context, db *store.Store) (*Result, error) {
	util.InfoLog("Starting classification")

	result := &Result{ByCategory: make(map[string]int)}

	// Events are written only once the transaction has committed
	type classified struct {
		path     string
		a        store.Assignment
		fallback bool
	}
	var assigned []classified

	n, err := db.ClassifyAll(func(p *store.Project) (store.Assignment, error) {
		if err := ctx.Err(); err != nil {
			return store.Assignment{}, err
		}

		a, fallback, err := c.Assign(p)
		if err != nil {
			return a, err
		}

		result.ByCategory[a.Category]++
		if fallback {
			result.Fallbacks++
			util.DebugLog("Fallback category %s for %s", a.Category, p.FilePath)
		}
		assigned = append(assigned, classified{path: p.FilePath, a: a, fallback: fallback})
		return a, nil
	})
	if err != nil {
		c.logger.LogError(report.EventClassify, "", err)
		return nil, fmt.Errorf("classification failed: %w", err)
	}

	for _, r := range assigned {
		c.logger.LogClassify(r.path, r.a.Category, r.a.Priority, r.fallback)
	}

	result.Classified = n
	util.SuccessLog("Classified %d projects (%d via fallback)", result.Classified, result.Fallbacks)

	return result, nil
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
