package score

import (
	"github.com/franz/project-janitor/internal/store"
)

// Completion statuses, from least to most finished
const (
	Idea           = "idea"
	Sketch         = "sketch"
	WorkInProgress = "work_in_progress"
	Complete       = "complete"
)

// Statuses lists every completion status
var Statuses = []string{Idea, Sketch, WorkInProgress, Complete}

// CompletionPoints returns the raw completion score of a project.
// Bands are inclusive on their lower bound.
func CompletionPoints(p *store.Project, complexity float64) int {
	points := 0

	if p.HasArrangement {
		bars := p.ArrangementDurationBeats / beatsPerBar
		switch {
		case bars >= 32:
			points += 3
		case bars >= 16:
			points += 2
		case bars >= 0:
			points++
		}
	}

	if p.SessionOnly {
		switch {
		case p.SessionClipCount >= 16:
			points++
		case p.SessionClipCount >= 8:
		default:
			points--
		}
	}

	switch {
	case complexity >= 50:
		points++
	case complexity >= 25:
	default:
		points--
	}

	if p.HasAutomation {
		points++
	}
	if p.PluginCount >= 5 {
		points++
	}

	return points
}

// CompletionStatus maps points onto a status
func CompletionStatus(points int) string {
	switch {
	case points >= 4:
		return Complete
	case points >= 2:
		return WorkInProgress
	case points >= 0:
		return Sketch
	default:
		return Idea
	}
}

// Apply computes both scores and stores them on the project
func Apply(p *store.Project) {
	p.ComplexityScore = Complexity(p)
	p.CompletionStatus = CompletionStatus(CompletionPoints(p, p.ComplexityScore))
}
