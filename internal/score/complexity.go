package score

import (
	"math"

	"github.com/franz/project-janitor/internal/store"
)

// Complexity weights. The raw sum is divided by complexityScale to land on 0-100.
const (
	trackWeight            = 10.0
	pluginWeight           = 15.0
	effectWeight           = 8.0
	automationBonus        = 5.0
	clipWeight             = 2.0
	audioEffectWeight      = 5.0 // per effect, only when audio tracks are present
	arrangementClipWeight  = 5.0
	sessionClipWeight      = 2.0
	durationBonusPerMinute = 10.0
	durationBonusCap       = 30.0
	complexityScale        = 10.0

	beatsPerBar = 4.0
)

// Complexity returns the heuristic complexity of a project in [0, 100].
// It depends only on extracted fields, so the same document always scores the same.
func Complexity(p *store.Project) float64 {
	raw := float64(p.TrackCount)*trackWeight +
		float64(p.PluginCount)*pluginWeight +
		float64(p.EffectCount)*effectWeight +
		float64(p.ClipCount)*clipWeight

	if p.HasAutomation {
		raw += automationBonus
	}
	if p.HasAudioTracks {
		raw += float64(p.EffectCount) * audioEffectWeight
	}

	if p.HasArrangement {
		raw += float64(p.ArrangementClipCount) * arrangementClipWeight
		raw += arrangementDurationBonus(p.ArrangementDurationBeats, p.Tempo)
	} else if p.SessionOnly {
		raw += float64(p.SessionClipCount) * sessionClipWeight
	}

	return clamp(raw/complexityScale, 0, 100)
}

// arrangementDurationBonus converts beats to bars, bars to minutes at tempo,
// then scales and caps
func arrangementDurationBonus(beats, tempo float64) float64 {
	if beats <= 0 || tempo <= 0 {
		return 0
	}
	bars := beats / beatsPerBar
	minutes := bars * beatsPerBar / tempo
	return math.Min(durationBonusCap, minutes*durationBonusPerMinute)
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
