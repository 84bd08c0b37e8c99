package scan

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/franz/project-janitor/internal/util"
)

// progress tracks completed items and renders either a bar on a terminal or
// periodic log lines otherwise
type progress struct {
	total     int
	done      int
	failed    int
	startedAt time.Time
	bar       *progressbar.ProgressBar
}

func newProgress(total int) *progress {
	p := &progress{total: total, startedAt: time.Now()}

	if util.IsTerminal(os.Stderr.Fd()) && !util.IsQuiet() && total > 0 {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Analyzing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("projects"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	return p
}

func (p *progress) add(ok bool) {
	p.done++
	if !ok {
		p.failed++
	}
	if p.bar != nil {
		p.bar.Describe(fmt.Sprintf("Analyzing | %d failed", p.failed))
		p.bar.Add(1)
	}
}

// rate returns completed items per second
func (p *progress) rate() float64 {
	elapsed := time.Since(p.startedAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.done) / elapsed
}

// eta projects the time remaining from the rate so far
func (p *progress) eta() time.Duration {
	r := p.rate()
	if r <= 0 {
		return 0
	}
	remaining := float64(p.total-p.done) / r
	return time.Duration(remaining * float64(time.Second)).Round(time.Second)
}

// tick emits a progress line when no bar is shown
func (p *progress) tick() {
	if p.bar != nil || p.done == 0 {
		return
	}
	util.InfoLog("Progress: %d/%d analyzed (%d failed) | %.1f/s | ETA %s",
		p.done, p.total, p.failed, p.rate(), p.eta())
}

func (p *progress) finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
