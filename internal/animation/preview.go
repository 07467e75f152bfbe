package animation

import (
	"math"
	"time"

	"github.com/ivlev/pagereel/internal/scene"
)

// DefaultPreviewPeriod is the loop length of hover previews.
const DefaultPreviewPeriod = 2 * time.Second

// PreviewClock is a free-running clock that repeats every Period. It is not
// tied to playback, so hover previews animate while playback is paused.
type PreviewClock struct {
	Period time.Duration
	Origin time.Time
}

func NewPreviewClock(origin time.Time) PreviewClock {
	return PreviewClock{Period: DefaultPreviewPeriod, Origin: origin}
}

// Local returns the position inside the current period, in seconds.
func (c PreviewClock) Local(now time.Time) float64 {
	period := c.Period
	if period <= 0 {
		period = DefaultPreviewPeriod
	}
	elapsed := now.Sub(c.Origin).Seconds()
	local := math.Mod(elapsed, period.Seconds())
	if local < 0 {
		local += period.Seconds()
	}
	return local
}

// previewBinding strips the delay and mode gating so a preview always plays.
func previewBinding(b *scene.Animation) *scene.Animation {
	if b == nil {
		return nil
	}
	pb := *b
	pb.Delay = 0
	pb.Mode = scene.ModeEnter
	return &pb
}

// Preview evaluates an element binding on the preview clock.
func Preview(b *scene.Animation, clock PreviewClock, now time.Time) State {
	return Evaluate(previewBinding(b), clock.Local(now))
}

// PreviewPage evaluates a page binding on the preview clock.
func PreviewPage(b *scene.Animation, clock PreviewClock, now time.Time, width, height int) State {
	return EvaluatePage(previewBinding(b), clock.Local(now), 0, width, height)
}
