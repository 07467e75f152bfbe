// Package timeline maps global playback time onto pages.
package timeline

import (
	"math"

	"github.com/ivlev/pagereel/internal/scene"
)

// Resolution is the page active at a global time.
type Resolution struct {
	Page      scene.Page
	PageIndex int
	LocalTime float64
	PageStart float64
}

// Resolve returns the first page whose [start, start+duration) interval
// contains t. Times at or past the end clamp to the last page so trailing
// audio and float drift on the last frame still render something. ok is
// false only for an empty page list.
func Resolve(pages []scene.Page, t float64) (Resolution, bool) {
	if len(pages) == 0 {
		return Resolution{PageIndex: -1}, false
	}
	if t < 0 {
		return Resolution{Page: pages[0], PageIndex: 0, LocalTime: t}, true
	}

	acc := 0.0
	for i, p := range pages {
		if t >= acc && t < acc+p.Duration {
			return Resolution{Page: p, PageIndex: i, LocalTime: t - acc, PageStart: acc}, true
		}
		acc += p.Duration
	}

	last := len(pages) - 1
	start := acc - pages[last].Duration
	return Resolution{Page: pages[last], PageIndex: last, LocalTime: t - start, PageStart: start}, true
}

// TotalVisualDuration is the sum of page durations.
func TotalVisualDuration(pages []scene.Page) float64 {
	total := 0.0
	for _, p := range pages {
		total += p.Duration
	}
	return total
}

// TotalAudioExtent is the latest clip end over all layers, 0 without clips.
func TotalAudioExtent(layers []scene.AudioLayer) float64 {
	extent := 0.0
	for _, l := range layers {
		for _, c := range l.Clips {
			extent = math.Max(extent, c.End())
		}
	}
	return extent
}

// TotalDuration is how long playback and export run: long enough for both the
// last page and the last audio clip.
func TotalDuration(pages []scene.Page, layers []scene.AudioLayer) float64 {
	return math.Max(TotalVisualDuration(pages), TotalAudioExtent(layers))
}

// Duration is TotalDuration of a snapshot.
func Duration(s scene.Snapshot) float64 {
	return TotalDuration(s.Pages, s.AudioLayers)
}

// PageStarts returns the global start time of every page.
func PageStarts(pages []scene.Page) []float64 {
	starts := make([]float64, len(pages))
	acc := 0.0
	for i, p := range pages {
		starts[i] = acc
		acc += p.Duration
	}
	return starts
}

// FrameCount is the number of frames rendered for an export: indices
// 0..ceil(total*fps) inclusive, so the final instant is always drawn.
func FrameCount(total float64, fps int) int {
	if fps <= 0 || total <= 0 {
		return 1
	}
	return int(math.Ceil(total*float64(fps)-1e-9)) + 1
}

// FrameTime is the global time of frame i.
func FrameTime(i, fps int) float64 {
	return float64(i) / float64(fps)
}
