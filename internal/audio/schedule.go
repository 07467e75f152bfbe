package audio

import (
	"math"

	"github.com/ivlev/pagereel/internal/scene"
)

// Scheduled is one clip placed on the mixdown timeline.
type Scheduled struct {
	ClipID   string
	Src      string
	At       float64 // global start, seconds
	Offset   float64 // seconds into the source
	Duration float64 // seconds played
}

// Schedule lists every clip that starts before total, in layer order, cut
// off at total. Clips are scheduled once, before playback begins.
func Schedule(layers []scene.AudioLayer, total float64) []Scheduled {
	var out []Scheduled
	for _, l := range layers {
		for _, c := range l.Clips {
			if c.Src == "" || c.StartAt >= total {
				continue
			}
			dur := math.Min(c.Duration, total-c.StartAt)
			if dur <= 0 {
				continue
			}
			out = append(out, Scheduled{
				ClipID:   c.ID,
				Src:      c.Src,
				At:       c.StartAt,
				Offset:   c.Offset,
				Duration: dur,
			})
		}
	}
	return out
}
