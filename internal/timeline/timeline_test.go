package timeline

import (
	"math"
	"testing"

	"github.com/ivlev/pagereel/internal/scene"
)

func pages(durations ...float64) []scene.Page {
	out := make([]scene.Page, len(durations))
	for i, d := range durations {
		out[i] = scene.Page{ID: string(rune('a' + i)), Duration: d}
	}
	return out
}

func TestResolveScenario(t *testing.T) {
	r, ok := Resolve(pages(5, 3, 4), 6.5)
	if !ok {
		t.Fatal("expected a page")
	}
	if r.PageIndex != 1 {
		t.Errorf("expected second page, got index %d", r.PageIndex)
	}
	if math.Abs(r.LocalTime-1.5) > 1e-9 {
		t.Errorf("expected local time 1.5, got %v", r.LocalTime)
	}
}

func TestResolveBoundaries(t *testing.T) {
	ps := pages(5, 3, 4)
	tests := []struct {
		t         float64
		wantIndex int
		wantLocal float64
	}{
		{0, 0, 0},
		{4.999, 0, 4.999},
		{5, 1, 0},
		{8, 2, 0},
		{12, 2, 4}, // exactly the end clamps to the last page
		{12.0001, 2, 4.0001},
		{20, 2, 12}, // trailing audio past the last page
	}
	for _, tt := range tests {
		r, _ := Resolve(ps, tt.t)
		if r.PageIndex != tt.wantIndex || math.Abs(r.LocalTime-tt.wantLocal) > 1e-9 {
			t.Errorf("Resolve(%v) = page %d local %v, want page %d local %v",
				tt.t, r.PageIndex, r.LocalTime, tt.wantIndex, tt.wantLocal)
		}
	}
}

func TestResolveIdentity(t *testing.T) {
	ps := pages(0.7, 1.3, 2.25, 0.5)
	total := TotalVisualDuration(ps)
	for i := 0; i <= 1000; i++ {
		g := total * float64(i) / 1000
		a, ok := Resolve(ps, g)
		if !ok {
			t.Fatal("expected a page")
		}
		b, _ := Resolve(ps, g)
		if a.PageIndex != b.PageIndex || a.LocalTime != b.LocalTime {
			t.Fatalf("Resolve not idempotent at %v", g)
		}
		if math.Abs(a.PageStart+a.LocalTime-g) > 1e-9 {
			t.Fatalf("start+local != t at %v: %v + %v", g, a.PageStart, a.LocalTime)
		}
	}
}

func TestResolveEmpty(t *testing.T) {
	if _, ok := Resolve(nil, 1); ok {
		t.Error("expected ok=false for an empty timeline")
	}
}

func TestTotals(t *testing.T) {
	ps := pages(2, 3)
	layers := []scene.AudioLayer{
		{Clips: []scene.AudioClip{{StartAt: 1, Duration: 2}}},
		{Clips: []scene.AudioClip{{StartAt: 4, Duration: 3.5}}},
	}
	if got := TotalVisualDuration(ps); got != 5 {
		t.Errorf("visual duration = %v", got)
	}
	if got := TotalAudioExtent(layers); got != 7.5 {
		t.Errorf("audio extent = %v", got)
	}
	if got := TotalDuration(ps, layers); got != 7.5 {
		t.Errorf("total = %v", got)
	}
	if got := TotalAudioExtent(nil); got != 0 {
		t.Errorf("audio extent without clips = %v", got)
	}
}

func TestFrameCount(t *testing.T) {
	if got := FrameCount(5, 30); got != 151 {
		t.Errorf("FrameCount(5,30) = %d, want 151", got)
	}
	if got := FrameCount(1.01, 10); got != 12 {
		t.Errorf("FrameCount(1.01,10) = %d, want 12", got)
	}
	last := FrameTime(FrameCount(5, 30)-1, 30)
	r, _ := Resolve(pages(2, 3), last)
	if r.PageIndex != 1 || math.Abs(r.LocalTime-3) > 1e-9 {
		t.Errorf("last frame resolved to page %d local %v", r.PageIndex, r.LocalTime)
	}
}
