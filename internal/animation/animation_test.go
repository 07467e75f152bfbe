package animation

import (
	"math"
	"testing"
	"time"

	"github.com/ivlev/pagereel/internal/scene"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func bind(typ scene.AnimationType, speed, delay float64) *scene.Animation {
	return &scene.Animation{Type: typ, Speed: speed, Delay: delay, Mode: scene.ModeEnter}
}

func TestEaseMonotonic(t *testing.T) {
	prev := Ease(0)
	if prev != 0 || Ease(1) != 1 {
		t.Fatalf("ease endpoints: %v %v", Ease(0), Ease(1))
	}
	for i := 1; i <= 100; i++ {
		v := Ease(float64(i) / 100)
		if v < prev {
			t.Fatalf("ease decreased at %d: %v < %v", i, v, prev)
		}
		prev = v
	}
}

func TestFadeOpacityRange(t *testing.T) {
	b := bind(scene.AnimFade, 1.7, 0.3)
	for i := 0; i <= 400; i++ {
		lt := float64(i)*0.01 - 0.5
		st := Evaluate(b, lt)
		if st.Opacity < 0 || st.Opacity > 1 {
			t.Fatalf("opacity %v out of range at %v", st.Opacity, lt)
		}
	}
}

func TestEvaluatePresets(t *testing.T) {
	tests := []struct {
		name string
		b    *scene.Animation
		lt   float64
		want State
	}{
		{"nil binding", nil, 0.3, Identity},
		{"none", bind(scene.AnimNone, 1, 0), 0.3, Identity},
		{"fade start", bind(scene.AnimFade, 1, 0), 0, State{Opacity: 0, Scale: 1}},
		{"fade half", bind(scene.AnimFade, 1, 0), 0.5, State{Opacity: 0.75, Scale: 1}},
		{"fade done", bind(scene.AnimFade, 1, 0), 3, Identity},
		{"fade fast", bind(scene.AnimFade, 2, 0), 0.25, State{Opacity: 0.75, Scale: 1}},
		{"rise start", bind(scene.AnimRise, 1, 0), 0, State{Opacity: 1, Scale: 1, DY: 50}},
		{"rise half", bind(scene.AnimRise, 1, 0), 0.5, State{Opacity: 1, Scale: 1, DY: 12.5}},
		{"pan start", bind(scene.AnimPan, 1, 0), 0, State{Opacity: 1, Scale: 1, DX: -50}},
		{"pop half", bind(scene.AnimPop, 1, 0), 0.5, State{Opacity: 1, Scale: 0.75}},
		{"pop done", bind(scene.AnimPop, 1, 0), 1, Identity},
		{"shake", bind(scene.AnimShake, 1, 0), 0.1, State{Opacity: 1, Scale: 1, DX: math.Sin(2) * 5}},
		{"pulse", bind(scene.AnimPulse, 1, 0), 0.2, State{Opacity: 1, Scale: 1 + math.Sin(1)*0.05}},
		{"wiggle", bind(scene.AnimWiggle, 1, 0), 0.1, State{Opacity: 1, Scale: 1, Rotation: math.Sin(1) * 5}},
		{"fade delayed", bind(scene.AnimFade, 1, 1), 1.5, State{Opacity: 0.75, Scale: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.b, tt.lt)
			if !near(got.Opacity, tt.want.Opacity) || !near(got.DX, tt.want.DX) || !near(got.DY, tt.want.DY) ||
				!near(got.Scale, tt.want.Scale) || !near(got.Rotation, tt.want.Rotation) {
				t.Errorf("Evaluate = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDelayHidesTarget(t *testing.T) {
	for _, typ := range []scene.AnimationType{scene.AnimRise, scene.AnimPan, scene.AnimPop, scene.AnimShake} {
		st := Evaluate(bind(typ, 1, 0.5), 0.2)
		if st.Opacity != 0 {
			t.Errorf("%s: expected hidden during delay, got opacity %v", typ, st.Opacity)
		}
	}
}

func TestZeroSpeedStaysFinite(t *testing.T) {
	st := Evaluate(&scene.Animation{Type: scene.AnimFade, Speed: 0}, 10)
	if math.IsNaN(st.Opacity) || math.IsInf(st.Opacity, 0) {
		t.Fatalf("opacity not finite: %v", st.Opacity)
	}
	if st.Opacity <= 0 || st.Opacity >= 1 {
		t.Errorf("expected a slow partial fade, got %v", st.Opacity)
	}
}

func TestEvaluateSpanModes(t *testing.T) {
	exit := &scene.Animation{Type: scene.AnimFade, Speed: 1, Mode: scene.ModeExit}
	if st := EvaluateSpan(exit, 0, 5); !near(st.Opacity, 1) {
		t.Errorf("exit at start: opacity %v", st.Opacity)
	}
	if st := EvaluateSpan(exit, 4.5, 5); !near(st.Opacity, 0.75) {
		t.Errorf("exit half-way out: opacity %v", st.Opacity)
	}
	if st := EvaluateSpan(exit, 5, 5); !near(st.Opacity, 0) {
		t.Errorf("exit at end: opacity %v", st.Opacity)
	}

	both := &scene.Animation{Type: scene.AnimFade, Speed: 1, Mode: scene.ModeBoth}
	if st := EvaluateSpan(both, 0.5, 5); !near(st.Opacity, 0.75) {
		t.Errorf("both, entering: opacity %v", st.Opacity)
	}
	if st := EvaluateSpan(both, 2.5, 5); !near(st.Opacity, 1) {
		t.Errorf("both, middle: opacity %v", st.Opacity)
	}
	if st := EvaluateSpan(both, 4.5, 5); !near(st.Opacity, 0.75) {
		t.Errorf("both, leaving: opacity %v", st.Opacity)
	}

	// Задержка выхода отсчитывается от конца: fade заканчивается за 1с до конца.
	delayed := &scene.Animation{Type: scene.AnimFade, Speed: 1, Delay: 1, Mode: scene.ModeExit}
	tests := []struct {
		lt   float64
		want float64
	}{
		{2.5, 1},
		{3, 1},
		{3.5, 0.75},
		{4, 0},
		{4.5, 0},
		{5, 0},
	}
	for _, tt := range tests {
		if st := EvaluateSpan(delayed, tt.lt, 5); !near(st.Opacity, tt.want) {
			t.Errorf("delayed exit at %v: opacity %v, want %v", tt.lt, st.Opacity, tt.want)
		}
	}

	bothDelayed := &scene.Animation{Type: scene.AnimFade, Speed: 1, Delay: 1, Mode: scene.ModeBoth}
	if st := EvaluateSpan(bothDelayed, 0.5, 5); !near(st.Opacity, 0) {
		t.Errorf("both delayed, before entrance: opacity %v", st.Opacity)
	}
	if st := EvaluateSpan(bothDelayed, 2.5, 5); !near(st.Opacity, 1) {
		t.Errorf("both delayed, middle: opacity %v", st.Opacity)
	}
	if st := EvaluateSpan(bothDelayed, 4.5, 5); !near(st.Opacity, 0) {
		t.Errorf("both delayed, after exit: opacity %v", st.Opacity)
	}

	// continuous presets ignore exit.
	shake := &scene.Animation{Type: scene.AnimShake, Speed: 1, Mode: scene.ModeExit}
	if got, want := EvaluateSpan(shake, 0.1, 5), Evaluate(shake, 0.1); got != want {
		t.Errorf("shake exit = %+v, want %+v", got, want)
	}
}

func TestEvaluatePage(t *testing.T) {
	const w, h = 1000, 500
	tests := []struct {
		name   string
		b      *scene.Animation
		lt     float64
		dx, dy float64
		scale  float64
	}{
		{"slide default", &scene.Animation{Type: scene.AnimSlide, Speed: 1}, 0, w, 0, 1},
		{"slide right", &scene.Animation{Type: scene.AnimSlide, Speed: 1, Direction: scene.DirRight}, 0.5, -250, 0, 1},
		{"slide up", &scene.Animation{Type: scene.AnimSlide, Speed: 1, Direction: scene.DirUp}, 0, 0, h, 1},
		{"slide down", &scene.Animation{Type: scene.AnimSlide, Speed: 1, Direction: scene.DirDown}, 0, 0, -h, 1},
		{"slide done", &scene.Animation{Type: scene.AnimSlide, Speed: 1}, 2, 0, 0, 1},
		{"zoom start", &scene.Animation{Type: scene.AnimZoom, Speed: 1}, 0, 0, 0, 0.8},
		{"zoom half", &scene.Animation{Type: scene.AnimZoom, Speed: 1}, 0.5, 0, 0, 0.95},
		{"rise on page", &scene.Animation{Type: scene.AnimRise, Speed: 1}, 0, 0, 50, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := EvaluatePage(tt.b, tt.lt, 5, w, h)
			if !near(st.DX, tt.dx) || !near(st.DY, tt.dy) || !near(st.Scale, tt.scale) {
				t.Errorf("EvaluatePage = %+v, want dx=%v dy=%v scale=%v", st, tt.dx, tt.dy, tt.scale)
			}
		})
	}
}

func TestPreviewClock(t *testing.T) {
	origin := time.Unix(1000, 0)
	c := NewPreviewClock(origin)
	tests := []struct {
		after time.Duration
		want  float64
	}{
		{0, 0},
		{500 * time.Millisecond, 0.5},
		{2 * time.Second, 0},
		{4500 * time.Millisecond, 0.5},
		{-500 * time.Millisecond, 1.5},
	}
	for _, tt := range tests {
		if got := c.Local(origin.Add(tt.after)); !near(got, tt.want) {
			t.Errorf("Local(+%v) = %v, want %v", tt.after, got, tt.want)
		}
	}
}

func TestPreviewIgnoresDelayAndMode(t *testing.T) {
	origin := time.Unix(0, 0)
	c := NewPreviewClock(origin)
	b := &scene.Animation{Type: scene.AnimFade, Speed: 1, Delay: 3, Mode: scene.ModeExit}
	st := Preview(b, c, origin.Add(500*time.Millisecond))
	if !near(st.Opacity, 0.75) {
		t.Errorf("preview opacity %v, want 0.75", st.Opacity)
	}
	if b.Delay != 3 || b.Mode != scene.ModeExit {
		t.Error("preview mutated the binding")
	}
	if st := Preview(nil, c, origin); st != Identity {
		t.Errorf("nil binding preview = %+v", st)
	}
}
