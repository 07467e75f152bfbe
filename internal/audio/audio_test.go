package audio

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/ivlev/pagereel/internal/scene"
)

func snapshotWithClip(c scene.AudioClip) scene.Snapshot {
	s := scene.New(640, 360)
	s.AudioLayers = []scene.AudioLayer{
		{ID: "l1", Name: "Track 1", Clips: []scene.AudioClip{c}},
		{ID: "l2", Name: "Track 2"},
	}
	return s
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTrimLeftScenario(t *testing.T) {
	s := snapshotWithClip(scene.AudioClip{ID: "c", Src: "a.mp3", StartAt: 5, Offset: 0, Duration: 10, TotalDuration: 30})
	out, err := TrimClip{LayerID: "l1", ClipID: "c", Edge: EdgeLeft, Delta: 12}.Apply(s)
	if err != nil {
		t.Fatal(err)
	}
	c := out.AudioLayers[0].Clips[0]
	if !approx(c.StartAt, 14.9) || !approx(c.Offset, 9.9) || !approx(c.Duration, 0.1) {
		t.Errorf("got start=%v offset=%v duration=%v, want 14.9 9.9 0.1", c.StartAt, c.Offset, c.Duration)
	}
	if s.AudioLayers[0].Clips[0].StartAt != 5 {
		t.Error("trim mutated the input snapshot")
	}
}

func TestTrimLeftClamps(t *testing.T) {
	tests := []struct {
		name     string
		clip     scene.AudioClip
		delta    float64
		start    float64
		offset   float64
		duration float64
	}{
		{"start floor", scene.AudioClip{StartAt: 1, Offset: 5, Duration: 4, TotalDuration: 20}, -3, 0, 4, 5},
		{"offset floor", scene.AudioClip{StartAt: 10, Offset: 2, Duration: 4, TotalDuration: 20}, -5, 8, 0, 6},
		{"plain", scene.AudioClip{StartAt: 10, Offset: 2, Duration: 4, TotalDuration: 20}, 1, 11, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := TrimLeft(tt.clip, tt.delta)
			if !approx(c.StartAt, tt.start) || !approx(c.Offset, tt.offset) || !approx(c.Duration, tt.duration) {
				t.Errorf("got %v/%v/%v, want %v/%v/%v", c.StartAt, c.Offset, c.Duration, tt.start, tt.offset, tt.duration)
			}
		})
	}
}

func TestTrimRight(t *testing.T) {
	base := scene.AudioClip{StartAt: 0, Offset: 5, Duration: 10, TotalDuration: 20}
	tests := []struct {
		delta float64
		want  float64
	}{
		{2, 12},
		{100, 15},
		{-100, scene.MinClipDuration},
	}
	for _, tt := range tests {
		if got := TrimRight(base, tt.delta).Duration; !approx(got, tt.want) {
			t.Errorf("TrimRight(%v) duration = %v, want %v", tt.delta, got, tt.want)
		}
	}
}

func TestTrimInvariantsRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := scene.AudioClip{ID: "c", Src: "a.mp3", StartAt: 3, Offset: 1, Duration: 6, TotalDuration: 12}
	s := snapshotWithClip(c)
	for i := 0; i < 2000; i++ {
		edge := EdgeLeft
		if rng.Intn(2) == 1 {
			edge = EdgeRight
		}
		delta := (rng.Float64() - 0.5) * 30
		var err error
		s, err = TrimClip{LayerID: "l1", ClipID: "c", Edge: edge, Delta: delta}.Apply(s)
		if err != nil {
			t.Fatal(err)
		}
		if err := CheckClip(s.AudioLayers[0].Clips[0]); err != nil {
			t.Fatalf("step %d (%s %+.3f): %v", i, edge, delta, err)
		}
	}
}

func TestMoveClip(t *testing.T) {
	s := snapshotWithClip(scene.AudioClip{ID: "c", Src: "a.mp3", StartAt: 2, Duration: 3, TotalDuration: 10})

	same, err := MoveClip{ClipID: "c", FromLayerID: "l1", ToLayerID: "l1", NewStart: 7}.Apply(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(same.AudioLayers[0].Clips) != 1 || same.AudioLayers[0].Clips[0].StartAt != 7 {
		t.Errorf("in-place move: %+v", same.AudioLayers[0].Clips)
	}

	across, err := MoveClip{ClipID: "c", FromLayerID: "l1", ToLayerID: "l2", NewStart: -4}.Apply(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(across.AudioLayers[0].Clips) != 0 || len(across.AudioLayers[1].Clips) != 1 {
		t.Fatalf("clip not reassigned: %+v", across.AudioLayers)
	}
	if across.AudioLayers[1].Clips[0].StartAt != 0 {
		t.Errorf("negative start not clamped: %v", across.AudioLayers[1].Clips[0].StartAt)
	}

	if _, err := (MoveClip{ClipID: "nope", FromLayerID: "l1", ToLayerID: "l2"}).Apply(s); !errors.Is(err, scene.ErrClipNotFound) {
		t.Errorf("expected ErrClipNotFound, got %v", err)
	}
	if _, err := (MoveClip{ClipID: "c", FromLayerID: "l1", ToLayerID: "zz"}).Apply(s); !errors.Is(err, scene.ErrLayerNotFound) {
		t.Errorf("expected ErrLayerNotFound, got %v", err)
	}
}

func TestAddAndDeleteClip(t *testing.T) {
	s := snapshotWithClip(scene.AudioClip{ID: "c", Src: "a.mp3", Duration: 3, TotalDuration: 10})

	out, err := AddClip{LayerID: "l2", Clip: scene.AudioClip{Src: "b.mp3", StartAt: -1, Offset: 2, TotalDuration: 8}}.Apply(s)
	if err != nil {
		t.Fatal(err)
	}
	added := out.AudioLayers[1].Clips[0]
	if added.ID == "" || added.StartAt != 0 || added.Duration != 6 {
		t.Errorf("unexpected added clip %+v", added)
	}

	if _, err := (AddClip{LayerID: "l2", Clip: scene.AudioClip{Src: "x"}}).Apply(s); !errors.Is(err, scene.ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown length, got %v", err)
	}

	out, err = DeleteClip{ClipID: added.ID}.Apply(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.AudioLayers[1].Clips) != 0 || len(out.AudioLayers[0].Clips) != 1 {
		t.Errorf("delete removed the wrong clip: %+v", out.AudioLayers)
	}
	if _, err := (DeleteClip{ClipID: added.ID}).Apply(out); !errors.Is(err, scene.ErrClipNotFound) {
		t.Errorf("expected ErrClipNotFound, got %v", err)
	}
}

func TestSchedule(t *testing.T) {
	layers := []scene.AudioLayer{
		{ID: "l1", Clips: []scene.AudioClip{
			{ID: "a", Src: "a.mp3", StartAt: 0, Offset: 1, Duration: 4},
			{ID: "b", Src: "b.mp3", StartAt: 8, Duration: 5},
		}},
		{ID: "l2", Clips: []scene.AudioClip{
			{ID: "c", Src: "c.mp3", StartAt: 10, Duration: 2},
		}},
	}
	got := Schedule(layers, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 scheduled clips, got %+v", got)
	}
	if got[0].ClipID != "a" || got[0].Offset != 1 || got[0].Duration != 4 {
		t.Errorf("first clip %+v", got[0])
	}
	if got[1].ClipID != "b" || got[1].At != 8 || got[1].Duration != 2 {
		t.Errorf("second clip not cut at total: %+v", got[1])
	}
}

func TestBuildFilterGraph(t *testing.T) {
	g := BuildFilterGraph([]Scheduled{
		{Src: "a.mp3", At: 0, Offset: 1, Duration: 4},
		{Src: "b.mp3", At: 2.5, Offset: 0, Duration: 3},
	}, 6)
	for _, want := range []string{
		"[0:a]aformat=",
		"atrim=start=1.000000:duration=4.000000",
		"adelay=2500|2500[a1]",
		"[a0][a1]amix=inputs=2",
		"atrim=end=6.000000[aout]",
	} {
		if !strings.Contains(g, want) {
			t.Errorf("graph missing %q:\n%s", want, g)
		}
	}
}

func TestMixerArgs(t *testing.T) {
	m := &FFmpegMixer{FFmpegPath: "/opt/ffmpeg"}
	args := m.buildArgs([]Scheduled{{Src: "a.mp3", Duration: 1}}, 1, "out.wav")
	if args[len(args)-1] != "out.wav" {
		t.Errorf("output must be last: %v", args)
	}
	if m.binary() != "/opt/ffmpeg" {
		t.Errorf("binary = %s", m.binary())
	}
	if err := m.Mix(context.Background(), nil, 1, "out.wav"); !errors.Is(err, ErrNothingToMix) {
		t.Errorf("expected ErrNothingToMix, got %v", err)
	}
}

type fakeDecoder map[string]error

func (f fakeDecoder) Duration(ctx context.Context, src string) (float64, error) {
	if err := f[src]; err != nil {
		return 0, err
	}
	return 10, nil
}

func TestDecodableSkipsBroken(t *testing.T) {
	dec := fakeDecoder{"bad.mp3": errors.New("corrupt")}
	clips := []Scheduled{{Src: "good.mp3"}, {Src: "bad.mp3"}, {Src: "good.mp3", At: 3}}
	got, err := Decodable(context.Background(), dec, clips, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 decodable clips, got %+v", got)
	}
}
