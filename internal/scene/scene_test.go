package scene

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func sample() Snapshot {
	s := New(640, 360)
	s.Pages[0].Elements = []Element{
		NewElement(KindRect, 10, 10, 100, 50),
		NewElement(KindText, 20, 80, 200, 40),
	}
	s.Pages[0].Elements[1].Text = "hello"
	s.Pages[0].Elements[1].Animation = &Animation{Type: AnimFade, Speed: 1}
	s.AudioLayers = []AudioLayer{{
		ID:   "layer-1",
		Name: "Music",
		Clips: []AudioClip{
			{ID: "clip-1", Src: "a.mp3", StartAt: 1, Duration: 4, TotalDuration: 10},
		},
	}}
	return s
}

func TestCloneIsIndependent(t *testing.T) {
	s := sample()
	c := s.Clone()
	if !reflect.DeepEqual(s, c) {
		t.Fatal("clone differs from source")
	}

	c.Pages[0].Elements[0].X = 999
	c.Pages[0].Elements[1].Animation.Speed = 5
	c.AudioLayers[0].Clips[0].StartAt = 7

	if s.Pages[0].Elements[0].X == 999 {
		t.Error("element geometry aliased")
	}
	if s.Pages[0].Elements[1].Animation.Speed == 5 {
		t.Error("animation binding aliased")
	}
	if s.AudioLayers[0].Clips[0].StartAt == 7 {
		t.Error("audio clip aliased")
	}
}

func TestDocumentDefaults(t *testing.T) {
	doc := `{
		"width": 320, "height": 240,
		"pages": [{"id": "p1", "duration": 2, "elements": [
			{"id": "e1", "type": "rect", "x": 1, "y": 2, "width": 30, "height": 40}
		]}],
		"audioLayers": []
	}`
	s, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	el := s.Pages[0].Elements[0]
	if el.Scale != 1 || el.Opacity != 1 {
		t.Errorf("expected scale/opacity defaults of 1, got %v/%v", el.Scale, el.Opacity)
	}
	if s.Pages[0].Background != DefaultBackground {
		t.Errorf("expected default background, got %q", s.Pages[0].Background)
	}

	data, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, key := range []string{`"audioLayers"`, `"type":"rect"`, `"scale":1`, `"opacity":1`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoded document misses %s: %s", key, data)
		}
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no pages", `{"width":10,"height":10,"pages":[]}`},
		{"zero duration", `{"width":10,"height":10,"pages":[{"id":"p","duration":0}]}`},
		{"duplicate ids", `{"width":10,"height":10,"pages":[{"id":"p","duration":1},{"id":"p","duration":1}]}`},
		{"clip overrun", `{"width":10,"height":10,"pages":[{"id":"p","duration":1}],
			"audioLayers":[{"id":"l","clips":[{"id":"c","startAt":0,"duration":5,"offset":6,"totalDuration":10}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.doc)); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestDeleteLastPageIsNoop(t *testing.T) {
	s := New(0, 0)
	out, err := DeletePage{PageID: s.Pages[0].ID}.Apply(s)
	if err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if len(out.Pages) != 1 {
		t.Fatalf("expected the last page to survive, got %d pages", len(out.Pages))
	}
}

func TestDuplicatePage(t *testing.T) {
	s := sample()
	src := s.Pages[0]
	out, err := DuplicatePage{PageID: src.ID, NewID: "copy"}.Apply(s)
	if err != nil {
		t.Fatalf("DuplicatePage: %v", err)
	}
	if len(out.Pages) != 2 || out.Pages[1].ID != "copy" {
		t.Fatalf("expected copy after source, got %+v", out.Pages)
	}
	for i, el := range out.Pages[1].Elements {
		if el.ID == src.Elements[i].ID {
			t.Errorf("element %d kept its ID in the copy", i)
		}
	}
	if len(s.Pages) != 1 {
		t.Error("source snapshot was mutated")
	}
}

func TestUpdatePageClampsDuration(t *testing.T) {
	s := sample()
	d := 0.01
	out, err := UpdatePage{PageID: s.Pages[0].ID, Patch: PagePatch{Duration: &d}}.Apply(s)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Pages[0].Duration; got != MinPageDuration {
		t.Errorf("expected duration clamped to %v, got %v", MinPageDuration, got)
	}
}

func TestElementOps(t *testing.T) {
	s := sample()
	page := s.Pages[0].ID
	back := s.Pages[0].Elements[0].ID

	out, err := ReorderElement{PageID: page, ElementID: back, To: 99}.Apply(s)
	if err != nil {
		t.Fatal(err)
	}
	if out.Pages[0].Elements[1].ID != back {
		t.Errorf("expected %s on top", back)
	}

	w := 1.0
	op := 3.0
	out, err = UpdateElement{PageID: page, ElementID: back, Patch: ElementPatch{Width: &w, Opacity: &op}}.Apply(out)
	if err != nil {
		t.Fatal(err)
	}
	el := out.Pages[0].Elements[1]
	if el.Width != MinElementSize || el.Opacity != 1 {
		t.Errorf("expected clamped width/opacity, got %v/%v", el.Width, el.Opacity)
	}

	out, err = DuplicateElement{PageID: page, ElementID: back, NewID: "dup"}.Apply(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Pages[0].Elements[2]; got.ID != "dup" || got.X != el.X+DuplicateOffset {
		t.Errorf("unexpected duplicate %+v", got)
	}

	out, err = DeleteElement{PageID: page, ElementID: "dup"}.Apply(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Pages[0].Elements) != 2 {
		t.Errorf("expected 2 elements after delete, got %d", len(out.Pages[0].Elements))
	}

	if _, err := (DeleteElement{PageID: page, ElementID: "missing"}).Apply(out); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound, got %v", err)
	}
}

func TestMovePage(t *testing.T) {
	s := New(0, 0)
	s, _ = AddPage{Page: Page{ID: "b"}}.Apply(s)
	s, _ = AddPage{Page: Page{ID: "c"}}.Apply(s)
	first := s.Pages[0].ID

	out, err := MovePage{PageID: first, To: 2}.Apply(s)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{out.Pages[0].ID, out.Pages[1].ID, out.Pages[2].ID}
	want := []string{"b", "c", first}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected order %v, got %v", want, got)
	}
}

func TestImageSources(t *testing.T) {
	s := New(100, 100)
	img := func(src string) Element {
		el := NewElement(KindImage, 0, 0, 10, 10)
		el.Src = src
		return el
	}
	s.Pages[0].Elements = []Element{img("a.png"), NewElement(KindRect, 0, 0, 5, 5), img("b.png")}
	second := NewPage()
	second.Elements = []Element{img("a.png"), img("")}
	s.Pages = append(s.Pages, second)

	got := s.ImageSources()
	if len(got) != 2 || got[0] != "a.png" || got[1] != "b.png" {
		t.Errorf("ImageSources() = %v", got)
	}
}

func TestLayerOps(t *testing.T) {
	s := sample()
	s, err := AddLayer{}.Apply(s)
	if err != nil {
		t.Fatalf("AddLayer: %v", err)
	}
	if len(s.AudioLayers) != 2 || s.AudioLayers[1].ID == "" || s.AudioLayers[1].Name != "Track 2" {
		t.Fatalf("unexpected layers: %+v", s.AudioLayers)
	}

	s, err = DeleteLayer{LayerID: "layer-1"}.Apply(s)
	if err != nil {
		t.Fatalf("DeleteLayer: %v", err)
	}
	if len(s.AudioLayers) != 1 || s.AudioLayers[0].Name != "Track 2" {
		t.Errorf("wrong layer removed: %+v", s.AudioLayers)
	}
	if _, err := (DeleteLayer{LayerID: "missing"}).Apply(s); !errors.Is(err, ErrLayerNotFound) {
		t.Errorf("expected ErrLayerNotFound, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := t.TempDir() + "/doc.json"
	s := sample()
	if err := Save(s, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Width != 640 || len(got.Pages) != 1 || len(got.Pages[0].Elements) != 2 {
		t.Fatalf("unexpected document: %+v", got)
	}
	if got.Pages[0].Elements[1].Text != "hello" || got.AudioLayers[0].Clips[0].TotalDuration != 10 {
		t.Errorf("content lost: %+v", got.Pages[0].Elements[1])
	}
}
