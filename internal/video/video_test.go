package video

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestRecorderArgs(t *testing.T) {
	args := buildRecorderArgs(RecorderOptions{
		Path: "/tmp/v.mkv", Width: 1280, Height: 720, FPS: 30, Encoder: "auto", Quality: 23,
	})
	line := strings.Join(args, " ")
	for _, want := range []string{
		"-f rawvideo -pixel_format rgba -video_size 1280x720 -framerate 30 -i -",
		"-c:v libx264 -crf 23 -preset medium",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("args missing %q: %s", want, line)
		}
	}
	if args[len(args)-1] != "/tmp/v.mkv" {
		t.Errorf("output path must be last, got %q", args[len(args)-1])
	}
}

func TestQualityArgs(t *testing.T) {
	tests := []struct {
		encoder string
		want    string
	}{
		{"h264_videotoolbox", "-b:v 2300k"},
		{"h264_nvenc", "-cq 23"},
		{"libx264", "-crf 23 -preset medium"},
		{"libvpx-vp9", "-crf 23 -b:v 0"},
	}
	for _, tt := range tests {
		if got := strings.Join(qualityArgs(tt.encoder, 23), " "); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.encoder, got, tt.want)
		}
	}
}

func TestWriteRawRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{1, 2, 3, 4})
	var buf bytes.Buffer
	if err := writeRawRGBA(&buf, img); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 16 || !bytes.Equal(buf.Bytes()[12:], []byte{1, 2, 3, 4}) {
		t.Errorf("unexpected bytes: %v", buf.Bytes())
	}

	// подизображение с ненулевым началом копируется плотно
	sub := img.SubImage(image.Rect(1, 1, 2, 2))
	buf.Reset()
	if err := writeRawRGBA(&buf, sub); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{1, 2, 3, 4}) {
		t.Errorf("sub image bytes: %v", buf.Bytes())
	}
}

func TestPickFallsBack(t *testing.T) {
	m := &Muxer{
		Containers: []string{"avi", "mp4", "mkv"},
		Supports:   func(muxer string) bool { return muxer == "matroska" },
	}
	c, err := m.Pick()
	if err != nil {
		t.Fatal(err)
	}
	if c.Ext != "mkv" {
		t.Errorf("picked %q, want mkv", c.Ext)
	}

	m.Supports = func(string) bool { return false }
	if _, err := m.Pick(); !errors.Is(err, ErrNoContainer) {
		t.Errorf("expected ErrNoContainer, got %v", err)
	}
}

func TestMuxArgs(t *testing.T) {
	m := &Muxer{Quality: 30}
	mp4, _ := LookupContainer("MP4")
	line := strings.Join(m.buildArgs(mp4, "v.mkv", "a.wav", "out.mp4"), " ")
	for _, want := range []string{"-i v.mkv -i a.wav", "-map 0:v:0 -map 1:a:0", "-c:v copy", "-c:a aac", "+faststart", "-f mp4 out.mp4"} {
		if !strings.Contains(line, want) {
			t.Errorf("mp4 args missing %q: %s", want, line)
		}
	}

	webm, _ := LookupContainer("webm")
	line = strings.Join(m.buildArgs(webm, "v.mkv", "", "out.webm"), " ")
	if strings.Contains(line, "-map 1:a:0") || strings.Contains(line, "-c:a") {
		t.Errorf("silent mux must not map audio: %s", line)
	}
	if !strings.Contains(line, "-c:v libvpx-vp9 -crf 30 -b:v 0") {
		t.Errorf("webm must re-encode video: %s", line)
	}
}
