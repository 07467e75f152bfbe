package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagereel.yaml")
	data := []byte(`
width: 1920
height: 1080
fps: 60
containers: [mkv]
preview_period: 3s
log:
  level: debug
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 1920 || cfg.Height != 1080 || cfg.FPS != 60 {
		t.Errorf("canvas not loaded: %+v", cfg)
	}
	if len(cfg.Containers) != 1 || cfg.Containers[0] != "mkv" {
		t.Errorf("containers = %v", cfg.Containers)
	}
	if cfg.PreviewPeriod != 3*time.Second || cfg.Log.Level != "debug" {
		t.Errorf("nested values not loaded: %v %q", cfg.PreviewPeriod, cfg.Log.Level)
	}
	if cfg.ProgressEvery != 30 {
		t.Errorf("unset field lost its default: %d", cfg.ProgressEvery)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PAGEREEL_FPS":            "25",
		"PAGEREEL_CONTAINERS":     "webm, mp4",
		"PAGEREEL_SHOW_STATS":     "true",
		"PAGEREEL_FFMPEG_PATH":    "/usr/local/bin/ffmpeg",
		"PAGEREEL_PREVIEW_PERIOD": "500ms",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	if cfg.FPS != 25 || !cfg.ShowStats || cfg.FFmpegPath != "/usr/local/bin/ffmpeg" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if len(cfg.Containers) != 2 || cfg.Containers[0] != "webm" || cfg.Containers[1] != "mp4" {
		t.Errorf("containers = %v", cfg.Containers)
	}
	if cfg.PreviewPeriod != 500*time.Millisecond {
		t.Errorf("preview period = %v", cfg.PreviewPeriod)
	}

	env = map[string]string{"PAGEREEL_WORKERS": "many"}
	if err := cfg.applyEnv(lookup); err == nil {
		t.Error("expected an error for a non-numeric value")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"odd width", func(c *Config) { c.Width = 1279 }},
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"no containers", func(c *Config) { c.Containers = nil }},
		{"negative history", func(c *Config) { c.HistoryLimit = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
