package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. PAGEREEL_FPS=60.
const EnvPrefix = "PAGEREEL_"

type Config struct {
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	FPS     int `yaml:"fps"`
	Workers int `yaml:"workers"`

	// Кодирование
	VideoEncoder string   `yaml:"video_encoder"` // "auto" выбирает аппаратный энкодер
	Quality      int      `yaml:"quality"`       // 0 = по умолчанию для энкодера
	Containers   []string `yaml:"containers"`    // порядок перебора контейнеров
	OutputDir    string   `yaml:"output_dir"`
	FFmpegPath   string   `yaml:"ffmpeg_path"`
	FFprobePath  string   `yaml:"ffprobe_path"`
	AssetDPI     int      `yaml:"asset_dpi"`

	ProgressEvery int  `yaml:"progress_every"` // кадров между сообщениями о прогрессе
	HistoryLimit  int  `yaml:"history_limit"`  // 0 = без ограничения
	ShowStats     bool `yaml:"show_stats"`

	PreviewFPS    int           `yaml:"preview_fps"`
	PreviewPeriod time.Duration `yaml:"preview_period"`

	Log LogConfig `yaml:"log"`

	BuildVersion string `yaml:"-"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

func Default() Config {
	return Config{
		Width:         1280,
		Height:        720,
		FPS:           30,
		Workers:       runtime.NumCPU(),
		VideoEncoder:  "auto",
		Quality:       0,
		Containers:    []string{"mp4", "mkv"},
		OutputDir:     ".",
		FFmpegPath:    "ffmpeg",
		FFprobePath:   "ffprobe",
		AssetDPI:      150,
		ProgressEvery: 30,
		PreviewFPS:    60,
		PreviewPeriod: 2 * time.Second,
		Log: LogConfig{
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     14,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then PAGEREEL_* variables from the environment and a
// .env file in the working directory.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// .env не перекрывает уже заданные переменные окружения
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"WIDTH":          &c.Width,
		"HEIGHT":         &c.Height,
		"FPS":            &c.FPS,
		"WORKERS":        &c.Workers,
		"QUALITY":        &c.Quality,
		"ASSET_DPI":      &c.AssetDPI,
		"PROGRESS_EVERY": &c.ProgressEvery,
		"HISTORY_LIMIT":  &c.HistoryLimit,
		"PREVIEW_FPS":    &c.PreviewFPS,
	}
	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	strs := map[string]*string{
		"VIDEO_ENCODER": &c.VideoEncoder,
		"OUTPUT_DIR":    &c.OutputDir,
		"FFMPEG_PATH":   &c.FFmpegPath,
		"FFPROBE_PATH":  &c.FFprobePath,
		"LOG_LEVEL":     &c.Log.Level,
		"LOG_FILE":      &c.Log.File,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "CONTAINERS"); ok {
		c.Containers = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "SHOW_STATS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSHOW_STATS: %w", EnvPrefix, err)
		}
		c.ShowStats = b
	}
	if v, ok := lookup(EnvPrefix + "PREVIEW_PERIOD"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sPREVIEW_PERIOD: %w", EnvPrefix, err)
		}
		c.PreviewPeriod = d
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("invalid canvas %dx%d", c.Width, c.Height)
	case c.Width%2 != 0 || c.Height%2 != 0:
		// yuv420p требует чётных размеров
		return fmt.Errorf("canvas %dx%d must have even sides", c.Width, c.Height)
	case c.FPS <= 0 || c.FPS > 240:
		return fmt.Errorf("invalid fps %d", c.FPS)
	case c.Quality < 0:
		return fmt.Errorf("invalid quality %d", c.Quality)
	case c.Workers <= 0:
		return fmt.Errorf("invalid workers %d", c.Workers)
	case c.ProgressEvery <= 0:
		return fmt.Errorf("invalid progress_every %d", c.ProgressEvery)
	case c.HistoryLimit < 0:
		return fmt.Errorf("invalid history_limit %d", c.HistoryLimit)
	case len(c.Containers) == 0:
		return fmt.Errorf("no output containers configured")
	case c.PreviewFPS <= 0:
		return fmt.Errorf("invalid preview_fps %d", c.PreviewFPS)
	}
	return nil
}
