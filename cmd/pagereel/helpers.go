package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/pagereel/internal/audio"
	"github.com/ivlev/pagereel/internal/export"
	"github.com/ivlev/pagereel/internal/scene"
	"github.com/ivlev/pagereel/internal/source"
	"github.com/ivlev/pagereel/internal/system"
	"github.com/ivlev/pagereel/internal/video"
)

const inputDir = "input"

// loadDocument reads and validates a document. An empty path picks the most
// recent .json file in input/.
func loadDocument(path string) (scene.Snapshot, string, error) {
	if path == "" {
		latest, err := system.FindLatest(inputDir, ".json")
		if err != nil {
			return scene.Snapshot{}, "", fmt.Errorf("%v. Положите документ в %s/", err, inputDir)
		}
		path = latest
		fmt.Printf("[*] Выбран файл: %s\n", path)
	}
	s, err := scene.Load(path)
	if err != nil {
		return scene.Snapshot{}, "", err
	}
	if err := s.Validate(); err != nil {
		return scene.Snapshot{}, "", fmt.Errorf("%s: %w", path, err)
	}
	return s, path, nil
}

// outputBase is the output path without extension. Without an explicit
// output it is <output_dir>/<document>_<timestamp>.
func outputBase(docPath, out string) string {
	if out != "" {
		return strings.TrimSuffix(out, filepath.Ext(out))
	}
	baseName := filepath.Base(docPath)
	nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%s", cleanName, timestamp))
}

// resolveEncoder turns "auto" into the best H.264 encoder available.
func resolveEncoder() string {
	if cfg.VideoEncoder != "" && cfg.VideoEncoder != "auto" {
		return cfg.VideoEncoder
	}
	encoderName := system.GetBestH264Encoder(cfg.FFmpegPath)
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}
	return encoderName
}

// assetLoader resolves relative asset paths against the document's folder.
func assetLoader(docPath string) *source.Loader {
	l := source.NewLoader(filepath.Dir(docPath))
	l.DPI = cfg.AssetDPI
	return l
}

func newExporter(docPath string) (*export.Exporter, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, err
	}
	encoder := resolveEncoder()
	exp := &export.Exporter{
		NewSink: export.FFmpegSink(cfg.FFmpegPath, encoder, cfg.Quality),
		Mixer:   &audio.FFmpegMixer{FFmpegPath: cfg.FFmpegPath, Logger: log},
		Decoder: audio.FFprobeDecoder{FFprobePath: cfg.FFprobePath},
		Muxer: &video.Muxer{
			FFmpegPath: cfg.FFmpegPath,
			Containers: cfg.Containers,
			Quality:    cfg.Quality,
			Logger:     log,
		},
		Assets:        assetLoader(docPath),
		Logger:        log,
		Workers:       cfg.Workers,
		ProgressEvery: cfg.ProgressEvery,
		ShowStats:     cfg.ShowStats,
		BuildVersion:  cfg.BuildVersion,
	}
	if cfg.ShowStats {
		exp.BenchmarkLog = filepath.Join(cfg.OutputDir, "benchmark.log")
	}
	return exp, nil
}

// resolveAudioPaths makes relative clip sources relative to the document's
// folder, since ffmpeg runs from the current directory.
func resolveAudioPaths(s *scene.Snapshot, docPath string) {
	dir := filepath.Dir(docPath)
	for i := range s.AudioLayers {
		for j := range s.AudioLayers[i].Clips {
			c := &s.AudioLayers[i].Clips[j]
			if c.Src == "" || filepath.IsAbs(c.Src) || strings.Contains(c.Src, "://") {
				continue
			}
			c.Src = filepath.Join(dir, c.Src)
		}
	}
}
