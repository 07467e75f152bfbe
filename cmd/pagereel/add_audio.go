package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ivlev/pagereel/internal/audio"
	"github.com/ivlev/pagereel/internal/editor"
	"github.com/ivlev/pagereel/internal/scene"
	"github.com/ivlev/pagereel/internal/system"
	"github.com/spf13/cobra"
)

var addAudioFlags struct {
	input  string
	src    string
	layer  string
	at     float64
	offset float64
	length float64
}

var addAudioCmd = &cobra.Command{
	Use:   "add-audio",
	Short: "Add an audio clip to a document track",
	Long: `Probes the audio file with ffprobe and places it on the named track
(created when missing). The document is rewritten in place.`,
	RunE: runAddAudio,
}

func init() {
	f := addAudioCmd.Flags()
	f.StringVarP(&addAudioFlags.input, "input", "i", "", "document JSON (default: newest file in input/)")
	f.StringVar(&addAudioFlags.src, "src", "", "audio file (default: newest file in input/audio/)")
	f.StringVar(&addAudioFlags.layer, "layer", "Music", "track name")
	f.Float64Var(&addAudioFlags.at, "at", 0, "start on the timeline, seconds")
	f.Float64Var(&addAudioFlags.offset, "offset", 0, "skip this much of the source, seconds")
	f.Float64Var(&addAudioFlags.length, "length", 0, "play this long (default: rest of the source)")
	rootCmd.AddCommand(addAudioCmd)
}

func runAddAudio(cmd *cobra.Command, args []string) error {
	s, docPath, err := loadDocument(addAudioFlags.input)
	if err != nil {
		return err
	}

	src := addAudioFlags.src
	if src == "" {
		latest, err := system.FindLatest(filepath.Join(inputDir, "audio"), ".mp3", ".wav", ".m4a", ".aac", ".ogg", ".flac")
		if err != nil {
			return fmt.Errorf("%v. Положите аудио в %s/audio/", err, inputDir)
		}
		src = latest
		fmt.Printf("[*] Выбрано аудио: %s\n", src)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	total, err := audio.FFprobeDecoder{FFprobePath: cfg.FFprobePath}.Duration(ctx, src)
	if err != nil {
		return fmt.Errorf("не удалось получить длительность аудио: %w", err)
	}

	ed := editor.New(s, editor.Options{Logger: log})
	layerID := ""
	ed.View(func(s scene.Snapshot) {
		for _, l := range s.AudioLayers {
			if l.Name == addAudioFlags.layer {
				layerID = l.ID
				return
			}
		}
	})
	if layerID == "" {
		layerID = scene.NewID()
		if err := ed.Apply(scene.AddLayer{Layer: scene.AudioLayer{ID: layerID, Name: addAudioFlags.layer}}); err != nil {
			return err
		}
	}

	// путь клипа хранится относительно документа
	rel := src
	if abs, err := filepath.Abs(src); err == nil {
		if docDir, err := filepath.Abs(filepath.Dir(docPath)); err == nil {
			if r, err := filepath.Rel(docDir, abs); err == nil {
				rel = filepath.ToSlash(r)
			}
		}
	}

	clip := scene.AudioClip{
		Src:           rel,
		Label:         filepath.Base(src),
		StartAt:       addAudioFlags.at,
		Offset:        addAudioFlags.offset,
		Duration:      addAudioFlags.length,
		TotalDuration: total,
	}
	if err := ed.Apply(audio.AddClip{LayerID: layerID, Clip: clip}); err != nil {
		return err
	}

	if err := scene.Save(ed.Snapshot(), docPath); err != nil {
		return err
	}
	fmt.Printf("[+] Клип %s (%.2fs) добавлен на дорожку %q, общая длительность %.2fs\n", clip.Label, total, addAudioFlags.layer, ed.TotalDuration())
	return nil
}
