package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ivlev/pagereel/internal/editor"
	"github.com/ivlev/pagereel/internal/player"
	"github.com/ivlev/pagereel/internal/scene"
	"github.com/ivlev/pagereel/internal/source"
	"github.com/ivlev/pagereel/internal/timeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var previewFlags struct {
	input  string
	output string
	every  time.Duration
	loop   bool
	watch  bool
	hover  string
	from   float64
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Play a document in real time, writing the live frame to a PNG",
	Long: `Runs the interactive loop at preview_fps. The current frame is written to
--output periodically so any image viewer with auto-reload can follow it.
With --watch the document is reloaded whenever it changes on disk.`,
	RunE: runPreview,
}

func init() {
	f := previewCmd.Flags()
	f.StringVarP(&previewFlags.input, "input", "i", "", "document JSON (default: newest file in input/)")
	f.StringVarP(&previewFlags.output, "output", "o", "preview.png", "PNG updated while playing")
	f.DurationVar(&previewFlags.every, "every", 250*time.Millisecond, "how often the PNG is rewritten")
	f.BoolVar(&previewFlags.loop, "loop", false, "restart at the end instead of stopping")
	f.BoolVar(&previewFlags.watch, "watch", false, "reload the document when the file changes")
	f.StringVar(&previewFlags.hover, "hover", "", "element ID to preview on the looping hover clock")
	f.Float64Var(&previewFlags.from, "from", 0, "start time, seconds")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	s, docPath, err := loadDocument(previewFlags.input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cache := source.NewCache(ctx, assetLoader(docPath), log, cfg.Workers)
	ed := editor.New(s, editor.Options{HistoryLimit: cfg.HistoryLimit, Logger: log})

	var lastWrite time.Time
	lastPage := -1
	p := player.New(ed, player.Options{
		FPS:           cfg.PreviewFPS,
		PreviewPeriod: cfg.PreviewPeriod,
		Assets:        cache,
		Logger:        log,
		Hook: func(frame *image.RGBA, res timeline.Resolution) {
			if res.PageIndex != lastPage {
				lastPage = res.PageIndex
				fmt.Printf("[>] t=%.2fs страница %d\n", ed.CurrentTime(), res.PageIndex+1)
			}
			if now := time.Now(); now.Sub(lastWrite) >= previewFlags.every {
				lastWrite = now
				if err := writeFrame(previewFlags.output, frame); err != nil {
					log.Warn("preview frame not written", zap.Error(err))
				}
			}
			if !ed.IsPlaying() {
				if previewFlags.loop || previewFlags.watch {
					ed.Seek(0)
					ed.Play()
				} else {
					cancel()
				}
			}
		},
	})

	if previewFlags.hover != "" {
		if page, ok := pageOf(s, previewFlags.hover); ok {
			p.SetProbe(page, previewFlags.hover, time.Now())
		} else {
			fmt.Printf("[!] Элемент %s не найден, превью наведения отключено\n", previewFlags.hover)
		}
	}

	if previewFlags.watch {
		watcher, err := watchDocument(ctx, docPath, func(next scene.Snapshot) {
			err := ed.Apply(scene.OpFunc(func(scene.Snapshot) (scene.Snapshot, error) { return next, nil }))
			if err != nil {
				log.Warn("reload rejected", zap.Error(err))
				return
			}
			cache.Reset()
			fmt.Printf("[*] Документ перезагружен: %d страниц, %.2fs\n", len(next.Pages), ed.TotalDuration())
		})
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	ed.Seek(previewFlags.from)
	ed.Play()
	fmt.Printf("[*] Превью: %s -> %s (%d FPS)\n", docPath, previewFlags.output, cfg.PreviewFPS)

	err = p.Run(ctx)
	if werr := writeFrame(previewFlags.output, p.Surface()); werr != nil {
		log.Warn("last preview frame not written", zap.Error(werr))
	}
	if errors.Is(err, context.Canceled) {
		fmt.Printf("[+] Превью остановлено, кадров: %d\n", p.Frames())
		return nil
	}
	return err
}

// watchDocument calls reload with the new content each time path is written.
// Invalid intermediate saves are logged and skipped.
func watchDocument(ctx context.Context, path string, reload func(scene.Snapshot)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Следим за папкой: редакторы часто сохраняют через rename.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	target := filepath.Clean(path)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				s, err := scene.Load(path)
				if err == nil {
					err = s.Validate()
				}
				if err != nil {
					log.Warn("document reload failed", zap.String("path", path), zap.Error(err))
					continue
				}
				reload(s)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("watch error", zap.Error(err))
			}
		}
	}()
	return watcher, nil
}

func pageOf(s scene.Snapshot, elementID string) (string, bool) {
	for _, p := range s.Pages {
		if p.ElementIndex(elementID) >= 0 {
			return p.ID, true
		}
	}
	return "", false
}

func writeFrame(path string, img image.Image) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
