package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivlev/pagereel/internal/editor"
	"github.com/ivlev/pagereel/internal/export"
	"github.com/spf13/cobra"
)

var exportFlags struct {
	input   string
	output  string
	fps     int
	workers int
	stats   bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a document to a video file",
	Long: `Renders every frame of the document offline, mixes its audio tracks and
muxes both into the first container from the config that ffmpeg supports.`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportFlags.input, "input", "i", "", "document JSON (default: newest file in input/)")
	f.StringVarP(&exportFlags.output, "output", "o", "", "output path; the extension follows the chosen container")
	f.IntVar(&exportFlags.fps, "fps", 0, "frames per second (default from config)")
	f.IntVar(&exportFlags.workers, "workers", 0, "render goroutines (default from config)")
	f.BoolVar(&exportFlags.stats, "stats", false, "print the performance report")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFlags.fps > 0 {
		cfg.FPS = exportFlags.fps
	}
	if exportFlags.workers > 0 {
		cfg.Workers = exportFlags.workers
	}
	if exportFlags.stats {
		cfg.ShowStats = true
	}

	s, docPath, err := loadDocument(exportFlags.input)
	if err != nil {
		return err
	}
	resolveAudioPaths(&s, docPath)

	exp, err := newExporter(docPath)
	if err != nil {
		return err
	}
	ed := editor.New(s, editor.Options{HistoryLimit: cfg.HistoryLimit, Logger: log})

	fmt.Println("--- [PAGEREEL: EXPORT] ---")
	fmt.Printf("[*] Документ: %s | Страниц: %d | Длительность: %.2fs\n", docPath, len(s.Pages), ed.TotalDuration())
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Потоков: %d\n", s.Width, s.Height, cfg.FPS, cfg.Workers)
	fmt.Println("-----------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	last := -10
	res, err := ed.Export(ctx, exp, export.Job{
		OutBase: outputBase(docPath, exportFlags.output),
		FPS:     cfg.FPS,
		OnProgress: func(p float64) {
			pct := int(p * 100)
			if pct/10 != last/10 {
				last = pct
				fmt.Printf("[>] Ready: %d%%\n", pct)
			}
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("[!] Экспорт отменён")
		}
		return fmt.Errorf("ошибка экспорта: %w", err)
	}

	fmt.Printf("[+++] Успех! Результат: %s (%d кадров)\n", res.Path, res.Frames)
	return nil
}
