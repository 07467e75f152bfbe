package main

import (
	"context"
	"fmt"
	"image/png"
	"os"

	"github.com/ivlev/pagereel/internal/compositor"
	"github.com/ivlev/pagereel/internal/source"
	"github.com/spf13/cobra"
)

var frameFlags struct {
	input    string
	output   string
	at       float64
	selected string
}

var frameCmd = &cobra.Command{
	Use:   "frame",
	Short: "Render the frame at one instant to a PNG",
	RunE:  runFrame,
}

func init() {
	f := frameCmd.Flags()
	f.StringVarP(&frameFlags.input, "input", "i", "", "document JSON (default: newest file in input/)")
	f.StringVarP(&frameFlags.output, "output", "o", "frame.png", "PNG path")
	f.Float64VarP(&frameFlags.at, "time", "t", 0, "global time in seconds")
	f.StringVar(&frameFlags.selected, "select", "", "element ID to draw with selection handles")
	rootCmd.AddCommand(frameCmd)
}

func runFrame(cmd *cobra.Command, args []string) error {
	s, docPath, err := loadDocument(frameFlags.input)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cache := source.NewCache(ctx, assetLoader(docPath), log, cfg.Workers)
	if err := cache.Preload(ctx, s.ImageSources()); err != nil {
		return err
	}

	r := compositor.NewRenderer(s.Width, s.Height, compositor.Options{Assets: cache, Logger: log})
	res, ok := r.Render(s, frameFlags.at, compositor.Overlay{SelectedElementID: frameFlags.selected})
	if !ok {
		return fmt.Errorf("документ не содержит страниц")
	}

	f, err := os.Create(frameFlags.output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, r.Surface()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("[+] Кадр %.3fs (страница %d, %.3fs) сохранён: %s\n", frameFlags.at, res.PageIndex+1, res.LocalTime, frameFlags.output)
	return nil
}
