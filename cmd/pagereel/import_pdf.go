package main

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/ivlev/pagereel/internal/analyzer"
	"github.com/ivlev/pagereel/internal/director"
	"github.com/ivlev/pagereel/internal/scene"
	"github.com/ivlev/pagereel/internal/source"
	"github.com/ivlev/pagereel/internal/system"
	"github.com/ivlev/pagereel/internal/timeline"
	"github.com/spf13/cobra"
)

var importFlags struct {
	input        string
	output       string
	duration     float64
	animation    string
	background   string
	extract      string
	highlight    bool
	highlightDPI int
	detector     string
}

var importCmd = &cobra.Command{
	Use:   "import-pdf",
	Short: "Build a document with one page per PDF page or image",
	Long: `Creates a document whose pages each show one page of a PDF (or one image
of a folder), fitted to the canvas. Pages reference the PDF directly as
"file.pdf#page=N" unless --extract renders them to PNG files first.
With --highlight each page gets a reading guide: detected content blocks
are highlighted one after another in reading order.`,
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVarP(&importFlags.input, "input", "i", "", "PDF or image folder (default: newest PDF in input/pdf/)")
	f.StringVarP(&importFlags.output, "output", "o", "", "document JSON (default: next to the input)")
	f.Float64Var(&importFlags.duration, "page-duration", scene.DefaultPageDuration, "seconds per page")
	f.StringVar(&importFlags.animation, "animation", "fade", "page animation: none, fade, slide, zoom")
	f.StringVar(&importFlags.background, "background", "#000000", "page background")
	f.StringVar(&importFlags.extract, "extract", "", "render pages as PNG files into this folder")
	f.BoolVar(&importFlags.highlight, "highlight", false, "highlight detected content blocks in reading order")
	f.IntVar(&importFlags.highlightDPI, "highlight-dpi", 72, "DPI used for block detection")
	f.StringVar(&importFlags.detector, "detector", "contrast", "block detector variant")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	inputPath := importFlags.input
	if inputPath == "" {
		latest, err := system.FindLatest(filepath.Join(inputDir, "pdf"), ".pdf")
		if err != nil {
			return fmt.Errorf("%v. Положите PDF в %s/pdf/", err, inputDir)
		}
		inputPath = latest
		fmt.Printf("[*] Выбран файл: %s\n", inputPath)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	src, err := source.Open(inputPath)
	if err != nil {
		return fmt.Errorf("ошибка инициализации источника: %w", err)
	}
	defer func() { src.Close() }()
	fmt.Printf("[*] Источник: %s | Страниц: %d\n", inputPath, src.PageCount())

	if importFlags.extract != "" {
		paths, err := source.ExtractPages(ctx, src, importFlags.extract, cfg.AssetDPI)
		if err != nil {
			return fmt.Errorf("извлечение страниц: %w", err)
		}
		fmt.Printf("[+] Извлечено страниц: %d -> %s\n", len(paths), importFlags.extract)
		src.Close()
		if src, err = source.NewImageSource(importFlags.extract); err != nil {
			return err
		}
	}

	var anim *scene.Animation
	if importFlags.animation != "" && importFlags.animation != string(scene.AnimNone) {
		anim = &scene.Animation{Type: scene.AnimationType(importFlags.animation), Speed: 1}
	}
	s, err := source.Deck(src, source.DeckOptions{
		Width:        cfg.Width,
		Height:       cfg.Height,
		PageDuration: importFlags.duration,
		Background:   importFlags.background,
		Animation:    anim,
	})
	if err != nil {
		return err
	}
	if importFlags.highlight {
		det, err := analyzer.NewDetector(importFlags.detector)
		if err != nil {
			return err
		}
		render := func(i int) (image.Image, error) { return src.RenderPage(i, importFlags.highlightDPI) }
		var n int
		s, n, err = director.NewDirector().AnnotateDeck(ctx, s, render, det, cfg.Workers)
		if err != nil {
			return fmt.Errorf("анализ страниц: %w", err)
		}
		fmt.Printf("[+] Найдено блоков: %d\n", n)
	}
	if err := s.Validate(); err != nil {
		return err
	}

	out := importFlags.output
	if out == "" {
		out = strings.TrimSuffix(filepath.Clean(inputPath), filepath.Ext(inputPath)) + ".json"
	}
	relativize(&s, filepath.Dir(out))
	if err := scene.Save(s, out); err != nil {
		return err
	}
	fmt.Printf("[+] Документ сохранён: %s (%d страниц, %.2fs)\n", out, len(s.Pages), timeline.Duration(s))
	return nil
}

// relativize rewrites image sources relative to the document's folder, which
// is where the loader resolves them at render time.
func relativize(s *scene.Snapshot, docDir string) {
	base, err := filepath.Abs(docDir)
	if err != nil {
		return
	}
	for i := range s.Pages {
		for j := range s.Pages[i].Elements {
			el := &s.Pages[i].Elements[j]
			if el.Kind != scene.KindImage || el.Src == "" {
				continue
			}
			path, fragment, _ := strings.Cut(el.Src, "#")
			abs, err := filepath.Abs(path)
			if err != nil {
				continue
			}
			rel, err := filepath.Rel(base, abs)
			if err != nil {
				continue
			}
			el.Src = filepath.ToSlash(rel)
			if fragment != "" {
				el.Src += "#" + fragment
			}
		}
	}
}
