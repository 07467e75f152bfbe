package source

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// PDFPages renders every page of a PDF at dpi, in page order.
func PDFPages(ctx context.Context, path string, dpi int) ([]image.Image, error) {
	src, err := NewFitzPDFSource(path)
	if err != nil {
		return nil, err
	}
	n := src.PageCount()
	src.Close()

	pages := make([]image.Image, n)
	err = forEachPage(ctx, n, func(i int) error {
		img, err := renderPDFPage(path, i, dpi)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		pages[i] = img
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// ExtractPages writes each page of src as page-NNN.png into dir and returns
// the written paths in page order.
func ExtractPages(ctx context.Context, src Source, dir string, dpi int) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	paths := make([]string, src.PageCount())
	err := forEachPage(ctx, len(paths), func(i int) error {
		img, err := src.RenderPage(i, dpi)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		p := filepath.Join(dir, fmt.Sprintf("page-%03d.png", i+1))
		if err := writePNG(p, img); err != nil {
			return err
		}
		paths[i] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// forEachPage runs fn for pages [0, n) on up to NumCPU goroutines.
func forEachPage(ctx context.Context, n int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
