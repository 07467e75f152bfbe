package source

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

type paintedSource struct {
	n int
}

func (s paintedSource) PageCount() int { return s.n }
func (s paintedSource) GetPageDimensions(int) (float64, float64, error) {
	return 8, 4, nil
}
func (s paintedSource) RenderPage(i, dpi int) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(0, 0, color.RGBA{uint8(i * 10), 0, 0, 255})
	return img, nil
}
func (s paintedSource) Ref(i int) string { return "" }
func (s paintedSource) Close() error     { return nil }

func TestExtractPages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pages")
	paths, err := ExtractPages(context.Background(), paintedSource{n: 5}, dir, 72)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 5 || filepath.Base(paths[4]) != "page-005.png" {
		t.Fatalf("paths = %v", paths)
	}

	// извлечённые страницы снова открываются как источник
	src, err := NewImageSource(dir)
	if err != nil {
		t.Fatal(err)
	}
	if src.PageCount() != 5 {
		t.Fatalf("page count = %d", src.PageCount())
	}
	img, err := src.RenderPage(3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 != 30 {
		t.Errorf("page 4 marker = %d, want 30", r>>8)
	}
}

func TestExtractPagesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ExtractPages(ctx, paintedSource{n: 3}, t.TempDir(), 72); err == nil {
		t.Error("cancelled extraction should fail")
	}
}
