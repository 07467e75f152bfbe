// Package director turns detected content blocks into a reading guide: a
// translucent highlight per block, revealed one after another in reading
// order while the page is on screen.
package director

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/ivlev/pagereel/internal/analyzer"
	"github.com/ivlev/pagereel/internal/scene"
	"golang.org/x/sync/errgroup"
)

// Director places highlight cues on a page timeline.
type Director struct {
	Lead         float64 // полный вид до первого блока, с
	Tail         float64 // полный вид после последнего, с
	MinDwell     float64 // минимальное время на блок, с
	MaxDwell     float64 // максимальное время на блок, с
	RowTolerance int     // блоки с разницей по Y до этого значения в одной строке, px
	MaxBlocks    int     // 0 = без ограничения
	Fill         string
	Opacity      float64
}

// NewDirector creates a Director with default settings.
func NewDirector() *Director {
	return &Director{
		Lead:         1.0,
		Tail:         1.0,
		MinDwell:     1.0,
		MaxDwell:     3.0,
		RowTolerance: 20,
		Fill:         "#facc15",
		Opacity:      0.3,
	}
}

// Cue is a block and the local page time at which it is highlighted.
type Cue struct {
	Block analyzer.Block
	At    float64
}

// Plan sorts blocks in reading order and spreads them over a page lasting
// duration seconds. The returned duration is extended when the blocks do
// not fit at MinDwell each.
func (d *Director) Plan(blocks []analyzer.Block, duration float64) ([]Cue, float64) {
	if len(blocks) == 0 {
		return nil, duration
	}
	sorted := d.readingOrder(blocks)
	if d.MaxBlocks > 0 && len(sorted) > d.MaxBlocks {
		sorted = sorted[:d.MaxBlocks]
	}
	dwell := d.dwell(duration, len(sorted))

	cues := make([]Cue, len(sorted))
	at := d.Lead
	for i, b := range sorted {
		cues[i] = Cue{Block: b, At: at}
		at += dwell
	}
	if need := at + d.Tail; need > duration {
		duration = need
	}
	return cues, duration
}

// readingOrder sorts top-to-bottom, then left-to-right within a row.
func (d *Director) readingOrder(blocks []analyzer.Block) []analyzer.Block {
	sorted := make([]analyzer.Block, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		dy := sorted[i].Rect.Min.Y - sorted[j].Rect.Min.Y
		if abs(dy) > d.RowTolerance {
			return dy < 0
		}
		return sorted[i].Rect.Min.X < sorted[j].Rect.Min.X
	})
	return sorted
}

func (d *Director) dwell(duration float64, n int) float64 {
	available := duration - d.Lead - d.Tail
	if available <= 0 {
		available = duration
	}
	dwell := available / float64(n)
	if dwell < d.MinDwell {
		dwell = d.MinDwell
	}
	if dwell > d.MaxDwell {
		dwell = d.MaxDwell
	}
	return dwell
}

// Annotate appends a highlight for each block over the image element
// imageID. Block rectangles are raster pixels of a frame with the given
// bounds and are mapped onto the element's box.
func (d *Director) Annotate(p scene.Page, imageID string, frame image.Rectangle, blocks []analyzer.Block) (scene.Page, error) {
	ei := p.ElementIndex(imageID)
	if ei < 0 {
		return p, scene.ErrElementNotFound
	}
	if frame.Empty() {
		return p, fmt.Errorf("%w: empty frame", scene.ErrInvalid)
	}
	cues, duration := d.Plan(blocks, p.Duration)
	if len(cues) == 0 {
		return p, nil
	}

	out := p.Clone()
	out.Duration = duration
	img := out.Elements[ei]
	kx := img.Width / float64(frame.Dx())
	ky := img.Height / float64(frame.Dy())
	for _, c := range cues {
		r := c.Block.Rect.Sub(frame.Min)
		h := scene.NewElement(scene.KindRect,
			img.X+float64(r.Min.X)*kx, img.Y+float64(r.Min.Y)*ky,
			float64(r.Dx())*kx, float64(r.Dy())*ky)
		h.Fill = d.Fill
		h.Opacity = d.Opacity
		h.Animation = &scene.Animation{Type: scene.AnimFade, Speed: 2, Delay: c.At, Mode: scene.ModeEnter}
		out.Elements = append(out.Elements, h)
	}
	return out, nil
}

// RenderFunc rasterises source page i for analysis.
type RenderFunc func(i int) (image.Image, error)

// AnnotateDeck runs detection on every page of a deck built with one image
// element per page and adds the highlights. Pages are analysed in parallel;
// it returns the number of blocks placed.
func (d *Director) AnnotateDeck(ctx context.Context, s scene.Snapshot, render RenderFunc, det analyzer.Detector, workers int) (scene.Snapshot, int, error) {
	out := s.Clone()
	counts := make([]int, len(out.Pages))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range out.Pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := out.Pages[i]
			if len(p.Elements) == 0 || p.Elements[0].Kind != scene.KindImage {
				return nil
			}
			img, err := render(i)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			blocks, err := det.Detect(img)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			annotated, err := d.Annotate(p, p.Elements[0].ID, img.Bounds(), blocks)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			out.Pages[i] = annotated
			counts[i] = len(annotated.Elements) - len(p.Elements)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s, 0, err
	}
	if err := ctx.Err(); err != nil {
		return s, 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return out, total, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
