package compositor

import (
	"image"
	"image/color"

	"github.com/ivlev/pagereel/internal/scene"
	"github.com/ivlev/pagereel/internal/timeline"
	"golang.org/x/image/math/f64"
)

// Selection affordance geometry, in canvas pixels.
const (
	outlineWidth = 2.0
	handleSize   = 8.0
)

var selectionColour = color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}

// Overlay is the interactive-only decoration of a frame. Export renders
// without one.
type Overlay struct {
	SelectedElementID string
	Probe             *Probe
}

// Renderer owns a drawing surface and redraws it from a snapshot on demand.
// It is not safe for concurrent use.
type Renderer struct {
	surface *image.RGBA
	opts    Options
}

func NewRenderer(width, height int, opts Options) *Renderer {
	return &Renderer{
		surface: image.NewRGBA(image.Rect(0, 0, width, height)),
		opts:    opts,
	}
}

// Surface returns the image the last Render drew into.
func (r *Renderer) Surface() *image.RGBA {
	return r.surface
}

// Render draws the frame of s at global time t. It reports the resolved
// page; ok is false when the snapshot has no pages and the surface is
// cleared.
func (r *Renderer) Render(s scene.Snapshot, t float64, ov Overlay) (timeline.Resolution, bool) {
	if b := r.surface.Bounds(); s.Width > 0 && s.Height > 0 && (b.Dx() != s.Width || b.Dy() != s.Height) {
		r.surface = image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	}
	res, ok := timeline.Resolve(s.Pages, t)
	if !ok {
		clear(r.surface.Pix)
		return res, false
	}

	opts := r.opts
	opts.Probe = ov.Probe
	RenderFrame(r.surface, res.Page, res.LocalTime, opts)

	if ov.SelectedElementID != "" {
		if m, el, ok := r.elementGeometry(res.Page, res.LocalTime, ov.SelectedElementID, opts.Probe); ok {
			drawSelection(r.surface, m, el)
		}
	}
	return res, true
}

// HitTest returns the topmost element of page under the canvas point (x, y)
// at localTime.
func (r *Renderer) HitTest(page scene.Page, localTime, x, y float64) (string, bool) {
	b := r.surface.Bounds()
	return HitTest(page, localTime, x, y, b.Dx(), b.Dy())
}

// HitTest is Renderer.HitTest for a canvas of the given size.
func HitTest(page scene.Page, localTime, x, y float64, width, height int) (string, bool) {
	pm := pageMatrix(pageState(page, localTime, width, height, nil), width, height)
	for i := len(page.Elements) - 1; i >= 0; i-- {
		el := page.Elements[i]
		m := elementMatrix(pm, el, elementState(el, page, localTime, nil))
		inv, ok := invert(m)
		if !ok {
			continue
		}
		lx, ly := apply(inv, x, y)
		if lx >= 0 && ly >= 0 && lx <= el.Width && ly <= el.Height {
			return el.ID, true
		}
	}
	return "", false
}

func (r *Renderer) elementGeometry(page scene.Page, localTime float64, id string, probe *Probe) (f64.Aff3, scene.Element, bool) {
	i := page.ElementIndex(id)
	if i < 0 {
		return f64.Aff3{}, scene.Element{}, false
	}
	b := r.surface.Bounds()
	el := page.Elements[i]
	pm := pageMatrix(pageState(page, localTime, b.Dx(), b.Dy(), probe), b.Dx(), b.Dy())
	return elementMatrix(pm, el, elementState(el, page, localTime, probe)), el, true
}

// drawSelection outlines the element box and marks its eight resize handles.
func drawSelection(dst *image.RGBA, m f64.Aff3, el scene.Element) {
	w, h := el.Width, el.Height
	corners := [][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}}
	for i := range corners {
		x0, y0 := apply(m, corners[i][0], corners[i][1])
		x1, y1 := apply(m, corners[(i+1)%4][0], corners[(i+1)%4][1])
		strokeLine(dst, x0, y0, x1, y1, outlineWidth, selectionColour)
	}

	handles := [][2]float64{
		{0, 0}, {w / 2, 0}, {w, 0},
		{w, h / 2}, {w, h},
		{w / 2, h}, {0, h}, {0, h / 2},
	}
	half := handleSize / 2
	for _, p := range handles {
		x, y := apply(m, p[0], p[1])
		box := polygon(
			[2]float64{x - half, y - half}, [2]float64{x + half, y - half},
			[2]float64{x + half, y + half}, [2]float64{x - half, y + half},
		)
		fillPath(dst, identity(), box, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
		inner := polygon(
			[2]float64{x - half + 1, y - half + 1}, [2]float64{x + half - 1, y - half + 1},
			[2]float64{x + half - 1, y + half - 1}, [2]float64{x - half + 1, y + half - 1},
		)
		fillPath(dst, identity(), inner, selectionColour)
	}
}
