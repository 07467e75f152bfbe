// Package compositor draws one frame of a page: background, page transform
// and every element with its evaluated animation. The interactive renderer
// and the export worker call the same code, so equal inputs give equal
// pixels.
package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/ivlev/pagereel/internal/animation"
	"github.com/ivlev/pagereel/internal/scene"
	"github.com/ivlev/pagereel/internal/system"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// AssetSource supplies decoded images for image elements. Lookup must not
// block; a missing or failed asset reports false and a placeholder is drawn.
type AssetSource interface {
	Lookup(src string) (image.Image, bool)
}

// Probe replaces the regular evaluation of one element (or, with an empty
// ElementID, of the page) with the looping preview clock.
type Probe struct {
	PageID    string
	ElementID string
	Clock     animation.PreviewClock
	Now       time.Time
}

type Options struct {
	Assets AssetSource
	Logger *zap.Logger
	Probe  *Probe
}

func (o Options) log() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// RenderFrame draws page at localTime into dst. The canvas size is dst's
// size; dst is fully overwritten.
func RenderFrame(dst *image.RGBA, page scene.Page, localTime float64, opts Options) {
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(color.Black), image.Point{}, draw.Src)

	pst := pageState(page, localTime, b.Dx(), b.Dy(), opts.Probe)
	pm := pageMatrix(pst, b.Dx(), b.Dy())
	pageAlpha := clamp(pst.Opacity, 0, 1)
	if pageAlpha <= 0 {
		return
	}

	drawBackground(dst, page.Background, pm, pageAlpha, opts.log())
	for _, el := range page.Elements {
		st := elementState(el, page, localTime, opts.Probe)
		drawElement(dst, pm, pageAlpha, el, st, opts)
	}
}

func pageState(page scene.Page, localTime float64, w, h int, probe *Probe) animation.State {
	if probe != nil && probe.ElementID == "" && probe.PageID == page.ID {
		return animation.PreviewPage(page.Animation, probe.Clock, probe.Now, w, h)
	}
	return animation.EvaluatePage(page.Animation, localTime, page.Duration, w, h)
}

func elementState(el scene.Element, page scene.Page, localTime float64, probe *Probe) animation.State {
	if probe != nil && probe.ElementID == el.ID {
		return animation.Preview(el.Animation, probe.Clock, probe.Now)
	}
	return animation.EvaluateSpan(el.Animation, localTime, page.Duration)
}

func drawBackground(dst *image.RGBA, bg string, pm f64.Aff3, alpha float64, log *zap.Logger) {
	if isIdentity(pm) && alpha >= 1 {
		paintBackground(dst, bg, log)
		return
	}
	b := dst.Bounds()
	layer := system.GetImage(b)
	defer system.PutImage(layer)
	paintBackground(layer, bg, log)
	if isIdentity(pm) {
		mask := image.NewUniform(color.Alpha16{A: uint16(alpha * 0xffff)})
		draw.DrawMask(dst, b, layer, b.Min, mask, image.Point{}, draw.Over)
		return
	}
	xdraw.BiLinear.Transform(dst, pm, layer, layer.Bounds(), xdraw.Over, alphaOptions(alpha))
}

func drawElement(dst *image.RGBA, pm f64.Aff3, pageAlpha float64, el scene.Element, st animation.State, opts Options) {
	alpha := clamp(el.Opacity*st.Opacity*pageAlpha, 0, 1)
	if alpha <= 0 || el.Scale*st.Scale == 0 {
		return
	}
	m := elementMatrix(pm, el, st)
	log := opts.log()

	switch {
	case el.Kind.IsShape():
		fillPath(dst, m, outline(el.Kind, el.Width, el.Height), withAlpha(colourOf(el.Fill, log), alpha))
	case el.Kind == scene.KindText:
		img, err := rasterText(el, colourOf(el.Fill, log))
		if err != nil {
			log.Warn("text render failed", zap.String("element", el.ID), zap.Error(err))
			return
		}
		drawImage(dst, m, img, el.Width, el.Height, alpha, xdraw.BiLinear)
	case el.Kind == scene.KindImage:
		var img image.Image
		ok := false
		if opts.Assets != nil && el.Src != "" {
			img, ok = opts.Assets.Lookup(el.Src)
		}
		if !ok {
			fillPath(dst, m, outline(scene.KindRect, el.Width, el.Height), withAlpha(placeholder, alpha))
			return
		}
		drawImage(dst, m, img, el.Width, el.Height, alpha, xdraw.BiLinear)
	case el.Kind == scene.KindQR:
		img, err := rasterQR(el, colourOf(el.Fill, log))
		if err != nil {
			log.Warn("qr render failed", zap.String("element", el.ID), zap.Error(err))
			fillPath(dst, m, outline(scene.KindRect, el.Width, el.Height), withAlpha(placeholder, alpha))
			return
		}
		drawImage(dst, m, img, el.Width, el.Height, alpha, xdraw.NearestNeighbor)
	default:
		log.Debug("skipping unknown element kind", zap.String("element", el.ID), zap.String("kind", string(el.Kind)))
	}
}
