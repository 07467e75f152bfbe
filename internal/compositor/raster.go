package compositor

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/ivlev/pagereel/internal/scene"
	"github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// DefaultFontSize applies to text elements without a font size.
const DefaultFontSize = 32.0

// qrSize is the side, in pixels, of the rasterised QR bitmap before scaling.
const qrSize = 256

var placeholder = color.NRGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff}

var (
	fontOnce sync.Once
	goFont   *opentype.Font
	fontErr  error
)

// regularFont parses Go Regular once; a face is made per raster because a
// face is not safe for concurrent use while the font is.
func regularFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		goFont, fontErr = opentype.Parse(goregular.TTF)
	})
	return goFont, fontErr
}

// maxTextPixels caps a single text raster. Larger boxes are rasterised at a
// reduced scale; drawImage stretches the result back over the box.
const maxTextPixels = 2048 * 2048

// textCacheBudget bounds the pixels held by the text cache. When a new raster
// would exceed it the cache starts over.
const textCacheBudget = 4 * maxTextPixels

type textKey struct {
	text string
	size float64
	fill color.NRGBA
	w, h float64
}

var textCache = struct {
	sync.Mutex
	m      map[textKey]*image.RGBA
	pixels int
}{m: make(map[textKey]*image.RGBA)}

// rasterText returns the element's text, word-wrapped to its width, on a
// transparent image covering the element box. Rasters are cached by content
// and shared between frames; callers must not modify them.
func rasterText(el scene.Element, c color.NRGBA) (*image.RGBA, error) {
	size := el.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	key := textKey{text: el.Text, size: size, fill: c, w: el.Width, h: el.Height}

	textCache.Lock()
	img, ok := textCache.m[key]
	textCache.Unlock()
	if ok {
		return img, nil
	}

	img, err := renderText(el.Text, size, c, el.Width, el.Height)
	if err != nil {
		return nil, err
	}
	n := img.Rect.Dx() * img.Rect.Dy()
	textCache.Lock()
	if textCache.pixels+n > textCacheBudget {
		clear(textCache.m)
		textCache.pixels = 0
	}
	textCache.m[key] = img
	textCache.pixels += n
	textCache.Unlock()
	return img, nil
}

func renderText(text string, size float64, c color.NRGBA, boxW, boxH float64) (*image.RGBA, error) {
	f, err := regularFont()
	if err != nil {
		return nil, fmt.Errorf("font: %w", err)
	}
	k := 1.0
	if area := boxW * boxH; area > maxTextPixels {
		k = math.Sqrt(maxTextPixels / area)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size * k, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	defer face.Close()

	w, h := int(math.Ceil(boxW)), int(math.Ceil(boxH))
	if k < 1 {
		w, h = int(boxW*k), int(boxH*k)
	}
	h = max(1, h)
	w = max(1, min(w, maxTextPixels/h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{Dst: img, Src: image.NewUniform(c), Face: face}

	m := face.Metrics()
	ascent, lineHeight := m.Ascent.Ceil(), m.Height.Ceil()
	y := ascent
	for _, line := range wrapText(text, face, w) {
		if y-ascent >= h {
			break
		}
		d.Dot = fixed.P(0, y)
		d.DrawString(line)
		y += lineHeight
	}
	return img, nil
}

// wrapText breaks text into lines no wider than width where word boundaries
// allow. Explicit newlines are kept.
func wrapText(text string, face font.Face, width int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, word := range words[1:] {
			next := cur + " " + word
			if font.MeasureString(face, next).Ceil() > width {
				lines = append(lines, cur)
				cur = word
				continue
			}
			cur = next
		}
		lines = append(lines, cur)
	}
	return lines
}

// rasterQR encodes the element's text as a QR code in its fill colour.
func rasterQR(el scene.Element, c color.NRGBA) (image.Image, error) {
	q, err := qrcode.New(el.Text, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	q.DisableBorder = true
	q.ForegroundColor = c
	q.BackgroundColor = color.White
	return q.Image(qrSize), nil
}

// drawImage stretches src over the element box described by m.
func drawImage(dst *image.RGBA, m f64.Aff3, src image.Image, w, h, alpha float64, interp xdraw.Transformer) {
	sb := src.Bounds()
	if sb.Empty() {
		return
	}
	s2d := mul(m, mul(
		scale(w/float64(sb.Dx()), h/float64(sb.Dy())),
		translate(-float64(sb.Min.X), -float64(sb.Min.Y)),
	))
	interp.Transform(dst, s2d, src, sb, xdraw.Over, alphaOptions(alpha))
}

// alphaOptions returns a uniform source mask for partial opacity, or nil for
// the unmasked fast path.
func alphaOptions(alpha float64) *xdraw.Options {
	if alpha >= 1 {
		return nil
	}
	return &xdraw.Options{SrcMask: image.NewUniform(color.Alpha16{A: uint16(clamp(alpha, 0, 1) * 0xffff)})}
}
