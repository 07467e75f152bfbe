package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/ivlev/pagereel/internal/scene"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"
)

type segKind uint8

const (
	segMove segKind = iota
	segLine
	segCube
	segClose
)

// segment is one path command; pts holds up to three points (control points
// first, end point last).
type segment struct {
	kind segKind
	pts  [3][2]float64
	n    int
}

type path []segment

func (p *path) moveTo(x, y float64) {
	*p = append(*p, segment{kind: segMove, pts: [3][2]float64{{x, y}}, n: 1})
}

func (p *path) lineTo(x, y float64) {
	*p = append(*p, segment{kind: segLine, pts: [3][2]float64{{x, y}}, n: 1})
}

func (p *path) cubeTo(bx, by, cx, cy, dx, dy float64) {
	*p = append(*p, segment{kind: segCube, pts: [3][2]float64{{bx, by}, {cx, cy}, {dx, dy}}, n: 3})
}

func (p *path) close() {
	*p = append(*p, segment{kind: segClose})
}

func (p path) points() [][2]float64 {
	var out [][2]float64
	for _, s := range p {
		out = append(out, s.pts[:s.n]...)
	}
	return out
}

func polygon(pts ...[2]float64) path {
	var p path
	for i, pt := range pts {
		if i == 0 {
			p.moveTo(pt[0], pt[1])
		} else {
			p.lineTo(pt[0], pt[1])
		}
	}
	p.close()
	return p
}

// kappa places cubic control points for a quarter ellipse.
const kappa = 0.5522847498

func ellipse(w, h float64) path {
	rx, ry := w/2, h/2
	ox, oy := rx*kappa, ry*kappa
	var p path
	p.moveTo(w, ry)
	p.cubeTo(w, ry+oy, rx+ox, h, rx, h)
	p.cubeTo(rx-ox, h, 0, ry+oy, 0, ry)
	p.cubeTo(0, ry-oy, rx-ox, 0, rx, 0)
	p.cubeTo(rx+ox, 0, w, ry-oy, w, ry)
	p.close()
	return p
}

// regular returns n vertices on the ellipse inscribed in the box, the first
// at the top.
func regular(n int, w, h, inner float64) [][2]float64 {
	step := 2 * math.Pi / float64(n)
	pts := make([][2]float64, 0, n)
	for i := 0; i < n; i++ {
		a := -math.Pi/2 + float64(i)*step
		r := 1.0
		if inner > 0 && i%2 == 1 {
			r = inner
		}
		pts = append(pts, [2]float64{w/2 + w/2*r*math.Cos(a), h/2 + h/2*r*math.Sin(a)})
	}
	return pts
}

// starInner is the inner radius of a star relative to its outer radius.
const starInner = 0.5

// outline builds the local-space outline of a shape kind over a w x h box.
func outline(kind scene.Kind, w, h float64) path {
	switch kind {
	case scene.KindEllipse:
		return ellipse(w, h)
	case scene.KindTriangle:
		return polygon([2]float64{w / 2, 0}, [2]float64{w, h}, [2]float64{0, h})
	case scene.KindDiamond:
		return polygon([2]float64{w / 2, 0}, [2]float64{w, h / 2}, [2]float64{w / 2, h}, [2]float64{0, h / 2})
	case scene.KindPentagon:
		return polygon(regular(5, w, h, 0)...)
	case scene.KindHexagon:
		return polygon(regular(6, w, h, 0)...)
	case scene.KindStar:
		return polygon(regular(10, w, h, starInner)...)
	default:
		return polygon([2]float64{0, 0}, [2]float64{w, 0}, [2]float64{w, h}, [2]float64{0, h})
	}
}

// fillPath rasterises p through m onto dst with src-over compositing.
func fillPath(dst *image.RGBA, m f64.Aff3, p path, c color.NRGBA) {
	if c.A == 0 || len(p) == 0 {
		return
	}
	r := bounds(m, p.points()).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	pt := func(x, y float64) (float32, float32) {
		tx, ty := apply(m, x, y)
		return float32(tx - ox), float32(ty - oy)
	}

	z := vector.NewRasterizer(r.Dx(), r.Dy())
	z.DrawOp = draw.Over
	for _, s := range p {
		switch s.kind {
		case segMove:
			z.MoveTo(pt(s.pts[0][0], s.pts[0][1]))
		case segLine:
			z.LineTo(pt(s.pts[0][0], s.pts[0][1]))
		case segCube:
			bx, by := pt(s.pts[0][0], s.pts[0][1])
			cx, cy := pt(s.pts[1][0], s.pts[1][1])
			dx, dy := pt(s.pts[2][0], s.pts[2][1])
			z.CubeTo(bx, by, cx, cy, dx, dy)
		case segClose:
			z.ClosePath()
		}
	}
	z.Draw(dst, r, image.NewUniform(c), image.Point{})
}

// strokeLine draws a straight segment of the given width in canvas space.
func strokeLine(dst *image.RGBA, x0, y0, x1, y1, width float64, c color.NRGBA) {
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	fillPath(dst, identity(), polygon(
		[2]float64{x0 + nx, y0 + ny},
		[2]float64{x1 + nx, y1 + ny},
		[2]float64{x1 - nx, y1 - ny},
		[2]float64{x0 - nx, y0 - ny},
	), c)
}
