package compositor

import (
	"image"
	"math"

	"github.com/ivlev/pagereel/internal/animation"
	"github.com/ivlev/pagereel/internal/scene"
	"golang.org/x/image/math/f64"
)

// Affine maps are f64.Aff3 in the x/image/draw convention: a source point
// (x, y) lands on (m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]).

func identity() f64.Aff3 {
	return f64.Aff3{1, 0, 0, 0, 1, 0}
}

func translate(tx, ty float64) f64.Aff3 {
	return f64.Aff3{1, 0, tx, 0, 1, ty}
}

func scale(sx, sy float64) f64.Aff3 {
	return f64.Aff3{sx, 0, 0, 0, sy, 0}
}

// rotate turns clockwise on screen by deg degrees.
func rotate(deg float64) f64.Aff3 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return f64.Aff3{c, -s, 0, s, c, 0}
}

// mul returns a∘b: b is applied first.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3], a[0]*b[1] + a[1]*b[4], a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3], a[3]*b[1] + a[4]*b[4], a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

// chain composes left to right as written: chain(A, B, C) = A∘B∘C.
func chain(ms ...f64.Aff3) f64.Aff3 {
	out := identity()
	for _, m := range ms {
		out = mul(out, m)
	}
	return out
}

func apply(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

func invert(m f64.Aff3) (f64.Aff3, bool) {
	det := m[0]*m[4] - m[1]*m[3]
	if math.Abs(det) < 1e-12 {
		return f64.Aff3{}, false
	}
	inv := f64.Aff3{
		m[4] / det, -m[1] / det, 0,
		-m[3] / det, m[0] / det, 0,
	}
	inv[2] = -(inv[0]*m[2] + inv[1]*m[5])
	inv[5] = -(inv[3]*m[2] + inv[4]*m[5])
	return inv, true
}

func isIdentity(m f64.Aff3) bool {
	return m == identity()
}

// pageMatrix places page content: the page state's offset plus a scale about
// the canvas centre.
func pageMatrix(st animation.State, width, height int) f64.Aff3 {
	cx, cy := float64(width)/2, float64(height)/2
	if st.Scale == 1 && st.Rotation == 0 {
		return translate(st.DX, st.DY)
	}
	return chain(
		translate(cx+st.DX, cy+st.DY),
		rotate(st.Rotation),
		scale(st.Scale, st.Scale),
		translate(-cx, -cy),
	)
}

// elementMatrix maps the element's local box [0,w]x[0,h] onto the canvas:
// translate to the animated centre, rotate, scale, translate back.
func elementMatrix(page f64.Aff3, el scene.Element, st animation.State) f64.Aff3 {
	cx := el.X + el.Width/2
	cy := el.Y + el.Height/2
	k := el.Scale * st.Scale
	return chain(
		page,
		translate(cx+st.DX, cy+st.DY),
		rotate(el.Rotation+st.Rotation),
		scale(k, k),
		translate(-el.Width/2, -el.Height/2),
	)
}

// bounds returns the integer rectangle covering the transformed points.
func bounds(m f64.Aff3, pts [][2]float64) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		x, y := apply(m, p[0], p[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}
