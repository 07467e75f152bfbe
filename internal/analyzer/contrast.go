package analyzer

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// ContrastDetector marks areas with strong luminance edges (text lines,
// figures, table rules). Nearby edges are merged by dilation so a paragraph
// comes out as one block.
type ContrastDetector struct {
	MinArea     int     // пикселей²
	Threshold   float64 // порог модуля градиента Собеля
	Spread      int     // радиус дилатации, px
	MaxCoverage float64 // блоки крупнее этой доли страницы считаются рамкой
}

// NewContrastDetector creates a detector tuned for pages rendered at 72 DPI.
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinArea:     500,
		Threshold:   30,
		Spread:      4,
		MaxCoverage: 0.9,
	}
}

// Detect returns the content blocks of img in scan order.
func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}
	edges := sobel(toGray(img), d.Threshold)
	merged := dilate(edges, d.Spread)

	page := float64(b.Dx() * b.Dy())
	var blocks []Block
	for _, r := range components(merged) {
		area := r.Dx() * r.Dy()
		if area < d.MinArea || float64(area) > d.MaxCoverage*page {
			continue
		}
		blocks = append(blocks, Block{
			Rect:    r.Add(b.Min),
			Density: float64(edges.count(r)) / float64(area),
		})
	}
	return blocks, nil
}

// mask is a binary image with origin at (0,0).
type mask struct {
	w, h int
	bits []bool
}

func newMask(w, h int) mask {
	return mask{w: w, h: h, bits: make([]bool, w*h)}
}

func (m mask) count(r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for _, on := range m.bits[y*m.w+r.Min.X : y*m.w+r.Max.X] {
			if on {
				n++
			}
		}
	}
	return n
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(gray, gray.Bounds(), img, b.Min, xdraw.Src)
	return gray
}

// sobel thresholds the gradient magnitude. The one pixel border stays unset.
func sobel(g *image.Gray, threshold float64) mask {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	m := newMask(w, h)
	at := func(x, y int) float64 { return float64(g.Pix[y*g.Stride+x]) }
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			m.bits[y*w+x] = math.Hypot(gx, gy) > threshold
		}
	}
	return m
}

// dilate grows set pixels by r in both axes (square kernel), as two
// separable passes.
func dilate(m mask, r int) mask {
	if r <= 0 {
		return m
	}
	rows := newMask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		off := y * m.w
		spread(m.w, r,
			func(i int) bool { return m.bits[off+i] },
			func(i int) { rows.bits[off+i] = true })
	}
	out := newMask(m.w, m.h)
	for x := 0; x < m.w; x++ {
		spread(m.h, r,
			func(i int) bool { return rows.bits[i*m.w+x] },
			func(i int) { out.bits[i*m.w+x] = true })
	}
	return out
}

// spread sets every index within r of a set index along one line of n.
func spread(n, r int, get func(int) bool, set func(int)) {
	last := -r - 1
	for i := 0; i < n; i++ {
		if get(i) {
			last = i
		}
		if i-last <= r {
			set(i)
		}
	}
	next := n + r
	for i := n - 1; i >= 0; i-- {
		if get(i) {
			next = i
		}
		if next-i <= r {
			set(i)
		}
	}
}

// components returns the bounding boxes of 4-connected regions.
func components(m mask) []image.Rectangle {
	seen := make([]bool, len(m.bits))
	var rects []image.Rectangle
	var stack []int
	for start, on := range m.bits {
		if !on || seen[start] {
			continue
		}
		seen[start] = true
		stack = append(stack[:0], start)
		r := image.Rect(start%m.w, start/m.w, start%m.w+1, start/m.w+1)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%m.w, i/m.w
			r = r.Union(image.Rect(x, y, x+1, y+1))

			push := func(n int) {
				if m.bits[n] && !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
			if x > 0 {
				push(i - 1)
			}
			if x < m.w-1 {
				push(i + 1)
			}
			if y > 0 {
				push(i - m.w)
			}
			if y < m.h-1 {
				push(i + m.w)
			}
		}
		rects = append(rects, r)
	}
	return rects
}
