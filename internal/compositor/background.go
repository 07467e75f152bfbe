package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// gradient is a two-stop CSS linear gradient.
type gradient struct {
	angle    float64 // degrees, 0 points up, 90 points right
	from, to color.NRGBA
}

var sideAngles = map[string]float64{
	"to top":    0,
	"to right":  90,
	"to bottom": 180,
	"to left":   270,
}

// parseGradient reads "linear-gradient(<angle>deg, c1, c2)". Extra stops are
// ignored: the first and last colours are used.
func parseGradient(s string, log *zap.Logger) (gradient, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToLower(s), "linear-gradient(") || !strings.HasSuffix(s, ")") {
		return gradient{}, false
	}
	parts := splitArgs(s[len("linear-gradient(") : len(s)-1])
	g := gradient{angle: 180}
	if len(parts) > 0 {
		first := strings.ToLower(parts[0])
		if a, ok := sideAngles[first]; ok {
			g.angle = a
			parts = parts[1:]
		} else if strings.HasSuffix(first, "deg") {
			if a, err := strconv.ParseFloat(strings.TrimSuffix(first, "deg"), 64); err == nil {
				g.angle = a
				parts = parts[1:]
			}
		}
	}
	if len(parts) < 2 {
		return gradient{}, false
	}
	g.from = colourOf(stopColour(parts[0]), log)
	g.to = colourOf(stopColour(parts[len(parts)-1]), log)
	return g, true
}

// stopColour drops a trailing position such as "50%".
func stopColour(stop string) string {
	if i := strings.LastIndexByte(stop, ' '); i > 0 && !strings.Contains(stop[i:], ")") {
		return strings.TrimSpace(stop[:i])
	}
	return stop
}

// splitArgs splits on commas outside parentheses.
func splitArgs(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// paintBackground fills dst with a solid colour or a linear gradient.
func paintBackground(dst *image.RGBA, bg string, log *zap.Logger) {
	if g, ok := parseGradient(bg, log); ok {
		paintGradient(dst, g)
		return
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(colourOf(bg, log)), image.Point{}, draw.Src)
}

// paintGradient follows the CSS gradient-line geometry: the line passes
// through the centre at the given angle and is long enough for the corners
// to hit the end colours exactly.
func paintGradient(dst *image.RGBA, g gradient) {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	sin, cos := math.Sincos(g.angle * math.Pi / 180)
	dx, dy := sin, -cos
	length := math.Abs(w*sin) + math.Abs(h*cos)
	if length == 0 {
		length = 1
	}
	cx, cy := w/2, h/2

	for y := 0; y < b.Dy(); y++ {
		row := dst.Pix[dst.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			t := clamp(((float64(x)+0.5-cx)*dx+(float64(y)+0.5-cy)*dy)/length+0.5, 0, 1)
			c := color.NRGBA{
				R: mix(g.from.R, g.to.R, t),
				G: mix(g.from.G, g.to.G, t),
				B: mix(g.from.B, g.to.B, t),
				A: mix(g.from.A, g.to.A, t),
			}
			p := color.RGBAModel.Convert(c).(color.RGBA)
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = p.R, p.G, p.B, p.A
		}
	}
}

func mix(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
