package animation

import "github.com/ivlev/pagereel/internal/scene"

// zoomFrom is the page scale at the start of a zoom entrance.
const zoomFrom = 0.8

// EvaluatePage resolves a page-level binding. slide and zoom move the whole
// page's drawing transform over a width x height canvas; fade becomes the page
// opacity; other presets behave as they do on elements.
func EvaluatePage(b *scene.Animation, localTime, span float64, width, height int) State {
	if !active(b) {
		return Identity
	}
	f := func(typ scene.AnimationType, eased, t float64) State {
		st := Identity
		switch typ {
		case scene.AnimSlide:
			w, h := float64(width), float64(height)
			rest := 1 - eased
			switch b.Direction {
			case scene.DirRight:
				st.DX = -rest * w
			case scene.DirUp:
				st.DY = rest * h
			case scene.DirDown:
				st.DY = -rest * h
			default: // left: enter from the right edge
				st.DX = rest * w
			}
		case scene.AnimZoom:
			st.Scale = lerp(zoomFrom, 1, eased)
		default:
			st = elementMapping(typ, eased, t)
		}
		return st
	}
	return evaluateSpan(b, localTime, span, f)
}
