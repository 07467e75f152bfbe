// Package animation evaluates animation bindings as pure functions of time.
//
// The same functions drive the live preview and the export worker, so a
// given (binding, local time) pair always yields the same State.
package animation

import (
	"math"

	"github.com/ivlev/pagereel/internal/scene"
)

// minSpeed keeps the effective duration finite for a zero speed.
const minSpeed = 1e-3

// Offsets used by the entrance presets, in canvas units.
const (
	riseDistance = 50.0
	panDistance  = -50.0
)

// State is the resolved transform of an element or page at one instant.
type State struct {
	Opacity  float64 // multiplier in [0,1]
	DX, DY   float64 // translation
	Scale    float64 // multiplier
	Rotation float64 // degrees added to the static rotation
}

// Identity leaves the target untouched.
var Identity = State{Opacity: 1, Scale: 1}

// Ease is the quadratic ease-out used by every entrance preset.
func Ease(p float64) float64 {
	return p * (2 - p)
}

// mapping turns the eased progress and raw elapsed time into a State.
type mapping func(typ scene.AnimationType, eased, t float64) State

func elementMapping(typ scene.AnimationType, eased, t float64) State {
	st := Identity
	switch typ {
	case scene.AnimFade:
		st.Opacity = eased
	case scene.AnimRise:
		st.DY = (1 - eased) * riseDistance
	case scene.AnimPan:
		st.DX = (1 - eased) * panDistance
	case scene.AnimPop:
		st.Scale = eased
	case scene.AnimShake:
		st.DX = math.Sin(t*20) * 5
	case scene.AnimPulse:
		st.Scale = 1 + math.Sin(t*5)*0.05
	case scene.AnimWiggle:
		st.Rotation = math.Sin(t*10) * 5
	}
	return st
}

// continuous presets keep oscillating after their progress reaches 1 and are
// not mirrored for exit mode.
func continuous(typ scene.AnimationType) bool {
	switch typ {
	case scene.AnimShake, scene.AnimPulse, scene.AnimWiggle:
		return true
	}
	return false
}

func active(b *scene.Animation) bool {
	return b != nil && b.Type != "" && b.Type != scene.AnimNone
}

// Evaluate resolves an entrance binding at localTime (seconds since the host
// page started). Until the delay elapses the target is hidden.
func Evaluate(b *scene.Animation, localTime float64) State {
	return evaluate(b, localTime, elementMapping)
}

func evaluate(b *scene.Animation, localTime float64, f mapping) State {
	if !active(b) {
		return Identity
	}
	t := math.Max(0, localTime-b.Delay)
	dur := 1 / math.Max(b.Speed, minSpeed)
	progress := clamp(t/dur, 0, 1)

	st := f(b.Type, Ease(progress), t)
	if b.Delay > 0 && t == 0 {
		st.Opacity = 0
	}
	return st
}

// EvaluateSpan honours the binding's mode against a host of length span:
// enter plays from the start, exit plays the entrance backwards into the end
// of the span, both does each.
func EvaluateSpan(b *scene.Animation, localTime, span float64) State {
	return evaluateSpan(b, localTime, span, elementMapping)
}

func evaluateSpan(b *scene.Animation, localTime, span float64, f mapping) State {
	if !active(b) {
		return Identity
	}
	mode := b.Mode
	if mode == "" || span <= 0 || continuous(b.Type) {
		mode = scene.ModeEnter
	}
	switch mode {
	case scene.ModeExit:
		return exitState(b, localTime, span, f)
	case scene.ModeBoth:
		return compose(evaluate(b, localTime, f), exitState(b, localTime, span, f))
	default:
		return evaluate(b, localTime, f)
	}
}

// exitState plays the entrance backwards into the end of the span. The delay
// counts back from the end: the exit completes Delay seconds before it and the
// target stays hidden for the rest of the span.
func exitState(b *scene.Animation, localTime, span float64, f mapping) State {
	return evaluate(b, span-localTime, f)
}

func compose(a, b State) State {
	return State{
		Opacity:  a.Opacity * b.Opacity,
		DX:       a.DX + b.DX,
		DY:       a.DY + b.DY,
		Scale:    a.Scale * b.Scale,
		Rotation: a.Rotation + b.Rotation,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
