// Package audio places, moves and trims clips on audio layers and renders
// the scheduled clips into a single mixdown track.
package audio

import (
	"fmt"
	"math"

	"github.com/ivlev/pagereel/internal/scene"
)

// Edge selects the side of a clip a trim drags.
type Edge string

const (
	EdgeLeft  Edge = "left"
	EdgeRight Edge = "right"
)

// Normalize forces a clip back inside its invariants: non-negative start and
// offset, at least MinClipDuration long, and a window that fits the source.
func Normalize(c scene.AudioClip) scene.AudioClip {
	c.StartAt = math.Max(0, c.StartAt)
	c.Offset = math.Max(0, c.Offset)
	if c.TotalDuration > 0 {
		c.Offset = math.Min(c.Offset, math.Max(0, c.TotalDuration-scene.MinClipDuration))
	}
	c.Duration = math.Max(scene.MinClipDuration, c.Duration)
	if c.TotalDuration > 0 {
		c.Duration = math.Min(c.Duration, c.TotalDuration-c.Offset)
	}
	return c
}

// CheckClip reports the first invariant the clip violates.
func CheckClip(c scene.AudioClip) error {
	return c.Check()
}

// AddClip appends Clip to a layer. A zero Duration plays the rest of the
// source from Offset.
type AddClip struct {
	LayerID string
	Clip    scene.AudioClip
}

func (op AddClip) Apply(s scene.Snapshot) (scene.Snapshot, error) {
	li := s.LayerIndex(op.LayerID)
	if li < 0 {
		return s, fmt.Errorf("add clip: %w", scene.ErrLayerNotFound)
	}
	c := op.Clip
	if !(c.TotalDuration >= scene.MinClipDuration) || math.IsInf(c.TotalDuration, 0) {
		return s, fmt.Errorf("add clip %q: %w: source length %v", c.Src, scene.ErrInvalid, c.TotalDuration)
	}
	if c.ID == "" {
		c.ID = scene.NewID()
	}
	if c.Duration <= 0 {
		c.Duration = c.TotalDuration - c.Offset
	}
	c = Normalize(c)

	out := s.Clone()
	out.AudioLayers[li].Clips = append(out.AudioLayers[li].Clips, c)
	return out, nil
}

// MoveClip reassigns a clip to ToLayerID starting at NewStart. Moving within
// the same layer only changes the start.
type MoveClip struct {
	ClipID      string
	FromLayerID string
	ToLayerID   string
	NewStart    float64
}

func (op MoveClip) Apply(s scene.Snapshot) (scene.Snapshot, error) {
	from := s.LayerIndex(op.FromLayerID)
	if from < 0 {
		return s, fmt.Errorf("move clip: source %w", scene.ErrLayerNotFound)
	}
	to := s.LayerIndex(op.ToLayerID)
	if to < 0 {
		return s, fmt.Errorf("move clip: target %w", scene.ErrLayerNotFound)
	}
	ci := s.AudioLayers[from].ClipIndex(op.ClipID)
	if ci < 0 {
		return s, fmt.Errorf("move clip %s: %w", op.ClipID, scene.ErrClipNotFound)
	}

	out := s.Clone()
	c := out.AudioLayers[from].Clips[ci]
	c.StartAt = math.Max(0, op.NewStart)
	if from == to {
		out.AudioLayers[from].Clips[ci] = Normalize(c)
		return out, nil
	}
	clips := out.AudioLayers[from].Clips
	out.AudioLayers[from].Clips = append(clips[:ci], clips[ci+1:]...)
	out.AudioLayers[to].Clips = append(out.AudioLayers[to].Clips, Normalize(c))
	return out, nil
}

// TrimClip drags one edge of a clip by Delta seconds.
type TrimClip struct {
	LayerID string
	ClipID  string
	Edge    Edge
	Delta   float64
}

func (op TrimClip) Apply(s scene.Snapshot) (scene.Snapshot, error) {
	li := s.LayerIndex(op.LayerID)
	if li < 0 {
		return s, fmt.Errorf("trim clip: %w", scene.ErrLayerNotFound)
	}
	ci := s.AudioLayers[li].ClipIndex(op.ClipID)
	if ci < 0 {
		return s, fmt.Errorf("trim clip %s: %w", op.ClipID, scene.ErrClipNotFound)
	}

	var c scene.AudioClip
	switch op.Edge {
	case EdgeLeft:
		c = TrimLeft(s.AudioLayers[li].Clips[ci], op.Delta)
	case EdgeRight:
		c = TrimRight(s.AudioLayers[li].Clips[ci], op.Delta)
	default:
		return s, fmt.Errorf("trim clip: unknown edge %q", op.Edge)
	}

	out := s.Clone()
	out.AudioLayers[li].Clips[ci] = Normalize(c)
	return out, nil
}

// TrimLeft moves the left edge: start and offset shift by delta and the
// duration shrinks by it, so the right edge stays put. The delta is clamped
// so that start >= 0, then offset >= 0, then duration >= MinClipDuration.
func TrimLeft(c scene.AudioClip, delta float64) scene.AudioClip {
	d := delta
	d = math.Max(d, -c.StartAt)
	d = math.Max(d, -c.Offset)
	d = math.Min(d, c.Duration-scene.MinClipDuration)

	c.StartAt += d
	c.Offset += d
	c.Duration -= d
	return c
}

// TrimRight moves the right edge; only the duration changes.
func TrimRight(c scene.AudioClip, delta float64) scene.AudioClip {
	c.Duration = math.Max(scene.MinClipDuration, c.Duration+delta)
	c.Duration = math.Min(c.Duration, c.TotalDuration-c.Offset)
	return c
}

// DeleteClip removes a clip from whichever layer holds it.
type DeleteClip struct {
	ClipID string
}

func (op DeleteClip) Apply(s scene.Snapshot) (scene.Snapshot, error) {
	li, ci, ok := s.FindClip(op.ClipID)
	if !ok {
		return s, fmt.Errorf("delete clip %s: %w", op.ClipID, scene.ErrClipNotFound)
	}
	out := s.Clone()
	clips := out.AudioLayers[li].Clips
	out.AudioLayers[li].Clips = append(clips[:ci], clips[ci+1:]...)
	return out, nil
}
