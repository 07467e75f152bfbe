package scene

import (
	"fmt"
	"math"
)

// MinClipDuration is the shortest audible clip window, in seconds.
const MinClipDuration = 0.1

// clipEpsilon absorbs float drift when comparing clip bounds.
const clipEpsilon = 1e-9

// Check reports the first violated clip invariant.
func (c AudioClip) Check() error {
	switch {
	case c.StartAt < 0:
		return fmt.Errorf("%w: clip %s starts at %.3f", ErrInvalid, c.ID, c.StartAt)
	case c.Offset < 0:
		return fmt.Errorf("%w: clip %s has negative offset %.3f", ErrInvalid, c.ID, c.Offset)
	case c.Duration < MinClipDuration-clipEpsilon:
		return fmt.Errorf("%w: clip %s is shorter than %.1fs", ErrInvalid, c.ID, MinClipDuration)
	case c.Offset+c.Duration > c.TotalDuration+clipEpsilon:
		return fmt.Errorf("%w: clip %s window %.3f+%.3f exceeds source length %.3f",
			ErrInvalid, c.ID, c.Offset, c.Duration, c.TotalDuration)
	}
	return nil
}

// Validate checks the structural invariants of a snapshot: at least one
// page, positive page durations, unique IDs and valid clips.
func (s Snapshot) Validate() error {
	if len(s.Pages) == 0 {
		return fmt.Errorf("%w: no pages", ErrInvalid)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalid, s.Width, s.Height)
	}

	ids := make(map[string]bool)
	seen := func(id string) error {
		if id == "" {
			return fmt.Errorf("%w: empty id", ErrInvalid)
		}
		if ids[id] {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalid, id)
		}
		ids[id] = true
		return nil
	}

	for i, p := range s.Pages {
		if err := seen(p.ID); err != nil {
			return err
		}
		if !(p.Duration > 0) || math.IsInf(p.Duration, 0) {
			return fmt.Errorf("%w: page %d has duration %v", ErrInvalid, i, p.Duration)
		}
		for _, el := range p.Elements {
			if err := seen(el.ID); err != nil {
				return err
			}
		}
	}
	for _, l := range s.AudioLayers {
		if err := seen(l.ID); err != nil {
			return err
		}
		for _, c := range l.Clips {
			if err := seen(c.ID); err != nil {
				return err
			}
			if err := c.Check(); err != nil {
				return err
			}
		}
	}
	return nil
}
