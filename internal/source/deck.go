package source

import (
	"fmt"
	"math"

	"github.com/ivlev/pagereel/internal/scene"
)

// DeckOptions shape the snapshot built by Deck.
type DeckOptions struct {
	Width, Height int
	PageDuration  float64
	Background    string
	// Animation is bound to every page when set.
	Animation *scene.Animation
}

// Deck builds a snapshot with one page per source page. Each page holds a
// single image element showing the source page, fitted inside the canvas
// with its aspect ratio kept.
func Deck(src Source, opts DeckOptions) (scene.Snapshot, error) {
	if src.PageCount() == 0 {
		return scene.Snapshot{}, fmt.Errorf("%w: source has no pages", scene.ErrInvalid)
	}
	s := scene.New(opts.Width, opts.Height)
	s.Pages = s.Pages[:0]
	W, H := float64(s.Width), float64(s.Height)

	for i := 0; i < src.PageCount(); i++ {
		pw, ph, err := src.GetPageDimensions(i)
		if err != nil {
			return scene.Snapshot{}, fmt.Errorf("page %d: %w", i+1, err)
		}
		x, y, w, h := fit(pw, ph, W, H)

		p := scene.NewPage()
		if opts.PageDuration > 0 {
			p.Duration = opts.PageDuration
		}
		if opts.Background != "" {
			p.Background = opts.Background
		}
		p.Animation = opts.Animation.Clone()
		p.Animation.Normalize()

		el := scene.NewElement(scene.KindImage, x, y, w, h)
		el.Src = src.Ref(i)
		el.Fill = ""
		p.Elements = []scene.Element{el}
		s.Pages = append(s.Pages, p)
	}
	return s, nil
}

// fit centres a pw x ph box inside W x H, scaled to touch the nearer edges.
func fit(pw, ph, W, H float64) (x, y, w, h float64) {
	if pw <= 0 || ph <= 0 {
		return 0, 0, W, H
	}
	k := math.Min(W/pw, H/ph)
	w, h = pw*k, ph*k
	return (W - w) / 2, (H - h) / 2, w, h
}
