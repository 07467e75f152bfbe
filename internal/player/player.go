// Package player runs the interactive loop: once per tick it advances the
// editor's playhead and redraws the active page.
package player

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/ivlev/pagereel/internal/animation"
	"github.com/ivlev/pagereel/internal/compositor"
	"github.com/ivlev/pagereel/internal/editor"
	"github.com/ivlev/pagereel/internal/scene"
	"github.com/ivlev/pagereel/internal/timeline"
	"go.uber.org/zap"
)

const DefaultFPS = 60

// FrameHook receives every drawn frame. frame is the renderer's surface and
// is overwritten by the next tick.
type FrameHook func(frame *image.RGBA, res timeline.Resolution)

type Options struct {
	FPS           int
	PreviewPeriod time.Duration
	Assets        compositor.AssetSource
	Logger        *zap.Logger
	Hook          FrameHook
}

type Player struct {
	ed       *editor.Editor
	renderer *compositor.Renderer
	interval time.Duration
	period   time.Duration
	log      *zap.Logger
	hook     FrameHook

	mu     sync.Mutex
	probe  *compositor.Probe
	last   time.Time
	frames int
}

func New(ed *editor.Editor, opts Options) *Player {
	fps := opts.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	period := opts.PreviewPeriod
	if period <= 0 {
		period = animation.DefaultPreviewPeriod
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var w, h int
	ed.View(func(s scene.Snapshot) { w, h = s.Width, s.Height })
	return &Player{
		ed:       ed,
		renderer: compositor.NewRenderer(w, h, compositor.Options{Assets: opts.Assets, Logger: log}),
		interval: time.Second / time.Duration(fps),
		period:   period,
		log:      log,
		hook:     opts.Hook,
	}
}

// SetProbe starts a hover preview of an element, or of the page itself when
// elementID is empty. The preview loops from now.
func (p *Player) SetProbe(pageID, elementID string, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probe = &compositor.Probe{
		PageID:    pageID,
		ElementID: elementID,
		Clock:     animation.PreviewClock{Period: p.period, Origin: now},
	}
}

func (p *Player) ClearProbe() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probe = nil
}

// Frames is the number of frames drawn so far.
func (p *Player) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// Surface is the last drawn frame.
func (p *Player) Surface() *image.RGBA {
	return p.renderer.Surface()
}

// Tick advances playback by the wall time since the previous tick and draws
// one frame. The first tick only draws.
func (p *Player) Tick(now time.Time) (timeline.Resolution, bool) {
	p.mu.Lock()
	dt := 0.0
	if !p.last.IsZero() {
		dt = now.Sub(p.last).Seconds()
	}
	p.last = now
	var probe *compositor.Probe
	if p.probe != nil {
		cp := *p.probe
		cp.Now = now
		probe = &cp
	}
	p.mu.Unlock()

	t := p.ed.Advance(dt)
	ov := compositor.Overlay{SelectedElementID: p.ed.Selection().ElementID, Probe: probe}

	var res timeline.Resolution
	var ok bool
	p.ed.View(func(s scene.Snapshot) {
		res, ok = p.renderer.Render(s, t, ov)
	})

	p.mu.Lock()
	p.frames++
	p.mu.Unlock()
	if p.hook != nil {
		p.hook(p.renderer.Surface(), res)
	}
	return res, ok
}

// Run ticks until ctx is cancelled. Nothing is drawn after Run returns.
func (p *Player) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info("player started", zap.Duration("interval", p.interval))
	p.Tick(time.Now())
	for {
		select {
		case <-ctx.Done():
			p.log.Info("player stopped", zap.Int("frames", p.Frames()))
			return ctx.Err()
		case now := <-ticker.C:
			p.Tick(now)
		}
	}
}
