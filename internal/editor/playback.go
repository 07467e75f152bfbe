package editor

import (
	"context"

	"github.com/ivlev/pagereel/internal/export"
	"github.com/ivlev/pagereel/internal/scene"
	"github.com/ivlev/pagereel/internal/timeline"
	"go.uber.org/zap"
)

func (e *Editor) TotalDuration() float64 {
	var total float64
	e.hist.View(func(s scene.Snapshot) { total = timeline.Duration(s) })
	return total
}

func (e *Editor) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *Editor) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// Play starts playback. At the end of the timeline it restarts from zero.
func (e *Editor) Play() {
	total := e.TotalDuration()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current >= total {
		e.current = 0
	}
	e.playing = total > 0
}

func (e *Editor) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
}

// Seek moves the playhead, clamped to [0, TotalDuration].
func (e *Editor) Seek(t float64) {
	total := e.TotalDuration()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = clampTime(t, total)
}

// Advance moves a playing playhead by dt seconds and pauses on reaching the
// end. It returns the new time.
func (e *Editor) Advance(dt float64) float64 {
	total := e.TotalDuration()
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing || dt <= 0 {
		return e.current
	}
	e.current += dt
	if e.current >= total {
		e.current = total
		e.playing = false
	}
	return e.current
}

func clampTime(t, total float64) float64 {
	if t < 0 || t != t {
		return 0
	}
	if t > total {
		return total
	}
	return t
}

// ActivePage resolves the page shown at the playhead.
func (e *Editor) ActivePage() (timeline.Resolution, bool) {
	t := e.CurrentTime()
	var res timeline.Resolution
	var ok bool
	e.hist.View(func(s scene.Snapshot) { res, ok = timeline.Resolve(s.Pages, t) })
	return res, ok
}

// ExportProgress reports the running export's progress; ok is false when no
// export is running.
func (e *Editor) ExportProgress() (p float64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress, e.exporting
}

// Export runs exp on a copy of the live content. Editing may continue while
// it runs; the export keeps the content as it was when it started.
func (e *Editor) Export(ctx context.Context, exp *export.Exporter, job export.Job) (export.Result, error) {
	e.mu.Lock()
	if e.exporting {
		e.mu.Unlock()
		return export.Result{}, export.ErrBusy
	}
	e.exporting = true
	e.progress = 0
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.exporting = false
		e.progress = 0
		e.mu.Unlock()
	}()

	forward := job.OnProgress
	job.OnProgress = func(p float64) {
		e.mu.Lock()
		e.progress = p
		e.mu.Unlock()
		if forward != nil {
			forward(p)
		}
	}

	e.log.Info("export requested", zap.String("out", job.OutBase), zap.Int("fps", job.FPS))
	return exp.Run(ctx, e.Snapshot(), job)
}
