package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/ivlev/pagereel/internal/compositor"
	"github.com/ivlev/pagereel/internal/scene"
	"github.com/ivlev/pagereel/internal/source"
	"github.com/ivlev/pagereel/internal/system"
	"github.com/ivlev/pagereel/internal/timeline"
	"go.uber.org/zap"
)

type worker struct {
	assets        source.Fetcher
	log           *zap.Logger
	workers       int
	progressEvery int
	pool          *system.ImagePool
}

// run serves one export: it expects init, then start, and always closes out.
// The sink is closed on success and aborted otherwise.
func (w *worker) run(ctx context.Context, in <-chan request, out chan<- reply) {
	defer close(out)

	var sink Sink
	for req := range in {
		switch req.kind {
		case msgInit:
			sink = req.init.Sink
		case msgStart:
			if sink == nil {
				out <- reply{kind: msgError, err: errors.New("start before init")}
				return
			}
			frames, err := w.export(ctx, req.start, sink, func(p float64, n int) {
				select {
				case out <- reply{kind: msgProgress, progress: p, frames: n}:
				case <-ctx.Done():
				}
			})
			if err == nil {
				err = sink.Close()
			}
			if err != nil {
				sink.Abort()
				out <- reply{kind: msgError, err: err}
				return
			}
			out <- reply{kind: msgDone, progress: 1, frames: frames}
			return
		default:
			out <- reply{kind: msgError, err: fmt.Errorf("unexpected %s message", req.kind)}
			return
		}
	}
	if sink != nil {
		sink.Abort()
	}
}

func (w *worker) export(ctx context.Context, start *startMsg, sink Sink, progress func(p float64, n int)) (int, error) {
	s, err := scene.Decode(start.Document)
	if err != nil {
		return 0, fmt.Errorf("decode document: %w", err)
	}

	// Все ассеты загружаются до первого кадра: кадры экспорта не зависят от
	// скорости декодирования.
	cache := source.NewCache(ctx, w.assets, w.log, w.workers)
	if err := cache.Preload(ctx, s.ImageSources()); err != nil {
		return 0, err
	}

	n := timeline.FrameCount(start.Duration, start.FPS)
	w.log.Info("export render started",
		zap.Int("frames", n),
		zap.Int("fps", start.FPS),
		zap.Float64("duration", start.Duration),
		zap.Int("workers", w.workers))

	rect := image.Rect(0, 0, start.Width, start.Height)
	opts := compositor.Options{Assets: cache, Logger: w.log}
	return n, w.renderOrdered(ctx, n, func(i int) Frame {
		t := timeline.FrameTime(i, start.FPS)
		img := w.pool.Get(rect)
		f := Frame{Index: i, Time: t, Image: img}
		res, ok := timeline.Resolve(s.Pages, t)
		if !ok {
			draw.Draw(img, rect, image.Black, image.Point{}, draw.Src)
			return f
		}
		f.PageIndex, f.LocalTime = res.PageIndex, res.LocalTime
		compositor.RenderFrame(img, res.Page, res.LocalTime, opts)
		return f
	}, sink, progress)
}

// renderOrdered renders frames [0, n) on a pool of goroutines and writes them
// to the sink strictly by index. At most 2*workers frames are in flight.
func (w *worker) renderOrdered(ctx context.Context, n int, render func(i int) Frame, sink Sink, progress func(p float64, n int)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := w.workers
	if workers < 1 {
		workers = 1
	}
	every := w.progressEvery
	if every < 1 {
		every = 30
	}

	jobs := make(chan int)
	results := make(chan Frame, workers)
	slots := make(chan struct{}, 2*workers)

	// 1. Раздача индексов кадров
	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	// 2. Render pool (CPU bound)
	for k := 0; k < workers; k++ {
		go func() {
			for i := range jobs {
				f := render(i)
				select {
				case results <- f:
				case <-ctx.Done():
					w.pool.Put(f.Image)
					return
				}
			}
		}()
	}

	// 3. Запись строго по порядку
	pending := make(map[int]Frame)
	next := 0
	for next < n {
		select {
		case f := <-results:
			pending[f.Index] = f
		case <-ctx.Done():
			return ctx.Err()
		}

		for {
			f, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			err := sink.WriteFrame(f)
			w.pool.Put(f.Image)
			<-slots
			if err != nil {
				return fmt.Errorf("write frame %d: %w", next, err)
			}
			next++
			if next%every == 0 || next == n {
				progress(float64(next)/float64(n), next)
			}
		}
	}
	return nil
}
