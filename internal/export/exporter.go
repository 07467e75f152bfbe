// Package export turns a snapshot into a video file offline: frames are
// rendered by a worker goroutine that owns its own copy of the document,
// audio is mixed in parallel, and both are muxed into the first supported
// container.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ivlev/pagereel/internal/audio"
	"github.com/ivlev/pagereel/internal/scene"
	"github.com/ivlev/pagereel/internal/source"
	"github.com/ivlev/pagereel/internal/system"
	"github.com/ivlev/pagereel/internal/timeline"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrBusy    = errors.New("export already in progress")
	ErrEmpty   = errors.New("nothing to export")
	ErrNoSetup = errors.New("exporter is missing a sink, mixer or muxer")
)

// Sink receives frames in index order. Close finalises the recording; Abort
// discards it.
type Sink interface {
	WriteFrame(f Frame) error
	Close() error
	Abort()
}

// SinkFactory opens a sink recording width x height at fps into path.
type SinkFactory func(ctx context.Context, path string, width, height, fps int) (Sink, error)

// AudioMixer renders scheduled clips into one audio file of length total.
type AudioMixer interface {
	Mix(ctx context.Context, clips []audio.Scheduled, total float64, out string) error
}

// Muxer combines the recorded video with the optional audio file. It
// returns the final path, outBase plus the chosen container's extension.
type Muxer interface {
	Mux(ctx context.Context, videoPath, audioPath, outBase string) (string, error)
}

type State int

const (
	Idle State = iota
	Exporting
)

func (s State) String() string {
	if s == Exporting {
		return "exporting"
	}
	return "idle"
}

// Job describes one export request.
type Job struct {
	OutBase    string // output path without extension
	FPS        int
	OnProgress func(p float64)
}

// Result summarises a finished export.
type Result struct {
	Path       string
	Frames     int
	Duration   float64
	HasAudio   bool
	Total      time.Duration
	RenderTime time.Duration
	AudioTime  time.Duration
	MuxTime    time.Duration
	Host       system.HostStats
}

// EffectiveFPS is rendered frames per wall-clock second.
func (r Result) EffectiveFPS() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Total.Seconds()
}

// Exporter runs one export at a time: Idle -> Exporting -> Idle.
type Exporter struct {
	NewSink SinkFactory
	Mixer   AudioMixer
	Decoder audio.Decoder
	Muxer   Muxer
	Assets  source.Fetcher
	Logger  *zap.Logger

	Workers       int
	ProgressEvery int
	TempDir       string
	ShowStats     bool
	// BenchmarkLog, when set with ShowStats, gets one line per export.
	BenchmarkLog string
	BuildVersion string

	mu       sync.Mutex
	state    State
	progress float64
	cancel   context.CancelFunc
}

func (e *Exporter) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Exporter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Progress is the fraction of frames written by the running export, 0 when
// idle.
func (e *Exporter) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// Cancel stops the running export, if any. Run then returns context.Canceled
// after removing its temporary and partial files.
func (e *Exporter) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Exporter) begin(ctx context.Context) (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Exporting {
		return nil, ErrBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	e.state = Exporting
	e.progress = 0
	e.cancel = cancel
	return ctx, nil
}

func (e *Exporter) finish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
	e.state = Idle
	e.progress = 0
	e.cancel = nil
}

func (e *Exporter) setProgress(p float64, job Job) {
	e.mu.Lock()
	e.progress = p
	e.mu.Unlock()
	if job.OnProgress != nil {
		job.OnProgress(p)
	}
}

// Run exports s and blocks until the file is written, the export fails or
// ctx is cancelled. s is serialised once up front; later edits to the live
// snapshot do not affect the running export.
func (e *Exporter) Run(ctx context.Context, s scene.Snapshot, job Job) (Result, error) {
	if e.NewSink == nil || e.Muxer == nil {
		return Result{}, ErrNoSetup
	}
	ctx, err := e.begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer e.finish()

	startTime := time.Now()
	res, err := e.run(ctx, s, job)
	if err != nil {
		if ctx.Err() != nil {
			e.log().Info("export cancelled", zap.String("out", job.OutBase))
			return Result{}, ctx.Err()
		}
		e.log().Error("export failed", zap.String("out", job.OutBase), zap.Error(err))
		return Result{}, err
	}
	res.Total = time.Since(startTime)

	if e.ShowStats {
		res.Host = system.CollectHostStats(200 * time.Millisecond)
		e.report(res)
	}
	e.log().Info("export finished",
		zap.String("path", res.Path),
		zap.Int("frames", res.Frames),
		zap.Duration("elapsed", res.Total))
	return res, nil
}

func (e *Exporter) run(ctx context.Context, s scene.Snapshot, job Job) (Result, error) {
	if job.FPS <= 0 {
		return Result{}, fmt.Errorf("fps must be positive, got %d", job.FPS)
	}
	if len(s.Pages) == 0 {
		return Result{}, ErrEmpty
	}
	total := timeline.Duration(s)
	if total <= 0 {
		return Result{}, ErrEmpty
	}

	// copy-on-export: воркер получает только байты документа
	doc, err := scene.Encode(s)
	if err != nil {
		return Result{}, fmt.Errorf("encode document: %w", err)
	}

	tempDir, err := os.MkdirTemp(e.TempDir, "pagereel_")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(tempDir)

	videoPath := filepath.Join(tempDir, "video.mkv")
	sink, err := e.NewSink(ctx, videoPath, s.Width, s.Height, job.FPS)
	if err != nil {
		return Result{}, fmt.Errorf("open sink: %w", err)
	}

	res := Result{Duration: total}
	scheduled := audio.Schedule(s.AudioLayers, total)
	audioPath := ""

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t0 := time.Now()
		frames, err := e.renderVideo(gctx, sink, startMsg{
			Document: doc,
			Width:    s.Width,
			Height:   s.Height,
			Duration: total,
			FPS:      job.FPS,
		}, job)
		res.Frames = frames
		res.RenderTime = time.Since(t0)
		return err
	})
	g.Go(func() error {
		t0 := time.Now()
		path, err := e.mixAudio(gctx, scheduled, total, tempDir)
		audioPath = path
		res.AudioTime = time.Since(t0)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	t0 := time.Now()
	final, err := e.Muxer.Mux(ctx, videoPath, audioPath, job.OutBase)
	if err != nil {
		return Result{}, err
	}
	res.MuxTime = time.Since(t0)
	res.Path = final
	res.HasAudio = audioPath != ""
	return res, nil
}

// renderVideo drives the worker through init/start and relays its progress.
func (e *Exporter) renderVideo(ctx context.Context, sink Sink, start startMsg, job Job) (int, error) {
	w := &worker{
		assets:        e.Assets,
		log:           e.log(),
		workers:       e.Workers,
		progressEvery: e.ProgressEvery,
	}
	// Кадры в полёте: 2*workers в очереди плюс по одному в каждом воркере.
	w.pool = system.NewImagePool(3 * max(e.Workers, 1))
	if w.assets == nil {
		w.assets = source.NewLoader("")
	}

	in := make(chan request, 2)
	out := make(chan reply)
	go w.run(ctx, in, out)

	in <- request{kind: msgInit, init: &initMsg{Sink: sink}}
	in <- request{kind: msgStart, start: &start}
	close(in)

	frames := 0
	var err error
	for r := range out {
		switch r.kind {
		case msgProgress:
			e.setProgress(r.progress, job)
		case msgDone:
			frames = r.frames
			e.setProgress(1, job)
		case msgError:
			err = r.err
		}
	}
	if err == nil && frames == 0 {
		err = ctx.Err()
	}
	reused, allocated := w.pool.Stats()
	w.log.Debug("frame buffers",
		zap.Int64("reused", reused),
		zap.Int64("allocated", allocated))
	return frames, err
}

// mixAudio returns "" when there is no decodable audio.
func (e *Exporter) mixAudio(ctx context.Context, scheduled []audio.Scheduled, total float64, dir string) (string, error) {
	if len(scheduled) == 0 || e.Mixer == nil {
		return "", nil
	}
	clips := scheduled
	if e.Decoder != nil {
		var err error
		clips, err = audio.Decodable(ctx, e.Decoder, scheduled, e.log())
		if err != nil {
			return "", err
		}
	}
	if len(clips) == 0 {
		return "", nil
	}
	out := filepath.Join(dir, "audio.wav")
	if err := e.Mixer.Mix(ctx, clips, total, out); err != nil {
		if errors.Is(err, audio.ErrNothingToMix) {
			return "", nil
		}
		return "", fmt.Errorf("audio mixdown: %w", err)
	}
	return out, nil
}
