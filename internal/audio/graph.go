package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ErrNothingToMix is returned by Mix when no clip is scheduled.
var ErrNothingToMix = errors.New("no audio clips scheduled")

// Mixdown output format.
const (
	SampleRate = 48000
	Channels   = 2
)

// BuildFilterGraph returns the filter_complex that cuts each input to its
// window, delays it to its start and mixes everything into [aout] of exactly
// total seconds.
func BuildFilterGraph(clips []Scheduled, total float64) string {
	var sb strings.Builder
	for i, c := range clips {
		delay := int64(math.Round(c.At * 1000))
		// Входы приводим к одному формату, иначе amix выберет раскладку первого
		fmt.Fprintf(&sb, "[%d:a]aformat=sample_rates=%d:channel_layouts=stereo,"+
			"atrim=start=%.6f:duration=%.6f,asetpts=PTS-STARTPTS,adelay=%d|%d[a%d];",
			i, SampleRate, c.Offset, c.Duration, delay, delay, i)
	}
	for i := range clips {
		fmt.Fprintf(&sb, "[a%d]", i)
	}
	fmt.Fprintf(&sb, "amix=inputs=%d:duration=longest:dropout_transition=0,", len(clips))
	// amix делит громкость на число входов, возвращаем уровень каждого клипа
	fmt.Fprintf(&sb, "volume=%d,apad,atrim=end=%.6f[aout]", len(clips), total)
	return sb.String()
}

// FFmpegMixer renders scheduled clips into one PCM file with ffmpeg.
type FFmpegMixer struct {
	FFmpegPath string
	Logger     *zap.Logger
}

func (m *FFmpegMixer) binary() string {
	if m.FFmpegPath != "" {
		return m.FFmpegPath
	}
	return "ffmpeg"
}

func (m *FFmpegMixer) buildArgs(clips []Scheduled, total float64, out string) []string {
	args := []string{"-y", "-v", "error"}
	for _, c := range clips {
		args = append(args, "-i", c.Src)
	}
	args = append(args,
		"-filter_complex", BuildFilterGraph(clips, total),
		"-map", "[aout]",
		"-ac", fmt.Sprintf("%d", Channels),
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-c:a", "pcm_s16le",
		out,
	)
	return args
}

// Mix writes the mixdown of clips, total seconds long, to out (a .wav path).
// Cancelling ctx kills ffmpeg and removes the partial file.
func (m *FFmpegMixer) Mix(ctx context.Context, clips []Scheduled, total float64, out string) error {
	if len(clips) == 0 {
		return ErrNothingToMix
	}
	log := m.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("audio mixdown", zap.Int("clips", len(clips)), zap.Float64("total", total), zap.String("out", out))

	cmd := exec.CommandContext(ctx, m.binary(), m.buildArgs(clips, total, out)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		os.Remove(out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg mixdown error: %w, output: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
