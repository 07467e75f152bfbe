package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Decoder probes audio sources.
type Decoder interface {
	// Duration returns the full length of src in seconds.
	Duration(ctx context.Context, src string) (float64, error)
}

// FFprobeDecoder asks ffprobe for the container duration.
type FFprobeDecoder struct {
	FFprobePath string
}

func (d FFprobeDecoder) Duration(ctx context.Context, src string) (float64, error) {
	bin := d.FFprobePath
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin, "-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", src)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", src, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: bad duration %q: %w", src, strings.TrimSpace(string(out)), err)
	}
	return v, nil
}

// Decodable keeps the clips whose sources the decoder can read. Failures are
// logged and skipped so one broken file does not sink the export.
func Decodable(ctx context.Context, dec Decoder, clips []Scheduled, log *zap.Logger) ([]Scheduled, error) {
	if log == nil {
		log = zap.NewNop()
	}
	probed := make(map[string]error)
	var out []Scheduled
	for _, c := range clips {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err, seen := probed[c.Src]
		if !seen {
			_, err = dec.Duration(ctx, c.Src)
			probed[c.Src] = err
			if err != nil {
				log.Warn("skipping undecodable audio", zap.String("src", c.Src), zap.Error(err))
			}
		}
		if err == nil {
			out = append(out, c)
		}
	}
	return out, nil
}
