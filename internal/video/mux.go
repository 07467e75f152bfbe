package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ivlev/pagereel/internal/system"
	"go.uber.org/zap"
)

// ErrNoContainer means none of the configured containers can be written by
// the local ffmpeg.
var ErrNoContainer = errors.New("no supported output container")

// Container describes an output format the muxer can target.
type Container struct {
	Ext        string // file extension and config name
	Muxer      string // ffmpeg -f name
	VideoCodec string // "copy" keeps the recorded H.264 stream
	AudioCodec string
}

var containers = map[string]Container{
	"mp4":  {Ext: "mp4", Muxer: "mp4", VideoCodec: "copy", AudioCodec: "aac"},
	"mov":  {Ext: "mov", Muxer: "mov", VideoCodec: "copy", AudioCodec: "aac"},
	"mkv":  {Ext: "mkv", Muxer: "matroska", VideoCodec: "copy", AudioCodec: "aac"},
	"webm": {Ext: "webm", Muxer: "webm", VideoCodec: "libvpx-vp9", AudioCodec: "libopus"},
}

// LookupContainer resolves a config name such as "mp4" or "mkv".
func LookupContainer(name string) (Container, bool) {
	c, ok := containers[strings.ToLower(strings.TrimPrefix(name, "."))]
	return c, ok
}

// Muxer joins the recorded video with the audio mixdown into the first
// supported container of Containers.
type Muxer struct {
	FFmpegPath string
	Containers []string
	Quality    int
	Logger     *zap.Logger
	// Supports reports whether ffmpeg can write a muxer; nil probes the
	// local ffmpeg.
	Supports func(muxer string) bool
}

func (m *Muxer) binary() string {
	if m.FFmpegPath != "" {
		return m.FFmpegPath
	}
	return "ffmpeg"
}

// Pick returns the first configured container the local ffmpeg supports.
func (m *Muxer) Pick() (Container, error) {
	supports := m.Supports
	if supports == nil {
		supports = func(muxer string) bool { return system.CheckMuxerSupport(m.binary(), muxer) }
	}
	for _, name := range m.Containers {
		c, ok := LookupContainer(name)
		if !ok {
			if m.Logger != nil {
				m.Logger.Warn("unknown container in config", zap.String("container", name))
			}
			continue
		}
		if supports(c.Muxer) {
			return c, nil
		}
		if m.Logger != nil {
			m.Logger.Info("container not supported by ffmpeg, trying next", zap.String("container", name))
		}
	}
	return Container{}, fmt.Errorf("%w (tried %s)", ErrNoContainer, strings.Join(m.Containers, ", "))
}

// Mux writes outBase.<ext> and returns its path. audioPath may be empty. A
// failed or cancelled mux leaves no partial file behind.
func (m *Muxer) Mux(ctx context.Context, videoPath, audioPath, outBase string) (string, error) {
	c, err := m.Pick()
	if err != nil {
		return "", err
	}
	final := outBase + "." + c.Ext
	cmd := exec.CommandContext(ctx, m.binary(), m.buildArgs(c, videoPath, audioPath, final)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(final)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg mux error: %w, output: %s", err, strings.TrimSpace(string(out)))
	}
	return final, nil
}

func (m *Muxer) buildArgs(c Container, videoPath, audioPath, final string) []string {
	args := []string{"-y", "-v", "error", "-i", videoPath}
	if audioPath != "" {
		args = append(args, "-i", audioPath)
	}
	args = append(args, "-map", "0:v:0")
	if audioPath != "" {
		args = append(args, "-map", "1:a:0")
	}

	args = append(args, "-c:v", c.VideoCodec)
	if c.VideoCodec != "copy" {
		quality := m.Quality
		if quality <= 0 {
			quality = DefaultQuality(c.VideoCodec)
		}
		args = append(args, qualityArgs(c.VideoCodec, quality)...)
	}
	if audioPath != "" {
		args = append(args, "-c:a", c.AudioCodec, "-b:a", "192k")
	}
	if c.Muxer == "mp4" || c.Muxer == "mov" {
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, "-f", c.Muxer, final)
}
