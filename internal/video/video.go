package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"strings"
)

// RecorderOptions configure the raw-frame encoder.
type RecorderOptions struct {
	FFmpegPath string
	Path       string
	Width      int
	Height     int
	FPS        int
	Encoder    string
	Quality    int
}

// Recorder pipes raw RGBA frames into an ffmpeg process that encodes them
// to a video-only file.
type Recorder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    bytes.Buffer
	path   string
	frame  int
	width  int
	height int
	closed bool
}

// StartRecorder launches ffmpeg. Cancelling ctx kills the process.
func StartRecorder(ctx context.Context, opts RecorderOptions) (*Recorder, error) {
	bin := opts.FFmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}
	r := &Recorder{path: opts.Path, width: opts.Width, height: opts.Height}
	r.cmd = exec.CommandContext(ctx, bin, buildRecorderArgs(opts)...)
	r.cmd.Stdout = &r.out
	r.cmd.Stderr = &r.out

	stdin, err := r.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	r.stdin = stdin
	if err := r.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return r, nil
}

func buildRecorderArgs(opts RecorderOptions) []string {
	encoder := opts.Encoder
	if encoder == "" || encoder == "auto" {
		encoder = "libx264"
	}
	args := []string{
		"-y", "-v", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-framerate", fmt.Sprintf("%d", opts.FPS),
		"-i", "-",
		"-an",
		"-pix_fmt", "yuv420p",
		"-c:v", encoder,
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultQuality(encoder)
	}
	args = append(args, qualityArgs(encoder, quality)...)
	return append(args, opts.Path)
}

// DefaultQuality is the quality used when the config leaves it at 0.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // Хорошее качество для VideoToolbox
	case "h264_nvenc":
		return 28 // Эквивалент CRF для NVENC
	case "libvpx-vp9":
		return 32
	default:
		return 23 // Стандартный CRF для x264
	}
}

// qualityArgs maps the single quality knob onto each encoder's own scale.
func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox часто не поддерживает -q:v напрямую на всех версиях. Используем битрейт.
		bitrate := quality * 100 // кбит/с
		return []string{"-b:v", fmt.Sprintf("%dk", bitrate)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	case "libvpx-vp9":
		return []string{"-crf", fmt.Sprintf("%d", quality), "-b:v", "0"}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

// WriteFrame sends one frame. Frames must match the recorder's size.
func (r *Recorder) WriteFrame(img *image.RGBA) error {
	if b := img.Bounds(); b.Dx() != r.width || b.Dy() != r.height {
		return fmt.Errorf("frame %d is %dx%d, recorder expects %dx%d", r.frame, b.Dx(), b.Dy(), r.width, r.height)
	}
	if err := writeRawRGBA(r.stdin, img); err != nil {
		return fmt.Errorf("write raw error at frame %d: %w, output: %s", r.frame, err, r.output())
	}
	r.frame++
	return nil
}

// Frames is the number of frames written so far.
func (r *Recorder) Frames() int {
	return r.frame
}

func (r *Recorder) Path() string {
	return r.path
}

// Close finishes the stream and waits for ffmpeg to flush the file.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.stdin.Close()
	if err := r.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, r.output())
	}
	return nil
}

// Abort kills ffmpeg and removes the partial file.
func (r *Recorder) Abort() {
	if !r.closed {
		r.closed = true
		r.stdin.Close()
		if r.cmd.Process != nil {
			r.cmd.Process.Kill()
		}
		r.cmd.Wait()
	}
	os.Remove(r.path)
}

func (r *Recorder) output() string {
	return strings.TrimSpace(r.out.String())
}

// writeRawRGBA writes tightly packed RGBA rows, copying when the image has
// padding or a non-zero origin.
func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
