package export

import (
	"context"

	"github.com/ivlev/pagereel/internal/video"
)

// FFmpegSink records frames through video.Recorder.
func FFmpegSink(ffmpegPath, encoder string, quality int) SinkFactory {
	return func(ctx context.Context, path string, width, height, fps int) (Sink, error) {
		rec, err := video.StartRecorder(ctx, video.RecorderOptions{
			FFmpegPath: ffmpegPath,
			Path:       path,
			Width:      width,
			Height:     height,
			FPS:        fps,
			Encoder:    encoder,
			Quality:    quality,
		})
		if err != nil {
			return nil, err
		}
		return recorderSink{rec}, nil
	}
}

type recorderSink struct {
	*video.Recorder
}

func (s recorderSink) WriteFrame(f Frame) error {
	return s.Recorder.WriteFrame(f.Image)
}
