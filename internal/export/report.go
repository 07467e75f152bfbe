package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Report formats the performance summary printed when show_stats is on.
func (r Result) Report(build string) string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Output: %s\n"+
			"Frames: %d (%.2fs of timeline)\n"+
			"Total Time: %.2fs\n"+
			"Rendering (CPU): %.2fs\n"+
			"Audio Mixdown: %.2fs\n"+
			"Muxing: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Host: %d CPUs, CPU %.1f%%, RAM %.1f%% of %d MiB, RSS %d MiB\n"+
			"----------------------------\n",
		build, filepath.Base(r.Path), r.Frames, r.Duration,
		r.Total.Seconds(), r.RenderTime.Seconds(), r.AudioTime.Seconds(), r.MuxTime.Seconds(),
		r.EffectiveFPS(),
		r.Host.CPUs, r.Host.CPUPercent, r.Host.MemUsedPct, r.Host.MemTotal>>20, r.Host.ProcessRSS>>20,
	)
}

// benchmarkLine is one line of the benchmark log.
func (r Result) benchmarkLine(build string, at time.Time) string {
	return fmt.Sprintf("[%s] Build: %s | Output: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Audio: %.2fs | Mux: %.2fs | FPS: %.2f\n",
		at.Format("2006-01-02 15:04:05"),
		build,
		filepath.Base(r.Path),
		r.Frames,
		r.Total.Seconds(),
		r.RenderTime.Seconds(),
		r.AudioTime.Seconds(),
		r.MuxTime.Seconds(),
		r.EffectiveFPS(),
	)
}

func (e *Exporter) report(r Result) {
	fmt.Print(r.Report(e.BuildVersion))
	e.log().Info("export stats",
		zap.Int("frames", r.Frames),
		zap.Duration("total", r.Total),
		zap.Duration("render", r.RenderTime),
		zap.Duration("audio", r.AudioTime),
		zap.Duration("mux", r.MuxTime),
		zap.Float64("fps", r.EffectiveFPS()),
		zap.Float64("cpu_percent", r.Host.CPUPercent),
		zap.Uint64("rss", r.Host.ProcessRSS))

	if e.BenchmarkLog == "" {
		return
	}
	f, err := os.OpenFile(e.BenchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("[!] Не удалось записать %s: %v\n", e.BenchmarkLog, err)
		return
	}
	defer f.Close()
	f.WriteString(r.benchmarkLine(e.BuildVersion, time.Now()))
}
