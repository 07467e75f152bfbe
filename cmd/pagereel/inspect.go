package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ivlev/pagereel/internal/audio"
	"github.com/ivlev/pagereel/internal/scene"
	"github.com/ivlev/pagereel/internal/timeline"
	"github.com/spf13/cobra"
)

var inspectFlags struct {
	input string
	at    float64
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the timeline of a document: pages, animations and audio clips",
	RunE:  runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.StringVarP(&inspectFlags.input, "input", "i", "", "document JSON (default: newest file in input/)")
	f.Float64Var(&inspectFlags.at, "at", -1, "also resolve this global time")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, docPath, err := loadDocument(inspectFlags.input)
	if err != nil {
		return err
	}
	total := timeline.Duration(s)
	fmt.Printf("[*] %s: %dx%d, %d страниц, %.2fs (видео %.2fs, аудио %.2fs)\n",
		docPath, s.Width, s.Height, len(s.Pages), total,
		timeline.TotalVisualDuration(s.Pages), timeline.TotalAudioExtent(s.AudioLayers))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPAGE\tSTART\tDURATION\tELEMENTS\tANIMATION")
	starts := timeline.PageStarts(s.Pages)
	for i, p := range s.Pages {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%d\t%s\n", i+1, p.ID, starts[i], p.Duration, len(p.Elements), describe(p.Animation))
	}
	w.Flush()

	if len(s.AudioLayers) > 0 {
		fmt.Println()
		fmt.Fprintln(w, "LAYER\tCLIP\tSRC\tSTART\tEND\tOFFSET\tSOURCE")
		for _, l := range s.AudioLayers {
			for _, c := range l.Clips {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\n", l.Name, c.ID, c.Src, c.StartAt, c.End(), c.Offset, c.TotalDuration)
			}
		}
		w.Flush()
		fmt.Printf("[*] В экспорт попадут клипов: %d\n", len(audio.Schedule(s.AudioLayers, total)))
	}

	if inspectFlags.at >= 0 {
		res, ok := timeline.Resolve(s.Pages, inspectFlags.at)
		if !ok {
			return fmt.Errorf("документ не содержит страниц")
		}
		fmt.Printf("[*] t=%.3fs -> страница %d (%s), локальное время %.3fs\n", inspectFlags.at, res.PageIndex+1, res.Page.ID, res.LocalTime)
	}
	return nil
}

func describe(a *scene.Animation) string {
	if a == nil || a.Type == scene.AnimNone {
		return "-"
	}
	out := fmt.Sprintf("%s x%.2g", a.Type, a.Speed)
	if a.Delay > 0 {
		out += fmt.Sprintf(" +%.2fs", a.Delay)
	}
	if a.Direction != "" {
		out += " " + string(a.Direction)
	}
	if a.Mode != "" && a.Mode != scene.ModeEnter {
		out += " " + string(a.Mode)
	}
	return out
}
