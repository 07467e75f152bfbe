// Package editor is the single entry point the CLI and player use to change
// content and playback state.
//
// Content lives in a history.Manager. Selection, the playhead and export
// progress are ephemeral: they never enter history and undo/redo clears the
// selection instead of restoring it.
package editor

import (
	"math"
	"sync"

	"github.com/ivlev/pagereel/internal/compositor"
	"github.com/ivlev/pagereel/internal/history"
	"github.com/ivlev/pagereel/internal/scene"
	"github.com/ivlev/pagereel/internal/timeline"
	"go.uber.org/zap"
)

type Options struct {
	HistoryLimit int
	Logger       *zap.Logger
}

// Selection is the selected page and, optionally, an element on it.
type Selection struct {
	PageID    string
	ElementID string
}

type Editor struct {
	hist *history.Manager
	log  *zap.Logger

	mu        sync.Mutex
	sel       Selection
	current   float64
	playing   bool
	progress  float64
	exporting bool
}

func New(s scene.Snapshot, opts Options) *Editor {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Editor{hist: history.New(s, opts.HistoryLimit), log: log}
}

// Snapshot returns a copy of the live content.
func (e *Editor) Snapshot() scene.Snapshot {
	return e.hist.Live()
}

// View calls fn with the live content without copying it.
func (e *Editor) View(fn func(s scene.Snapshot)) {
	e.hist.View(fn)
}

// Apply runs op as one undo step.
func (e *Editor) Apply(op scene.Op) error {
	if err := e.hist.Apply(op); err != nil {
		return err
	}
	e.afterEdit()
	return nil
}

func (e *Editor) BeginGesture() error {
	return e.hist.BeginGesture()
}

// UpdateGesture applies op to the live content; the whole gesture undoes as
// one step.
func (e *Editor) UpdateGesture(op scene.Op) error {
	if err := e.hist.UpdateGesture(op); err != nil {
		return err
	}
	e.afterEdit()
	return nil
}

func (e *Editor) EndGesture() error {
	return e.hist.EndGesture()
}

func (e *Editor) Undo() bool {
	if !e.hist.Undo() {
		return false
	}
	e.afterHistory()
	return true
}

func (e *Editor) Redo() bool {
	if !e.hist.Redo() {
		return false
	}
	e.afterHistory()
	return true
}

func (e *Editor) CanUndo() bool { return e.hist.CanUndo() }
func (e *Editor) CanRedo() bool { return e.hist.CanRedo() }

// afterEdit drops selection that no longer points at content and keeps the
// playhead inside the timeline.
func (e *Editor) afterEdit() {
	var total float64
	var pageOK, elementOK bool
	e.mu.Lock()
	sel := e.sel
	e.mu.Unlock()
	e.hist.View(func(s scene.Snapshot) {
		total = timeline.Duration(s)
		if i := s.PageIndex(sel.PageID); i >= 0 {
			pageOK = true
			elementOK = s.Pages[i].ElementIndex(sel.ElementID) >= 0
		}
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	if !pageOK {
		e.sel = Selection{}
	} else if !elementOK {
		e.sel.ElementID = ""
	}
	e.current = math.Min(e.current, total)
}

func (e *Editor) afterHistory() {
	total := timeline.Duration(e.hist.Live())
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = Selection{}
	e.current = math.Min(e.current, total)
}

// Selection returns the current selection.
func (e *Editor) Selection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel
}

// SelectPage selects a page and, when paused, moves the playhead to its
// start.
func (e *Editor) SelectPage(pageID string) error {
	var start float64
	var err error
	e.hist.View(func(s scene.Snapshot) {
		i := s.PageIndex(pageID)
		if i < 0 {
			err = scene.ErrPageNotFound
			return
		}
		start = timeline.PageStarts(s.Pages)[i]
	})
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = Selection{PageID: pageID}
	if !e.playing {
		e.current = start
	}
	return nil
}

// SelectElement selects an element on the given page.
func (e *Editor) SelectElement(pageID, elementID string) error {
	var err error
	e.hist.View(func(s scene.Snapshot) {
		i := s.PageIndex(pageID)
		if i < 0 {
			err = scene.ErrPageNotFound
			return
		}
		if s.Pages[i].ElementIndex(elementID) < 0 {
			err = scene.ErrElementNotFound
		}
	})
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = Selection{PageID: pageID, ElementID: elementID}
	return nil
}

func (e *Editor) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = Selection{}
}

// SelectAt selects the topmost element under the canvas point on the page
// shown at the playhead. A miss keeps the page selected and drops the
// element.
func (e *Editor) SelectAt(x, y float64) (string, bool) {
	t := e.CurrentTime()
	var res timeline.Resolution
	var ok bool
	var id string
	var hit bool
	e.hist.View(func(s scene.Snapshot) {
		res, ok = timeline.Resolve(s.Pages, t)
		if ok {
			id, hit = compositor.HitTest(res.Page, res.LocalTime, x, y, s.Width, s.Height)
		}
	})
	if !ok {
		return "", false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = Selection{PageID: res.Page.ID, ElementID: id}
	return id, hit
}
