package scene

import (
	"fmt"
	"math"
)

const (
	// MinPageDuration bounds page-duration drags.
	MinPageDuration = 0.5
	// MinElementSize bounds resize drags.
	MinElementSize = 10.0
	// DuplicateOffset shifts a duplicated element so it does not hide its source.
	DuplicateOffset = 20.0
)

// AddPage inserts Page after the page with ID After, or appends when After is
// empty or unknown. A zero Page gets defaults and a fresh ID.
type AddPage struct {
	Page  Page
	After string
}

func (op AddPage) Apply(s Snapshot) (Snapshot, error) {
	p := op.Page.Clone()
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Duration <= 0 {
		p.Duration = DefaultPageDuration
	}
	if p.Background == "" {
		p.Background = DefaultBackground
	}
	out := s.Clone()
	at := len(out.Pages)
	if i := out.PageIndex(op.After); i >= 0 {
		at = i + 1
	}
	out.Pages = insertAt(out.Pages, at, p)
	return out, nil
}

// DuplicatePage copies a page and all its elements under fresh IDs and places
// the copy right after the source.
type DuplicatePage struct {
	PageID string
	// NewID is optional; when set the copy takes this ID so callers can select it.
	NewID string
}

func (op DuplicatePage) Apply(s Snapshot) (Snapshot, error) {
	i := s.PageIndex(op.PageID)
	if i < 0 {
		return s, fmt.Errorf("duplicate page %s: %w", op.PageID, ErrPageNotFound)
	}
	out := s.Clone()
	cp := out.Pages[i].Clone()
	cp.ID = op.NewID
	if cp.ID == "" {
		cp.ID = NewID()
	}
	for j := range cp.Elements {
		cp.Elements[j].ID = NewID()
	}
	out.Pages = insertAt(out.Pages, i+1, cp)
	return out, nil
}

// DeletePage removes a page and its elements. Deleting the last remaining
// page is a no-op.
type DeletePage struct {
	PageID string
}

func (op DeletePage) Apply(s Snapshot) (Snapshot, error) {
	i := s.PageIndex(op.PageID)
	if i < 0 {
		return s, fmt.Errorf("delete page %s: %w", op.PageID, ErrPageNotFound)
	}
	if len(s.Pages) <= 1 {
		return s, nil
	}
	out := s.Clone()
	out.Pages = append(out.Pages[:i], out.Pages[i+1:]...)
	return out, nil
}

// MovePage moves a page to index To (clamped).
type MovePage struct {
	PageID string
	To     int
}

func (op MovePage) Apply(s Snapshot) (Snapshot, error) {
	i := s.PageIndex(op.PageID)
	if i < 0 {
		return s, fmt.Errorf("move page %s: %w", op.PageID, ErrPageNotFound)
	}
	out := s.Clone()
	out.Pages = move(out.Pages, i, op.To)
	return out, nil
}

// PagePatch lists the page fields to change; nil fields are kept.
type PagePatch struct {
	Duration   *float64
	Background *string
	// Animation replaces the binding; ClearAnimation removes it.
	Animation      *Animation
	ClearAnimation bool
}

type UpdatePage struct {
	PageID string
	Patch  PagePatch
}

func (op UpdatePage) Apply(s Snapshot) (Snapshot, error) {
	i := s.PageIndex(op.PageID)
	if i < 0 {
		return s, fmt.Errorf("update page %s: %w", op.PageID, ErrPageNotFound)
	}
	out := s.Clone()
	p := &out.Pages[i]
	if d := op.Patch.Duration; d != nil {
		p.Duration = math.Max(MinPageDuration, *d)
	}
	if b := op.Patch.Background; b != nil {
		p.Background = *b
	}
	if op.Patch.ClearAnimation {
		p.Animation = nil
	}
	if a := op.Patch.Animation; a != nil {
		p.Animation = a.Clone()
		p.Animation.Normalize()
	}
	return out, nil
}

// AddElement appends an element on top of the page's stack.
type AddElement struct {
	PageID  string
	Element Element
}

func (op AddElement) Apply(s Snapshot) (Snapshot, error) {
	i := s.PageIndex(op.PageID)
	if i < 0 {
		return s, fmt.Errorf("add element: %w", ErrPageNotFound)
	}
	el := op.Element.Clone()
	if el.ID == "" {
		el.ID = NewID()
	}
	if el.Scale == 0 {
		el.Scale = 1
	}
	el.Animation.Normalize()
	clampElement(&el)
	out := s.Clone()
	out.Pages[i].Elements = append(out.Pages[i].Elements, el)
	return out, nil
}

// ElementPatch lists the element fields to change; nil fields are kept.
type ElementPatch struct {
	X, Y          *float64
	Width, Height *float64
	Rotation      *float64
	Scale         *float64
	Opacity       *float64
	Fill          *string
	Text          *string
	FontSize      *float64
	Src           *string

	Animation      *Animation
	ClearAnimation bool
}

type UpdateElement struct {
	PageID    string
	ElementID string
	Patch     ElementPatch
}

func (op UpdateElement) Apply(s Snapshot) (Snapshot, error) {
	pi, ei, err := locateElement(s, op.PageID, op.ElementID)
	if err != nil {
		return s, fmt.Errorf("update element: %w", err)
	}
	out := s.Clone()
	el := &out.Pages[pi].Elements[ei]
	p := op.Patch
	setf(&el.X, p.X)
	setf(&el.Y, p.Y)
	setf(&el.Width, p.Width)
	setf(&el.Height, p.Height)
	setf(&el.Rotation, p.Rotation)
	setf(&el.Scale, p.Scale)
	setf(&el.Opacity, p.Opacity)
	setf(&el.FontSize, p.FontSize)
	sets(&el.Fill, p.Fill)
	sets(&el.Text, p.Text)
	sets(&el.Src, p.Src)
	if p.ClearAnimation {
		el.Animation = nil
	}
	if p.Animation != nil {
		el.Animation = p.Animation.Clone()
		el.Animation.Normalize()
	}
	clampElement(el)
	return out, nil
}

type DeleteElement struct {
	PageID    string
	ElementID string
}

func (op DeleteElement) Apply(s Snapshot) (Snapshot, error) {
	pi, ei, err := locateElement(s, op.PageID, op.ElementID)
	if err != nil {
		return s, fmt.Errorf("delete element: %w", err)
	}
	out := s.Clone()
	els := out.Pages[pi].Elements
	out.Pages[pi].Elements = append(els[:ei], els[ei+1:]...)
	return out, nil
}

// DuplicateElement places a shifted copy directly above the source element.
type DuplicateElement struct {
	PageID    string
	ElementID string
	NewID     string
}

func (op DuplicateElement) Apply(s Snapshot) (Snapshot, error) {
	pi, ei, err := locateElement(s, op.PageID, op.ElementID)
	if err != nil {
		return s, fmt.Errorf("duplicate element: %w", err)
	}
	out := s.Clone()
	cp := out.Pages[pi].Elements[ei].Clone()
	cp.ID = op.NewID
	if cp.ID == "" {
		cp.ID = NewID()
	}
	cp.X += DuplicateOffset
	cp.Y += DuplicateOffset
	out.Pages[pi].Elements = insertAt(out.Pages[pi].Elements, ei+1, cp)
	return out, nil
}

// ReorderElement moves an element to z-index To (0 is the back).
type ReorderElement struct {
	PageID    string
	ElementID string
	To        int
}

func (op ReorderElement) Apply(s Snapshot) (Snapshot, error) {
	pi, ei, err := locateElement(s, op.PageID, op.ElementID)
	if err != nil {
		return s, fmt.Errorf("reorder element: %w", err)
	}
	out := s.Clone()
	out.Pages[pi].Elements = move(out.Pages[pi].Elements, ei, op.To)
	return out, nil
}

// AddLayer appends an audio layer. A zero Layer gets a fresh ID.
type AddLayer struct {
	Layer AudioLayer
}

func (op AddLayer) Apply(s Snapshot) (Snapshot, error) {
	l := op.Layer.Clone()
	if l.ID == "" {
		l.ID = NewID()
	}
	if l.Name == "" {
		l.Name = fmt.Sprintf("Track %d", len(s.AudioLayers)+1)
	}
	out := s.Clone()
	out.AudioLayers = append(out.AudioLayers, l)
	return out, nil
}

// DeleteLayer removes a layer together with its clips.
type DeleteLayer struct {
	LayerID string
}

func (op DeleteLayer) Apply(s Snapshot) (Snapshot, error) {
	i := s.LayerIndex(op.LayerID)
	if i < 0 {
		return s, fmt.Errorf("delete layer %s: %w", op.LayerID, ErrLayerNotFound)
	}
	out := s.Clone()
	out.AudioLayers = append(out.AudioLayers[:i], out.AudioLayers[i+1:]...)
	return out, nil
}

func locateElement(s Snapshot, pageID, elementID string) (int, int, error) {
	pi := s.PageIndex(pageID)
	if pi < 0 {
		return -1, -1, ErrPageNotFound
	}
	ei := s.Pages[pi].ElementIndex(elementID)
	if ei < 0 {
		return -1, -1, ErrElementNotFound
	}
	return pi, ei, nil
}

func clampElement(el *Element) {
	el.Width = math.Max(MinElementSize, el.Width)
	el.Height = math.Max(MinElementSize, el.Height)
	el.Opacity = math.Min(1, math.Max(0, el.Opacity))
}

func setf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func sets(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func insertAt[T any](s []T, i int, v T) []T {
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func move[T any](s []T, from, to int) []T {
	if to < 0 {
		to = 0
	}
	if to > len(s)-1 {
		to = len(s) - 1
	}
	if from == to {
		return s
	}
	v := s[from]
	s = append(s[:from], s[from+1:]...)
	return insertAt(s, to, v)
}
