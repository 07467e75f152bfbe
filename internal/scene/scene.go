package scene

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPageNotFound    = errors.New("page not found")
	ErrElementNotFound = errors.New("element not found")
	ErrLayerNotFound   = errors.New("audio layer not found")
	ErrClipNotFound    = errors.New("audio clip not found")
	ErrInvalid         = errors.New("invalid content")
)

// Kind is the visual type of an element.
type Kind string

const (
	KindRect     Kind = "rect"
	KindEllipse  Kind = "ellipse"
	KindTriangle Kind = "triangle"
	KindDiamond  Kind = "diamond"
	KindPentagon Kind = "pentagon"
	KindHexagon  Kind = "hexagon"
	KindStar     Kind = "star"
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindQR       Kind = "qr"
)

// IsShape reports whether the kind is drawn as a filled vector outline.
func (k Kind) IsShape() bool {
	switch k {
	case KindRect, KindEllipse, KindTriangle, KindDiamond, KindPentagon, KindHexagon, KindStar:
		return true
	}
	return false
}

// AnimationType selects the motion applied by an Animation binding.
type AnimationType string

const (
	AnimNone   AnimationType = "none"
	AnimFade   AnimationType = "fade"
	AnimRise   AnimationType = "rise"
	AnimPan    AnimationType = "pan"
	AnimPop    AnimationType = "pop"
	AnimShake  AnimationType = "shake"
	AnimPulse  AnimationType = "pulse"
	AnimWiggle AnimationType = "wiggle"
	// Page-only transforms.
	AnimSlide AnimationType = "slide"
	AnimZoom  AnimationType = "zoom"
)

type AnimationMode string

const (
	ModeEnter AnimationMode = "enter"
	ModeExit  AnimationMode = "exit"
	ModeBoth  AnimationMode = "both"
)

type Direction string

const (
	DirLeft  Direction = "left"
	DirRight Direction = "right"
	DirUp    Direction = "up"
	DirDown  Direction = "down"
)

// Animation binds an animation preset to an element or a page.
type Animation struct {
	Type      AnimationType `json:"type"`
	Speed     float64       `json:"speed"`
	Delay     float64       `json:"delay"`
	Direction Direction     `json:"direction,omitempty"`
	Mode      AnimationMode `json:"mode,omitempty"`
}

// Normalize fills unset speed and mode.
func (a *Animation) Normalize() {
	if a == nil {
		return
	}
	if a.Type == "" {
		a.Type = AnimNone
	}
	if a.Speed <= 0 {
		a.Speed = 1
	}
	if a.Mode == "" {
		a.Mode = ModeEnter
	}
}

// Element is a single visual object on a page. Geometry is in canvas units,
// rotation in degrees.
type Element struct {
	ID        string     `json:"id"`
	Kind      Kind       `json:"type"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Rotation  float64    `json:"rotation"`
	Scale     float64    `json:"scale"`
	Opacity   float64    `json:"opacity"`
	Fill      string     `json:"fill,omitempty"`
	Text      string     `json:"text,omitempty"`
	FontSize  float64    `json:"fontSize,omitempty"`
	Src       string     `json:"src,omitempty"`
	Animation *Animation `json:"animation,omitempty"`
}

// Page is a timed slide. Elements are ordered back to front.
type Page struct {
	ID         string     `json:"id"`
	Duration   float64    `json:"duration"`
	Background string     `json:"background"`
	Elements   []Element  `json:"elements"`
	Animation  *Animation `json:"animation,omitempty"`
}

// AudioClip is a window [Offset, Offset+Duration) of a source played from
// StartAt on the global timeline.
type AudioClip struct {
	ID            string  `json:"id"`
	Src           string  `json:"src"`
	Label         string  `json:"label"`
	StartAt       float64 `json:"startAt"`
	Duration      float64 `json:"duration"`
	Offset        float64 `json:"offset"`
	TotalDuration float64 `json:"totalDuration"`
}

// End is the global time at which the clip stops playing.
func (c AudioClip) End() float64 {
	return c.StartAt + c.Duration
}

type AudioLayer struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Clips []AudioClip `json:"clips"`
}

// Snapshot is the undoable content: pages and audio layers plus the canvas
// size they are laid out on. Snapshots are values; Clone before mutating.
type Snapshot struct {
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Pages       []Page       `json:"pages"`
	AudioLayers []AudioLayer `json:"audioLayers"`
}

// Op is a single content edit. Apply must not mutate its argument.
type Op interface {
	Apply(s Snapshot) (Snapshot, error)
}

// OpFunc adapts a function to Op.
type OpFunc func(s Snapshot) (Snapshot, error)

func (f OpFunc) Apply(s Snapshot) (Snapshot, error) {
	return f(s)
}

// NewID returns a fresh identifier for pages, elements, layers and clips.
func NewID() string {
	return uuid.New().String()
}

const (
	DefaultPageDuration = 5.0
	DefaultBackground   = "#ffffff"
	DefaultWidth        = 1280
	DefaultHeight       = 720
)

// NewPage returns an empty page with default duration and background.
func NewPage() Page {
	return Page{
		ID:         NewID(),
		Duration:   DefaultPageDuration,
		Background: DefaultBackground,
	}
}

// New returns a snapshot holding a single empty page, the minimum valid
// content.
func New(width, height int) Snapshot {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return Snapshot{
		Width:  width,
		Height: height,
		Pages:  []Page{NewPage()},
	}
}

// NewElement returns an element of the given kind with neutral defaults.
func NewElement(kind Kind, x, y, w, h float64) Element {
	el := Element{
		ID:      NewID(),
		Kind:    kind,
		X:       x,
		Y:       y,
		Width:   w,
		Height:  h,
		Scale:   1,
		Opacity: 1,
		Fill:    "#3b82f6",
	}
	if kind == KindText {
		el.Fill = "#111111"
		el.FontSize = 32
	}
	return el
}
