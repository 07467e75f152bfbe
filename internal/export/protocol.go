package export

import (
	"fmt"
	"image"
)

// Messages between the coordinator and the render worker. The worker never
// sees the live snapshot: it gets the serialised document and decodes its
// own copy.

type msgKind int

const (
	msgInit msgKind = iota
	msgStart
	msgProgress
	msgDone
	msgError
)

func (k msgKind) String() string {
	switch k {
	case msgInit:
		return "init"
	case msgStart:
		return "start"
	case msgProgress:
		return "progress"
	case msgDone:
		return "done"
	case msgError:
		return "error"
	}
	return fmt.Sprintf("msgKind(%d)", int(k))
}

// request flows coordinator -> worker: init first, then start.
type request struct {
	kind  msgKind
	init  *initMsg
	start *startMsg
}

type initMsg struct {
	Sink Sink
}

type startMsg struct {
	Document []byte
	Width    int
	Height   int
	Duration float64
	FPS      int
}

// reply flows worker -> coordinator.
type reply struct {
	kind     msgKind
	progress float64
	frames   int
	err      error
}

// Frame is one rendered frame handed to the sink. Image is only valid for
// the duration of WriteFrame; it goes back to the pool afterwards.
type Frame struct {
	Index     int
	Time      float64
	PageIndex int
	LocalTime float64
	Image     *image.RGBA
}
