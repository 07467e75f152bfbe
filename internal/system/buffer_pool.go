package system

import (
	"image"
	"sync"
	"sync/atomic"
)

const defaultKeep = 8

// ImagePool recycles RGBA buffers by pixel size, so one buffer serves any
// rectangle of the same dimensions. At most keep buffers per size are held;
// the rest go to the GC.
type ImagePool struct {
	// Zero clears a reused buffer before handing it out. Callers that repaint
	// every pixel (frame rendering, background layers) leave it off.
	Zero bool

	mu   sync.Mutex
	free map[image.Point][]*image.RGBA
	keep int

	reused    atomic.Int64
	allocated atomic.Int64
}

var layers = NewImagePool(defaultKeep)

// GetImage takes a scratch layer from the shared pool. Its pixels are stale.
func GetImage(rect image.Rectangle) *image.RGBA {
	return layers.Get(rect)
}

// PutImage hands a scratch layer back to the shared pool.
func PutImage(img *image.RGBA) {
	layers.Put(img)
}

// NewImagePool creates a private pool, e.g. for one export. keep <= 0 uses
// the default.
func NewImagePool(keep int) *ImagePool {
	if keep <= 0 {
		keep = defaultKeep
	}
	return &ImagePool{free: make(map[image.Point][]*image.RGBA), keep: keep}
}

// Get returns a buffer whose bounds are exactly rect.
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	size := rect.Size()
	p.mu.Lock()
	list := p.free[size]
	var img *image.RGBA
	if n := len(list); n > 0 {
		img = list[n-1]
		list[n-1] = nil
		p.free[size] = list[:n-1]
	}
	p.mu.Unlock()

	if img == nil {
		p.allocated.Add(1)
		return image.NewRGBA(rect)
	}
	p.reused.Add(1)
	// Буфер мог прийти с другим началом координат.
	img.Rect = rect
	if p.Zero {
		clear(img.Pix)
	}
	return img
}

// Put returns img to the pool. nil and empty images are ignored.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Empty() {
		return
	}
	size := img.Rect.Size()
	if len(img.Pix) < 4*size.X*size.Y || img.Stride != 4*size.X {
		// Подизображение (SubImage) не владеет своим буфером.
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free[size]) < p.keep {
		p.free[size] = append(p.free[size], img)
	}
}

// Stats reports how many Get calls were served from the pool and how many
// allocated a fresh buffer.
func (p *ImagePool) Stats() (reused, allocated int64) {
	return p.reused.Load(), p.allocated.Load()
}
