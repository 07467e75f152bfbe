// Package analyzer finds content regions on rendered pages.
package analyzer

import "image"

// Block is a detected region of interest in raster coordinates of the
// analysed image.
type Block struct {
	Rect image.Rectangle
	// Density is the share of edge pixels inside Rect, 0..1.
	Density float64
}

// Detector is the interface for image analysis strategies.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}
