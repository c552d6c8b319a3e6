// Package imageref defines the handle type for decoded images.
//
// A [Ref] is immutable once created: the compositor only reads its size and
// pixels, and sequences may hold the same Ref more than once.
package imageref

import (
	"image"

	"github.com/google/uuid"
)

// Ref is an opaque handle to a decoded raster image.
type Ref struct {
	ID    string      // unique handle, UUIDv7
	Name  string      // source label (file name, "clipboard-1", ...)
	Image image.Image // decoded pixels
}

// New wraps img in a Ref with a fresh ID.
func New(name string, img image.Image) Ref {
	return Ref{ID: NewID(), Name: name, Image: img}
}

// NewID returns a time-sortable UUIDv7 string.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Width returns the pixel width of the image.
func (r Ref) Width() int {
	if r.Image == nil {
		return 0
	}
	return r.Image.Bounds().Dx()
}

// Height returns the pixel height of the image.
func (r Ref) Height() int {
	if r.Image == nil {
		return 0
	}
	return r.Image.Bounds().Dy()
}

// Size returns the image dimensions as a point.
func (r Ref) Size() image.Point {
	return image.Pt(r.Width(), r.Height())
}

// Sizes returns the dimensions of each ref, in order.
func Sizes(refs []Ref) []image.Point {
	out := make([]image.Point, len(refs))
	for i, r := range refs {
		out[i] = r.Size()
	}
	return out
}
