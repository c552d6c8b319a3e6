package layout

import (
	"image"

	"github.com/matzehuels/imagecombiner/pkg/errors"
)

// MinImages is the smallest sequence that can be combined.
const MinImages = 2

// ErrInsufficientImages is returned when fewer than MinImages are given.
var ErrInsufficientImages = errors.New(errors.ErrCodeInsufficientImages, "at least %d images are required", MinImages)

// Placement is where one image is drawn, at native size.
type Placement struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the placement as a rectangle in canvas coordinates.
func (p Placement) Rect() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// Plan is the computed canvas and per-image placement, in sequence order.
type Plan struct {
	Orientation Orientation `json:"orientation"`
	Alignment   Alignment   `json:"alignment"`
	Gap         int         `json:"gap"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Placements  []Placement `json:"placements"`
}

// Size returns the canvas dimensions.
func (p Plan) Size() image.Point {
	return image.Pt(p.Width, p.Height)
}

// Bounds returns the canvas rectangle anchored at the origin.
func (p Plan) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

// Compute lays out images of the given sizes.
//
// It returns ErrInsufficientImages for fewer than two sizes and an
// INVALID_LAYOUT error for bad settings or negative sizes.
func Compute(sizes []image.Point, s Settings) (Plan, error) {
	if len(sizes) < MinImages {
		return Plan{}, ErrInsufficientImages
	}
	if err := s.Validate(); err != nil {
		return Plan{}, err
	}

	var mainTotal, crossMax int
	for i, sz := range sizes {
		if sz.X < 0 || sz.Y < 0 {
			return Plan{}, errors.New(errors.ErrCodeInvalidLayout, "image %d has negative size %v", i, sz)
		}
		main, cross := axes(sz, s.Orientation)
		mainTotal += main
		crossMax = max(crossMax, cross)
	}
	mainTotal += s.Gap * (len(sizes) - 1)

	plan := Plan{
		Orientation: s.Orientation,
		Alignment:   s.Alignment,
		Gap:         s.Gap,
		Placements:  make([]Placement, len(sizes)),
	}
	if s.Orientation == Row {
		plan.Width, plan.Height = mainTotal, crossMax
	} else {
		plan.Width, plan.Height = crossMax, mainTotal
	}

	offset := 0
	for i, sz := range sizes {
		main, cross := axes(sz, s.Orientation)
		crossOffset := alignOffset(s.Alignment, crossMax, cross)

		p := Placement{Width: sz.X, Height: sz.Y}
		if s.Orientation == Row {
			p.X, p.Y = offset, crossOffset
		} else {
			p.X, p.Y = crossOffset, offset
		}
		plan.Placements[i] = p

		offset += main
		if i < len(sizes)-1 {
			offset += s.Gap
		}
	}
	return plan, nil
}

// axes splits a size into its main- and cross-axis dimensions.
func axes(sz image.Point, o Orientation) (main, cross int) {
	if o == Row {
		return sz.X, sz.Y
	}
	return sz.Y, sz.X
}

// alignOffset returns the cross-axis offset. Center rounds down on odd differences.
func alignOffset(a Alignment, crossMax, cross int) int {
	switch a {
	case Center:
		return (crossMax - cross) / 2
	case End:
		return crossMax - cross
	default:
		return 0
	}
}
