// Package compositor draws a sequence of images onto one canvas.
//
// Placement comes from [layout.Compute]; this package only rasterizes the
// plan. Images are drawn at native resolution onto a fully transparent
// NRGBA canvas with [draw.Over], so their alpha survives and uncovered
// areas stay transparent.
package compositor

import (
	"image"
	"image/draw"

	"github.com/matzehuels/imagecombiner/pkg/imageref"
	"github.com/matzehuels/imagecombiner/pkg/layout"
)

// ErrInsufficientImages is returned for sequences shorter than layout.MinImages.
var ErrInsufficientImages = layout.ErrInsufficientImages

// Result is a composited canvas together with the plan that produced it.
type Result struct {
	Image *image.NRGBA
	Plan  layout.Plan
}

// Width returns the canvas width.
func (r *Result) Width() int { return r.Plan.Width }

// Height returns the canvas height.
func (r *Result) Height() int { return r.Plan.Height }

// Composite lays out refs with s and draws them in sequence order.
// Later images are drawn over earlier ones where they overlap, which with a
// valid plan only happens for zero-size images.
func Composite(refs []imageref.Ref, s layout.Settings) (*Result, error) {
	plan, err := layout.Compute(imageref.Sizes(refs), s)
	if err != nil {
		return nil, err
	}

	canvas := image.NewNRGBA(plan.Bounds())
	for i, ref := range refs {
		if ref.Image == nil {
			continue
		}
		dst := plan.Placements[i].Rect()
		draw.Draw(canvas, dst, ref.Image, ref.Image.Bounds().Min, draw.Over)
	}

	return &Result{Image: canvas, Plan: plan}, nil
}
