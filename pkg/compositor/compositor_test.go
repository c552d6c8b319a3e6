package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/imagecombiner/pkg/errors"
	"github.com/matzehuels/imagecombiner/pkg/imageref"
	"github.com/matzehuels/imagecombiner/pkg/layout"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestCompositeRowCenter(t *testing.T) {
	refs := []imageref.Ref{
		imageref.New("a", solid(100, 50, red)),
		imageref.New("b", solid(80, 90, blue)),
	}

	res, err := Composite(refs, layout.Settings{Orientation: layout.Row, Alignment: layout.Center, Gap: 10})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 190, 90), res.Image.Bounds())
	assert.Equal(t, 190, res.Width())
	assert.Equal(t, 90, res.Height())

	// First image spans rows 20..69 at x 0..99.
	assert.Equal(t, red, res.Image.NRGBAAt(0, 20))
	assert.Equal(t, red, res.Image.NRGBAAt(99, 69))
	assert.Equal(t, color.NRGBA{}, res.Image.NRGBAAt(0, 19), "above first image is transparent")
	assert.Equal(t, color.NRGBA{}, res.Image.NRGBAAt(50, 70), "below first image is transparent")

	// Gap columns 100..109 are transparent.
	for x := 100; x < 110; x++ {
		assert.Equal(t, color.NRGBA{}, res.Image.NRGBAAt(x, 45))
	}

	assert.Equal(t, blue, res.Image.NRGBAAt(110, 0))
	assert.Equal(t, blue, res.Image.NRGBAAt(189, 89))
}

func TestCompositeColumnEnd(t *testing.T) {
	refs := []imageref.Ref{
		imageref.New("a", solid(100, 50, red)),
		imageref.New("b", solid(80, 90, blue)),
	}

	res, err := Composite(refs, layout.Settings{Orientation: layout.Column, Alignment: layout.End, Gap: 5})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 100, 145), res.Image.Bounds())
	assert.Equal(t, color.NRGBA{}, res.Image.NRGBAAt(19, 100))
	assert.Equal(t, blue, res.Image.NRGBAAt(20, 55))
	assert.Equal(t, blue, res.Image.NRGBAAt(99, 144))
}

func TestCompositePreservesAlpha(t *testing.T) {
	half := color.NRGBA{R: 10, G: 20, B: 30, A: 128}
	refs := []imageref.Ref{
		imageref.New("a", solid(4, 4, half)),
		imageref.New("b", solid(4, 4, half)),
	}

	res, err := Composite(refs, layout.DefaultSettings())
	require.NoError(t, err)
	got := res.Image.NRGBAAt(1, 1)
	assert.Equal(t, half.A, got.A)
	assert.InDelta(t, half.R, got.R, 1)
	assert.InDelta(t, half.B, got.B, 1)
}

func TestCompositeSubImageOrigin(t *testing.T) {
	// A sub-image whose bounds do not start at the origin must still be drawn from its own Min.
	base := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	draw.Draw(base, image.Rect(10, 10, 20, 20), image.NewUniform(red), image.Point{}, draw.Src)
	sub := base.SubImage(image.Rect(10, 10, 20, 20))

	refs := []imageref.Ref{imageref.New("sub", sub), imageref.New("b", solid(10, 10, blue))}
	res, err := Composite(refs, layout.Settings{Orientation: layout.Row, Alignment: layout.Start})
	require.NoError(t, err)

	assert.Equal(t, red, res.Image.NRGBAAt(0, 0))
	assert.Equal(t, red, res.Image.NRGBAAt(9, 9))
	assert.Equal(t, blue, res.Image.NRGBAAt(10, 0))
}

func TestCompositeDuplicateRef(t *testing.T) {
	ref := imageref.New("a", solid(3, 3, red))
	res, err := Composite([]imageref.Ref{ref, ref}, layout.Settings{Orientation: layout.Row, Alignment: layout.Start, Gap: 1})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Width())
	assert.Equal(t, red, res.Image.NRGBAAt(4, 0))
}

func TestCompositeInsufficientImages(t *testing.T) {
	for _, refs := range [][]imageref.Ref{nil, {imageref.New("a", solid(2, 2, red))}} {
		res, err := Composite(refs, layout.DefaultSettings())
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrInsufficientImages)
		assert.True(t, errors.Is(err, errors.ErrCodeInsufficientImages))
	}
}

func TestCompositeDeterministic(t *testing.T) {
	refs := []imageref.Ref{
		imageref.New("a", solid(7, 3, red)),
		imageref.New("b", solid(2, 9, blue)),
		imageref.New("c", solid(5, 5, red)),
	}
	s := layout.Settings{Orientation: layout.Column, Alignment: layout.Center, Gap: 3}

	first, err := Composite(refs, s)
	require.NoError(t, err)
	second, err := Composite(refs, s)
	require.NoError(t, err)

	assert.Equal(t, first.Plan, second.Plan)
	assert.Equal(t, first.Image.Pix, second.Image.Pix)
}
