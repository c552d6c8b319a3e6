// Package export resizes a composite and encodes it for download.
//
// Resizing follows the host's target dimensions: none given keeps the native
// size, one given either derives the other from the aspect ratio or leaves
// it native, both given are used as is. Resampling uses Catmull-Rom, and
// JPEG output is encoded at a quality derived from a 0.1 to 1.0 factor.
package export

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"

	"github.com/matzehuels/imagecombiner/pkg/errors"
)

// ResolveSize computes the output size for an image of the given native size.
func ResolveSize(native image.Point, s Settings) (image.Point, error) {
	if err := errors.ValidateDimension("width", s.Width); err != nil {
		return image.Point{}, err
	}
	if err := errors.ValidateDimension("height", s.Height); err != nil {
		return image.Point{}, err
	}

	w, h := s.Width, s.Height
	switch {
	case w == 0 && h == 0:
		return native, nil
	case w != 0 && h != 0:
		return image.Pt(w, h), nil
	case !s.PreserveAspectRatio:
		if w == 0 {
			w = native.X
		} else {
			h = native.Y
		}
		return image.Pt(w, h), nil
	}

	if native.X <= 0 || native.Y <= 0 {
		return image.Point{}, errors.New(errors.ErrCodeInvalidExport, "cannot keep aspect ratio of empty image %v", native)
	}
	if w != 0 {
		h = scale(w, native.Y, native.X)
	} else {
		w = scale(h, native.X, native.Y)
	}
	return image.Pt(w, h), nil
}

// scale returns round(given * num / den), at least 1.
func scale(given, num, den int) int {
	v := int(math.Round(float64(given) * float64(num) / float64(den)))
	return max(v, 1)
}

// Resize returns img resampled to size, or img itself when it already has that size.
func Resize(img image.Image, size image.Point) image.Image {
	if img.Bounds().Size() == size {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Encode resizes img according to s and writes it to w.
func Encode(w io.Writer, img image.Image, s Settings) error {
	s = s.WithDefaults()
	if err := s.Validate(); err != nil {
		return err
	}
	format, _ := ParseFormat(string(s.Format))

	size, err := ResolveSize(img.Bounds().Size(), s)
	if err != nil {
		return err
	}
	out := Resize(img, size)

	switch format {
	case PNG:
		err = png.Encode(w, out)
	default:
		err = jpeg.Encode(w, flatten(out, s.Background), &jpeg.Options{Quality: s.JPEGQuality()})
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", format)
	}
	return nil
}

// Bytes is Encode into a fresh buffer.
func Bytes(img image.Image, s Settings) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flatten composites img over an opaque background so transparent areas
// encode as bg instead of whatever their color channels happen to hold.
func flatten(img image.Image, bg color.Color) image.Image {
	if bg == nil {
		bg = color.Black
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
