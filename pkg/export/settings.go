package export

import (
	"image/color"
	"path/filepath"
	"strings"

	"github.com/matzehuels/imagecombiner/pkg/errors"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
)

// DefaultQuality is the quality factor a fresh session starts with.
const DefaultQuality = 0.5

// DefaultFilename is the name offered for a downloaded export.
const DefaultFilename = "combined-image.jpg"

// Settings controls resizing and encoding of a composite.
type Settings struct {
	// Width and Height are target dimensions; 0 means absent.
	Width  int `json:"width,omitempty" toml:"width"`
	Height int `json:"height,omitempty" toml:"height"`

	PreserveAspectRatio bool    `json:"preserve_aspect_ratio" toml:"preserve_aspect_ratio"`
	Quality             float64 `json:"quality" toml:"quality"`
	Format              Format  `json:"format" toml:"format"`

	// Background fills transparent pixels for formats without alpha.
	// Nil means opaque black.
	Background color.Color `json:"-" toml:"-"`
}

// DefaultSettings returns native size, quality 0.5, JPEG.
func DefaultSettings() Settings {
	return Settings{Quality: DefaultQuality, Format: JPEG}
}

// WithDefaults fills an empty format and a zero quality.
func (s Settings) WithDefaults() Settings {
	if s.Format == "" {
		s.Format = JPEG
	}
	if s.Quality == 0 {
		s.Quality = DefaultQuality
	}
	return s
}

// Validate checks quality, dimensions and format.
func (s Settings) Validate() error {
	if err := errors.ValidateQuality(s.Quality); err != nil {
		return err
	}
	if err := errors.ValidateDimension("width", s.Width); err != nil {
		return err
	}
	if err := errors.ValidateDimension("height", s.Height); err != nil {
		return err
	}
	if _, err := ParseFormat(string(s.Format)); err != nil {
		return err
	}
	return nil
}

// JPEGQuality maps the quality factor to the encoder's 1..100 scale.
func (s Settings) JPEGQuality() int {
	q := int(s.Quality*100 + 0.5)
	return min(max(q, 1), 100)
}

// ParseFormat accepts jpeg, jpg and png, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return JPEG, nil
	case "png":
		return PNG, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %q (must be one of: jpeg, png)", s)
}

// FormatFromPath infers the format from a file extension, defaulting to JPEG.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return JPEG
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	if f == PNG {
		return ".png"
	}
	return ".jpg"
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/jpeg"
}

// Filename returns the download name for f.
func Filename(f Format) string {
	return strings.TrimSuffix(DefaultFilename, ".jpg") + f.Extension()
}
