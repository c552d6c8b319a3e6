// Package pipeline provides the core combine pipeline for imagecombiner.
//
// This package implements the complete decode → composite → export pipeline
// used by the CLI and the HTTP service. By centralizing this logic, both entry
// points share defaults, validation and caching.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Decode: Turn raw payloads into images (all-or-nothing, or best-effort)
//  2. Composite: Lay out and draw the images onto one canvas
//  3. Export: Resize and encode the canvas (JPEG or PNG)
//
// Composite and export results are cached by content hash.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Orientation: "row",
//	    Alignment:   "center",
//	    Gap:         10,
//	    Quality:     0.8,
//	}
//	result, err := runner.Execute(ctx, payloads, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(result.Filename, result.Encoded, 0o644)
package pipeline

import (
	"fmt"
	"image/color"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imagecombiner/pkg/cache"
	"github.com/matzehuels/imagecombiner/pkg/compositor"
	"github.com/matzehuels/imagecombiner/pkg/errors"
	"github.com/matzehuels/imagecombiner/pkg/export"
	"github.com/matzehuels/imagecombiner/pkg/layout"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the combine pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Orientation string `json:"orientation,omitempty"`
	Alignment   string `json:"alignment,omitempty"`
	Gap         int    `json:"gap,omitempty"`

	// Export options
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	KeepAspect bool    `json:"keep_aspect,omitempty"`
	Quality    float64 `json:"quality,omitempty"`
	Format     string  `json:"format,omitempty"`

	// Strict fails the run on the first undecodable payload. Otherwise
	// failed payloads are dropped and reported in Result.Failures.
	Strict  bool `json:"strict,omitempty"`
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger     *log.Logger `json:"-"`
	Background color.Color `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Composite is the drawn canvas and its plan.
	Composite *compositor.Result

	// CompositeHash is the content hash of the composite as PNG.
	CompositeHash string

	// Encoded is the exported image.
	Encoded []byte

	// Format and Filename describe Encoded.
	Format   export.Format
	Filename string

	// Failures lists payloads dropped because they did not decode.
	Failures []error

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ImageCount    int
	Width         int // composite width
	Height        int // composite height
	OutputWidth   int
	OutputHeight  int
	EncodedBytes  int
	DecodeTime    time.Duration
	CompositeTime time.Duration
	ExportTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	CompositeHit bool // Whether the composite came from cache
	ExportHit    bool // Whether the encoded output came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults normalizes names, applies defaults and validates.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForComposite(); err != nil {
		return err
	}
	if err := o.ValidateForExport(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ValidateForComposite applies layout defaults, canonicalizes the
// orientation and alignment names and validates the gap.
func (o *Options) ValidateForComposite() error {
	if o.Orientation == "" {
		o.Orientation = string(layout.DefaultOrientation)
	}
	if o.Alignment == "" {
		o.Alignment = string(layout.DefaultAlignment)
	}
	orientation, err := layout.ParseOrientation(o.Orientation)
	if err != nil {
		return err
	}
	alignment, err := layout.ParseAlignment(o.Alignment)
	if err != nil {
		return err
	}
	o.Orientation, o.Alignment = string(orientation), string(alignment)
	return errors.ValidateGap(o.Gap)
}

// ValidateForExport applies export defaults and validates them.
func (o *Options) ValidateForExport() error {
	if o.Quality == 0 {
		o.Quality = export.DefaultQuality
	}
	if o.Format == "" {
		o.Format = string(export.JPEG)
	}
	format, err := export.ParseFormat(o.Format)
	if err != nil {
		return err
	}
	o.Format = string(format)
	return o.ExportSettings().Validate()
}

// LayoutSettings returns the layout settings. Call after validation.
func (o *Options) LayoutSettings() layout.Settings {
	return layout.Settings{
		Orientation: layout.Orientation(o.Orientation),
		Alignment:   layout.Alignment(o.Alignment),
		Gap:         o.Gap,
	}
}

// ExportSettings returns the export settings. Call after validation.
func (o *Options) ExportSettings() export.Settings {
	return export.Settings{
		Width:               o.Width,
		Height:              o.Height,
		PreserveAspectRatio: o.KeepAspect,
		Quality:             o.Quality,
		Format:              export.Format(o.Format),
		Background:          o.Background,
	}
}

// CompositeKeyOpts returns cache key options for compositing.
func (o *Options) CompositeKeyOpts() cache.CompositeKeyOpts {
	return cache.CompositeKeyOpts{
		Orientation: o.Orientation,
		Alignment:   o.Alignment,
		Gap:         o.Gap,
	}
}

// ExportKeyOpts returns cache key options for exporting.
func (o *Options) ExportKeyOpts() cache.ExportKeyOpts {
	opts := cache.ExportKeyOpts{
		Width:      o.Width,
		Height:     o.Height,
		KeepAspect: o.KeepAspect,
		Quality:    o.Quality,
		Format:     o.Format,
	}
	if o.Background != nil {
		r, g, b, a := o.Background.RGBA()
		opts.Background = fmt.Sprintf("%04x%04x%04x%04x", r, g, b, a)
	}
	return opts
}
