package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imagecombiner/pkg/cache"
	"github.com/matzehuels/imagecombiner/pkg/export"
	"github.com/matzehuels/imagecombiner/pkg/intake"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-kind cache lifetimes when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete decode → composite → export pipeline with caching.
func (r *Runner) Execute(ctx context.Context, payloads []intake.Payload, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Decode
	decodeStart := time.Now()
	batch, err := r.Decode(ctx, payloads, opts)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	result.Failures = batch.Failures
	result.Stats.DecodeTime = time.Since(decodeStart)
	result.Stats.ImageCount = len(batch.Refs)

	for _, f := range batch.Failures {
		r.Logger.Warn("skipped image", "error", f)
	}
	r.Logger.Info("decoded images",
		"count", len(batch.Refs),
		"skipped", len(batch.Failures),
		"duration", result.Stats.DecodeTime)

	// Stage 2: Composite
	compositeStart := time.Now()
	comp, compositeHash, compositeHit, err := r.CompositeWithCacheInfo(ctx, batch, opts)
	if err != nil {
		return nil, fmt.Errorf("composite: %w", err)
	}
	result.Composite = comp
	result.CompositeHash = compositeHash
	result.Stats.CompositeTime = time.Since(compositeStart)
	result.Stats.Width, result.Stats.Height = comp.Width(), comp.Height()
	result.CacheInfo.CompositeHit = compositeHit

	r.Logger.Info("composited images",
		"size", fmt.Sprintf("%dx%d", comp.Width(), comp.Height()),
		"cached", compositeHit,
		"duration", result.Stats.CompositeTime)

	// Stage 3: Export
	exportStart := time.Now()
	encoded, exportHit, err := r.ExportWithCacheInfo(ctx, comp, compositeHash, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	size, _ := export.ResolveSize(comp.Plan.Size(), opts.ExportSettings())
	result.Encoded = encoded
	result.Format = export.Format(opts.Format)
	result.Filename = export.Filename(result.Format)
	result.Stats.ExportTime = time.Since(exportStart)
	result.Stats.OutputWidth, result.Stats.OutputHeight = size.X, size.Y
	result.Stats.EncodedBytes = len(encoded)
	result.CacheInfo.ExportHit = exportHit

	r.Logger.Info("exported image",
		"format", opts.Format,
		"size", fmt.Sprintf("%dx%d", size.X, size.Y),
		"bytes", len(encoded),
		"duration", result.Stats.ExportTime)

	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}
