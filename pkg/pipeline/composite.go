package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/draw"
	"image/png"
	"time"

	"github.com/matzehuels/imagecombiner/pkg/cache"
	"github.com/matzehuels/imagecombiner/pkg/compositor"
	"github.com/matzehuels/imagecombiner/pkg/imageref"
	"github.com/matzehuels/imagecombiner/pkg/layout"
	"github.com/matzehuels/imagecombiner/pkg/observability"
)

var errStaleCanvas = errors.New("cached canvas does not match plan")

// CompositeWithCacheInfo draws the batch, using the cache when possible.
// It returns the composite, the hash of its PNG encoding and whether it came from cache.
func (r *Runner) CompositeWithCacheInfo(ctx context.Context, batch Batch, opts Options) (*compositor.Result, string, bool, error) {
	if err := opts.ValidateForComposite(); err != nil {
		return nil, "", false, err
	}
	settings := opts.LayoutSettings()

	// The plan is cheap and validates the image count, so compute it first.
	plan, err := layout.Compute(imageref.Sizes(batch.Refs), settings)
	if err != nil {
		return nil, "", false, err
	}

	cacheKey := r.Keyer.CompositeKey(batch.InputHash(), opts.CompositeKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if img, err := decodeCanvas(data, plan); err == nil {
				observability.Cache().OnCacheHit(ctx, "composite")
				return &compositor.Result{Image: img, Plan: plan}, cache.Hash(data), true, nil
			}
			// If decoding fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "composite")
	}

	res, err := Composite(ctx, batch.Refs, settings)
	if err != nil {
		return nil, "", false, err
	}

	var buf bytes.Buffer
	if err := (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(&buf, res.Image); err != nil {
		return nil, "", false, err
	}
	data := buf.Bytes()
	if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLComposite)); err == nil {
		observability.Cache().OnCacheSet(ctx, "composite", len(data))
	} else {
		r.Logger.Debug("cache write failed", "stage", "composite", "error", err)
	}

	return res, cache.Hash(data), false, nil
}

// Composite draws refs with hooks around the call.
func Composite(ctx context.Context, refs []imageref.Ref, s layout.Settings) (*compositor.Result, error) {
	hooks := observability.Pipeline()
	hooks.OnCompositeStart(ctx, len(refs), string(s.Orientation))
	start := time.Now()
	res, err := compositor.Composite(refs, s)
	if err != nil {
		hooks.OnCompositeComplete(ctx, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnCompositeComplete(ctx, res.Width(), res.Height(), time.Since(start), nil)
	return res, nil
}

// decodeCanvas reads a cached composite and checks it matches the plan.
func decodeCanvas(data []byte, plan layout.Plan) (*image.NRGBA, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if img.Bounds() != plan.Bounds() {
		return nil, errStaleCanvas
	}
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba, nil
	}
	out := image.NewNRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out, nil
}
