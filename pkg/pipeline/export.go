package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/imagecombiner/pkg/cache"
	"github.com/matzehuels/imagecombiner/pkg/compositor"
	"github.com/matzehuels/imagecombiner/pkg/export"
	"github.com/matzehuels/imagecombiner/pkg/observability"
)

// ExportWithCacheInfo encodes a composite, using the cache when possible.
// compositeHash may be empty, in which case the cache is bypassed.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, comp *compositor.Result, compositeHash string, opts Options) ([]byte, bool, error) {
	if err := opts.ValidateForExport(); err != nil {
		return nil, false, err
	}

	var cacheKey string
	if compositeHash != "" {
		cacheKey = r.Keyer.ExportKey(compositeHash, opts.ExportKeyOpts())
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "export")
				return data, true, nil
			}
			observability.Cache().OnCacheMiss(ctx, "export")
		}
	}

	data, err := Export(ctx, comp, opts.ExportSettings())
	if err != nil {
		return nil, false, err
	}

	if cacheKey != "" {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLExport)); err == nil {
			observability.Cache().OnCacheSet(ctx, "export", len(data))
		}
	}
	return data, false, nil
}

// Export encodes a composite with hooks around the call.
func Export(ctx context.Context, comp *compositor.Result, s export.Settings) ([]byte, error) {
	s = s.WithDefaults()
	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, string(s.Format))
	start := time.Now()
	data, err := export.Bytes(comp.Image, s)
	hooks.OnExportComplete(ctx, string(s.Format), len(data), time.Since(start), err)
	return data, err
}
