package pipeline

import (
	"context"
	"errors"

	"github.com/matzehuels/imagecombiner/pkg/cache"
	"github.com/matzehuels/imagecombiner/pkg/imageref"
	"github.com/matzehuels/imagecombiner/pkg/intake"
)

// Batch is the decoded input of a run.
type Batch struct {
	Refs []imageref.Ref

	// Hashes holds the content hash of each decoded payload, parallel to Refs.
	Hashes []string

	Failures []error
}

// InputHash identifies the ordered inputs for cache keys.
func (b Batch) InputHash() string {
	return cache.HashInputs(b.Hashes)
}

// Decode decodes payloads. Failed payloads are dropped and reported in
// Failures; with opts.Strict the first failure fails the batch instead.
func (r *Runner) Decode(ctx context.Context, payloads []intake.Payload, opts Options) (Batch, error) {
	if opts.Strict {
		refs, err := intake.Join(ctx, payloads)
		if err != nil {
			return Batch{}, err
		}
		hashes := make([]string, len(payloads))
		for i, p := range payloads {
			hashes[i] = cache.Hash(p.Data)
		}
		return Batch{Refs: refs, Hashes: hashes}, nil
	}

	refs, failures := intake.DecodeAll(ctx, payloads)
	failed := make(map[int]bool, len(failures))
	for _, err := range failures {
		var f *intake.Failure
		if errors.As(err, &f) {
			failed[f.Index] = true
		}
	}
	hashes := make([]string, 0, len(refs))
	for i, p := range payloads {
		if !failed[i] {
			hashes = append(hashes, cache.Hash(p.Data))
		}
	}
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	return Batch{Refs: refs, Hashes: hashes, Failures: failures}, nil
}
