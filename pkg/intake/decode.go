package intake

import (
	"bytes"
	"context"
	"runtime"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	// Formats beyond the standard library's png, jpeg and gif.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/imagecombiner/pkg/errors"
	"github.com/matzehuels/imagecombiner/pkg/imageref"
	"github.com/matzehuels/imagecombiner/pkg/observability"
)

// DefaultConcurrency bounds parallel decodes.
var DefaultConcurrency = runtime.GOMAXPROCS(0)

// Decode decodes one payload, applying EXIF orientation.
// Failures carry code DECODE_FAILURE.
func Decode(p Payload) (imageref.Ref, error) {
	if len(p.Data) == 0 {
		return imageref.Ref{}, errors.New(errors.ErrCodeDecodeFailure, "decode %s: empty payload", label(p))
	}
	img, err := imaging.Decode(bytes.NewReader(p.Data), imaging.AutoOrientation(true))
	if err != nil {
		return imageref.Ref{}, errors.Wrap(errors.ErrCodeDecodeFailure, err, "decode %s", label(p))
	}
	return imageref.New(p.Name, img), nil
}

// Failure records a payload that could not be decoded.
// It unwraps to the DECODE_FAILURE error.
type Failure struct {
	Index int    // position in the input batch
	Name  string // payload name
	Err   error
}

func (f *Failure) Error() string { return f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }

// DecodeAll decodes payloads concurrently. It returns the successfully
// decoded refs in input order, plus one *Failure per payload that could
// not be decoded. A failure never aborts the other decodes.
// Only context cancellation stops the batch early.
func DecodeAll(ctx context.Context, payloads []Payload) ([]imageref.Ref, []error) {
	start := time.Now()
	observability.Pipeline().OnDecodeStart(ctx, len(payloads))

	refs := make([]imageref.Ref, len(payloads))
	errs := make([]error, len(payloads))

	g := new(errgroup.Group)
	g.SetLimit(DefaultConcurrency)
	for i, p := range payloads {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = errors.Wrap(errors.ErrCodeDecodeFailure, err, "decode %s", label(p))
				return nil
			}
			refs[i], errs[i] = Decode(p)
			return nil
		})
	}
	_ = g.Wait()

	var (
		out      = make([]imageref.Ref, 0, len(payloads))
		failures []error
	)
	for i := range payloads {
		if errs[i] != nil {
			failures = append(failures, &Failure{Index: i, Name: payloads[i].Name, Err: errs[i]})
			continue
		}
		out = append(out, refs[i])
	}

	observability.Pipeline().OnDecodeComplete(ctx, len(out), len(failures), time.Since(start), nil)
	return out, failures
}

// Join decodes all payloads or none. The first failure cancels the remaining
// decodes and is returned; on success refs are in input order.
func Join(ctx context.Context, payloads []Payload) ([]imageref.Ref, error) {
	start := time.Now()
	observability.Pipeline().OnDecodeStart(ctx, len(payloads))

	refs := make([]imageref.Ref, len(payloads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)
	for i, p := range payloads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ref, err := Decode(p)
			if err != nil {
				return err
			}
			refs[i] = ref
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		observability.Pipeline().OnDecodeComplete(ctx, 0, len(payloads), time.Since(start), err)
		return nil, err
	}
	observability.Pipeline().OnDecodeComplete(ctx, len(refs), 0, time.Since(start), nil)
	return refs, nil
}

func label(p Payload) string {
	if p.Name == "" {
		return "image"
	}
	return p.Name
}
