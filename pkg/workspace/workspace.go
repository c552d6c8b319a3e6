// Package workspace holds the state of one interactive combining session.
//
// A [Workspace] owns the image sequence, the layout settings and the last
// composite. Every mutation and every [Workspace.Recompose] call takes a
// freshness token from a monotonic [Clock]. Compositing runs outside the
// lock and its result is committed only if no newer token was issued in the
// meantime, so a slow, older recomposition can never overwrite a newer one.
package workspace

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imagecombiner/pkg/compositor"
	"github.com/matzehuels/imagecombiner/pkg/errors"
	"github.com/matzehuels/imagecombiner/pkg/export"
	"github.com/matzehuels/imagecombiner/pkg/imageref"
	"github.com/matzehuels/imagecombiner/pkg/layout"
	"github.com/matzehuels/imagecombiner/pkg/observability"
	"github.com/matzehuels/imagecombiner/pkg/pipeline"
	"github.com/matzehuels/imagecombiner/pkg/sequence"
)

// State is a point-in-time copy of a workspace.
type State struct {
	ID     string
	Images sequence.Sequence[imageref.Ref]
	Layout layout.Settings

	// Result is the last committed composite, nil while fewer than two images are present.
	Result *compositor.Result

	// Current reports whether Result reflects Images and Layout.
	Current bool

	// Token is the latest freshness token issued.
	Token int64
}

// Workspace is safe for concurrent use.
type Workspace struct {
	id     string
	logger *log.Logger
	clock  Clock

	mu          sync.Mutex
	images      sequence.Sequence[imageref.Ref]
	settings    layout.Settings
	result      *compositor.Result
	latest      int64 // newest token issued by a mutation or Recompose
	resultToken int64 // token of the committed result
	updated     time.Time
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithLayout sets the initial layout settings.
func WithLayout(s layout.Settings) Option {
	return func(w *Workspace) { w.settings = s.WithDefaults() }
}

// WithID sets the workspace ID. The default is a fresh UUIDv7.
func WithID(id string) Option {
	return func(w *Workspace) { w.id = id }
}

// New creates an empty workspace with default layout settings.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		id:       imageref.NewID(),
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		settings: layout.DefaultSettings(),
		updated:  time.Now(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ID returns the workspace identifier.
func (w *Workspace) ID() string { return w.id }

// UpdatedAt returns the time of the last mutation or commit.
func (w *Workspace) UpdatedAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updated
}

// Len returns the number of images.
func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.images)
}

// Add appends refs to the sequence.
func (w *Workspace) Add(refs ...imageref.Ref) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.images = sequence.Append(w.images, refs...)
	w.touch()
}

// Move moves the image at from to position to. Out-of-range moves are ignored.
func (w *Workspace) Move(from, to int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.images)
	if from == to || from < 0 || from >= n || to < 0 || to >= n {
		return
	}
	w.images = sequence.MoveTo(w.images, from, to)
	w.touch()
}

// DragOver moves the image held by d to position to and updates d to follow it.
// Nothing changes without an active drag or when to is out of range.
func (w *Workspace) DragOver(d *sequence.Drag, to int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	from := d.Index()
	next := sequence.Over(d, w.images, to)
	if d.Index() == from {
		return
	}
	w.images = next
	w.touch()
}

// Remove deletes the image at index.
func (w *Workspace) Remove(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, err := sequence.RemoveAt(w.images, index)
	if err != nil {
		return err
	}
	w.images = next
	w.touch()
	return nil
}

// SetLayout replaces the layout settings after validating them.
func (w *Workspace) SetLayout(s layout.Settings) error {
	s = s.WithDefaults()
	if err := s.Validate(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.settings = s
	w.touch()
	return nil
}

// Layout returns the current layout settings.
func (w *Workspace) Layout() layout.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings
}

// Snapshot returns a copy of the current state.
func (w *Workspace) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		ID:      w.id,
		Images:  w.images.Clone(),
		Layout:  w.settings,
		Result:  w.result,
		Current: w.resultToken == w.latest,
		Token:   w.latest,
	}
}

// Recompose composites the current sequence and commits the result if no
// newer mutation or recomposition happened meanwhile. committed reports
// whether the result was stored.
//
// With fewer than two images the result is absent: the stored result is
// cleared and (nil, true, nil) is returned. Other compositing errors are
// returned without touching the stored result.
func (w *Workspace) Recompose(ctx context.Context) (res *compositor.Result, committed bool, err error) {
	start := time.Now()

	w.mu.Lock()
	token := w.clock.Next()
	w.latest = token
	images := w.images.Clone()
	settings := w.settings
	w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	res, err = pipeline.Composite(ctx, images, settings)

	insufficient := errors.Is(err, errors.ErrCodeInsufficientImages)
	if err != nil && !insufficient {
		return nil, false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if token != w.latest {
		w.logger.Debug("discarded stale composite", "token", token, "latest", w.latest)
		observability.Workspace().OnRecompose(ctx, token, false, time.Since(start))
		return res, false, nil
	}
	w.result = res
	w.resultToken = token
	w.updated = time.Now()
	observability.Workspace().OnRecompose(ctx, token, true, time.Since(start))

	if insufficient {
		w.logger.Debug("composite cleared", "images", len(images))
		return nil, true, nil
	}
	w.logger.Debug("composite committed", "token", token, "width", res.Width(), "height", res.Height())
	return res, true, nil
}

// Result returns the last committed composite, or nil.
func (w *Workspace) Result() *compositor.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// Export encodes the committed composite, recomposing first if it is out of date.
func (w *Workspace) Export(ctx context.Context, s export.Settings) ([]byte, error) {
	w.mu.Lock()
	res, current := w.result, w.resultToken == w.latest
	w.mu.Unlock()

	if !current {
		var err error
		if res, _, err = w.Recompose(ctx); err != nil {
			return nil, err
		}
	}
	if res == nil {
		return nil, compositor.ErrInsufficientImages
	}

	return pipeline.Export(ctx, res, s)
}

// touch records a mutation. It invalidates in-flight recompositions.
// Callers must hold w.mu.
func (w *Workspace) touch() {
	w.latest = w.clock.Next()
	w.updated = time.Now()
}
