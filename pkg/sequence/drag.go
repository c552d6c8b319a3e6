package sequence

// Drag tracks one drag gesture over a sequence.
//
// StartDrag records the index being dragged. Each Over moves that element to
// the hovered position and remembers where it landed, so repeated Over calls
// with the same target are idempotent. End clears the gesture.
type Drag struct {
	index  int
	active bool
}

// StartDrag begins dragging the element at index.
func (d *Drag) StartDrag(index int) {
	d.index = index
	d.active = true
}

// Active reports whether a drag is in progress.
func (d *Drag) Active() bool { return d.active }

// Index returns the current position of the dragged element, or -1 when idle.
func (d *Drag) Index() int {
	if !d.active {
		return -1
	}
	return d.index
}

// Over moves the dragged element to index to in s. Without an active drag,
// or when the move is rejected by MoveTo, s is returned unchanged.
func Over[T any](d *Drag, s Sequence[T], to int) Sequence[T] {
	if !d.active {
		return s
	}
	out := MoveTo(s, d.index, to)
	if to >= 0 && to < len(s) && d.index >= 0 && d.index < len(s) {
		d.index = to
	}
	return out
}

// End finishes the gesture.
func (d *Drag) End() {
	d.index = 0
	d.active = false
}
