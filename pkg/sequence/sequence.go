// Package sequence implements the reorder operations behind drag-and-drop
// arrangement of images.
//
// Every operation returns a new [Sequence] and leaves its input untouched,
// including the input's backing array. Elements not involved in an operation
// keep their relative order.
package sequence

import (
	"github.com/matzehuels/imagecombiner/pkg/errors"
)

// ErrIndexOutOfRange is the sentinel for RemoveAt and Insert failures.
// Returned errors carry its code, so errors.Is matches either form.
var ErrIndexOutOfRange = errors.New(errors.ErrCodeIndexOutOfRange, "index out of range")

// Sequence is an ordered list of elements. The same element may appear more than once.
type Sequence[T any] []T

// Of builds a sequence from the given elements, copying them.
func Of[T any](items ...T) Sequence[T] {
	return append(Sequence[T](nil), items...)
}

// Len returns the number of elements.
func (s Sequence[T]) Len() int { return len(s) }

// Clone returns a copy with its own backing array.
func (s Sequence[T]) Clone() Sequence[T] {
	if s == nil {
		return nil
	}
	return append(make(Sequence[T], 0, len(s)), s...)
}

// Append returns s with vs added at the end.
func Append[T any](s Sequence[T], vs ...T) Sequence[T] {
	out := make(Sequence[T], 0, len(s)+len(vs))
	out = append(out, s...)
	return append(out, vs...)
}

// Insert returns s with v placed at index, which may equal len(s).
func Insert[T any](s Sequence[T], index int, v T) (Sequence[T], error) {
	if err := errors.ValidateIndex(index, len(s)+1); err != nil {
		return s, err
	}
	out := make(Sequence[T], 0, len(s)+1)
	out = append(out, s[:index]...)
	out = append(out, v)
	return append(out, s[index:]...), nil
}

// RemoveAt returns s without the element at index.
func RemoveAt[T any](s Sequence[T], index int) (Sequence[T], error) {
	if err := errors.ValidateIndex(index, len(s)); err != nil {
		return s, err
	}
	out := make(Sequence[T], 0, len(s)-1)
	out = append(out, s[:index]...)
	return append(out, s[index+1:]...), nil
}

// MoveTo removes the element at from and reinserts it at to, where to is an
// index into the shortened list. The result has the element at index to.
//
// If from equals to, or either index is outside [0, len(s)), s is returned
// unchanged. Out-of-range moves are not errors: a drag may hover outside the
// list.
func MoveTo[T any](s Sequence[T], from, to int) Sequence[T] {
	n := len(s)
	if from == to || from < 0 || from >= n || to < 0 || to >= n {
		return s
	}
	out := s.Clone()
	v := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = v
	return out
}
