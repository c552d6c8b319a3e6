package sequence

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/imagecombiner/pkg/errors"
)

func TestMoveTo(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward", 0, 2, []string{"B", "C", "A", "D"}},
		{"backward", 3, 1, []string{"A", "D", "B", "C"}},
		{"adjacent", 1, 2, []string{"A", "C", "B", "D"}},
		{"to end", 0, 3, []string{"B", "C", "D", "A"}},
		{"to front", 3, 0, []string{"D", "A", "B", "C"}},
		{"same index", 2, 2, []string{"A", "B", "C", "D"}},
		{"from out of range", 4, 0, []string{"A", "B", "C", "D"}},
		{"to out of range", 0, 5, []string{"A", "B", "C", "D"}},
		{"negative", -1, 0, []string{"A", "B", "C", "D"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Of("A", "B", "C", "D")
			got := MoveTo(in, tt.from, tt.to)
			assert.Equal(t, Sequence[string](tt.want), got)
			assert.Equal(t, Sequence[string]{"A", "B", "C", "D"}, in, "input must not be mutated")
		})
	}
}

func TestMoveToOutOfRangeIsNoop(t *testing.T) {
	in := Of("A", "B", "C")
	assert.Equal(t, in, MoveTo(in, 0, 5))
}

func TestMoveToLandsAtTarget(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for iter := 0; iter < 500; iter++ {
		n := 1 + rng.Intn(8)
		in := make(Sequence[int], n)
		for i := range in {
			in[i] = i
		}
		from, to := rng.Intn(n), rng.Intn(n)

		out := MoveTo(in, from, to)
		require.Len(t, out, n)
		assert.Equal(t, from, out[to])

		// Remaining elements keep their relative order.
		rest := make([]int, 0, n-1)
		for _, v := range out {
			if v != from {
				rest = append(rest, v)
			}
		}
		for i := 1; i < len(rest); i++ {
			assert.Less(t, rest[i-1], rest[i])
		}
	}
}

func TestRemoveAt(t *testing.T) {
	in := Of("A", "B", "C")

	got, err := RemoveAt(in, 1)
	require.NoError(t, err)
	assert.Equal(t, Sequence[string]{"A", "C"}, got)
	assert.Equal(t, Sequence[string]{"A", "B", "C"}, in)

	for _, idx := range []int{-1, 3, 10} {
		_, err := RemoveAt(in, idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", idx)
		assert.True(t, errors.Is(err, errors.ErrCodeIndexOutOfRange))
	}
}

func TestRemoveAtLast(t *testing.T) {
	got, err := RemoveAt(Of("A"), 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = RemoveAt(Sequence[string]{}, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestRemoveInsertRoundTrip(t *testing.T) {
	in := Of("A", "B", "C", "D")
	for i := range in {
		removed, err := RemoveAt(in, i)
		require.NoError(t, err)
		back, err := Insert(removed, i, in[i])
		require.NoError(t, err)
		assert.Equal(t, in, back)
	}
}

func TestInsert(t *testing.T) {
	got, err := Insert(Of("A", "B"), 2, "C")
	require.NoError(t, err)
	assert.Equal(t, Sequence[string]{"A", "B", "C"}, got)

	_, err = Insert(Of("A", "B"), 3, "C")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestAppendDoesNotShareBackingArray(t *testing.T) {
	base := make(Sequence[string], 2, 8)
	base[0], base[1] = "A", "B"

	x := Append(base, "X")
	y := Append(base, "Y")
	assert.Equal(t, Sequence[string]{"A", "B", "X"}, x)
	assert.Equal(t, Sequence[string]{"A", "B", "Y"}, y)
	assert.Equal(t, 2, base.Len())
}

func TestDuplicates(t *testing.T) {
	got := MoveTo(Of("A", "A", "B"), 0, 2)
	assert.Equal(t, Sequence[string]{"A", "B", "A"}, got)
}
