package workspace

import "sync/atomic"

// Clock hands out strictly increasing freshness tokens.
type Clock struct {
	n atomic.Int64
}

// Next returns a token greater than every token returned before.
func (c *Clock) Next() int64 {
	return c.n.Add(1)
}

// Current returns the most recently issued token, or 0.
func (c *Clock) Current() int64 {
	return c.n.Load()
}
