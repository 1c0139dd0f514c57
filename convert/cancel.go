package convert

import "sync/atomic"

// Cancel is a cooperative cancellation flag. Long loops poll it at row or
// feature granularity; a nil *Cancel is never cancelled.
type Cancel struct {
	flag atomic.Bool
}

// NewCancel ...
func NewCancel() *Cancel {
	return &Cancel{}
}

// Cancel raises the flag. It is safe to call from any goroutine.
func (c *Cancel) Cancel() {
	if c != nil {
		c.flag.Store(true)
	}
}

// Cancelled reports whether Cancel has been called.
func (c *Cancel) Cancelled() bool {
	return c != nil && c.flag.Load()
}

// Err returns ErrCancelled once the flag is raised, nil before.
func (c *Cancel) Err() error {
	if c.Cancelled() {
		return ErrCancelled
	}
	return nil
}
