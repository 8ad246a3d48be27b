package voxelshift

import "sync"

// CancelToken lets a caller request early termination of an in-progress
// [Convert]. Workers observe it between layers, never mid-layer; a
// cancelled run returns ErrCancelled and leaves no archive on disk.
type CancelToken struct {
	once sync.Once
	ch   chan struct{}
}

// NewCancelToken returns a token that has not yet been cancelled.
func NewCancelToken() *CancelToken {
	return &CancelToken{ch: make(chan struct{})}
}

// Cancel requests termination. Safe to call more than once or
// concurrently with Done.
func (c *CancelToken) Cancel() {
	c.once.Do(func() { close(c.ch) })
}

// Done returns a channel that closes once Cancel has been called. A nil
// *CancelToken is valid and returns a channel that never closes.
func (c *CancelToken) Done() <-chan struct{} {
	if c == nil {
		return nil
	}
	return c.ch
}
