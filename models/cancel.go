package models

import (
	"sync"
	"sync/atomic"
)

// CancelSignal is a set-once cancellation flag shared between a batch and
// whoever may want to stop it (signal handler, UI, test).
//
// The flag is never cleared. A new batch must use a new CancelSignal. The
// zero value is an unset signal ready to use.
type CancelSignal struct {
	set      atomic.Bool
	once     sync.Once
	initOnce sync.Once
	done     chan struct{}
}

// NewCancelSignal returns an unset signal.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{}
}

func (c *CancelSignal) doneChan() chan struct{} {
	c.initOnce.Do(func() { c.done = make(chan struct{}) })
	return c.done
}

// Cancel sets the flag. Safe to call from any goroutine, any number of times.
func (c *CancelSignal) Cancel() {
	if c == nil {
		return
	}
	c.once.Do(func() {
		c.set.Store(true)
		close(c.doneChan())
	})
}

// IsCancelled reports whether Cancel has been called. A nil signal is never
// cancelled.
func (c *CancelSignal) IsCancelled() bool {
	if c == nil {
		return false
	}
	return c.set.Load()
}

// Done returns a channel closed on cancellation. A nil signal returns a nil
// channel, which blocks forever in a select.
func (c *CancelSignal) Done() <-chan struct{} {
	if c == nil {
		return nil
	}
	return c.doneChan()
}
