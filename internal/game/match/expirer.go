package match

import (
	"sync"
	"time"
)

// Expirer runs deferred cleanups, such as deleting transient notices, on
// their own timers so they never block the guess pipeline.
// It is safe for concurrent use.
type Expirer struct {
	mu      sync.Mutex
	next    uint64
	pending map[uint64]*expiry
	stopped bool
}

type expiry struct {
	timer *time.Timer
	fn    func()
}

// NewExpirer creates an Expirer with no pending work.
func NewExpirer() *Expirer {
	return &Expirer{pending: make(map[uint64]*expiry)}
}

// After schedules fn to run once d has elapsed. fn runs in its own goroutine.
//
// Postcondition: fn runs exactly once; after Flush, After runs fn
// immediately instead of scheduling it.
func (e *Expirer) After(d time.Duration, fn func()) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		fn()
		return
	}
	id := e.next
	e.next++
	ex := &expiry{fn: fn}
	e.pending[id] = ex
	ex.timer = time.AfterFunc(d, func() {
		e.mu.Lock()
		_, live := e.pending[id]
		delete(e.pending, id)
		e.mu.Unlock()
		if live {
			fn()
		}
	})
	e.mu.Unlock()
}

// Pending returns the number of scheduled but not yet run callbacks.
func (e *Expirer) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Flush cancels every pending timer and runs its callback synchronously.
//
// Postcondition: Pending() == 0; later After calls run immediately.
func (e *Expirer) Flush() {
	e.mu.Lock()
	e.stopped = true
	due := make([]func(), 0, len(e.pending))
	for id, ex := range e.pending {
		// A timer that already fired finds its entry gone and skips fn.
		ex.timer.Stop()
		due = append(due, ex.fn)
		delete(e.pending, id)
	}
	e.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}
