// Package refresh decides when a view should re-fetch its data. It merges a
// periodic ticker with out-of-band "the user is looking again" signals into a
// single channel, so the consumer runs one loop and never polls on its own.
package refresh

import (
	"context"
	"sync"
	"time"
)

// Reason says what caused a refresh.
type Reason int

const (
	Tick Reason = iota + 1
	Visibility
	Manual
)

func (r Reason) String() string {
	switch r {
	case Tick:
		return "tick"
	case Visibility:
		return "visibility"
	case Manual:
		return "manual"
	}
	return "unknown"
}

// DefaultInterval matches the 30 second poll of the web dashboard.
const DefaultInterval = 30 * time.Second

// Trigger delivers refresh reasons on C. Delivery is coalesced: while a reason
// is waiting to be received, further signals are dropped, so a slow consumer
// sees at most one pending refresh.
type Trigger struct {
	C <-chan Reason

	c        chan Reason
	notify   chan Reason
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Start runs a trigger until ctx is cancelled or Stop is called. A
// non-positive interval disables the ticker; Notify still works.
func Start(ctx context.Context, interval time.Duration) *Trigger {
	c := make(chan Reason, 1)
	t := &Trigger{
		C:      c,
		c:      c,
		notify: make(chan Reason, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go t.run(ctx, interval)
	return t
}

// Notify requests a refresh, typically on focus or visibility change. It never
// blocks; a request made while another is still queued is absorbed by it.
func (t *Trigger) Notify(r Reason) {
	select {
	case t.notify <- r:
	default:
	}
}

// Stop ends the trigger and waits for its goroutine. C is closed afterwards.
func (t *Trigger) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}

func (t *Trigger) run(ctx context.Context, interval time.Duration) {
	defer close(t.done)
	defer close(t.c)

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-tick:
			t.offer(Tick)
		case r := <-t.notify:
			t.offer(r)
		}
	}
}

func (t *Trigger) offer(r Reason) {
	select {
	case t.c <- r:
	default:
	}
}
