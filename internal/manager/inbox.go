package manager

import "sync"

// inbox is the loop's unbounded work queue. push never blocks, so client
// callbacks fired from inside loop work (Connect, Disconnect, Destroy) can
// post back to the loop without waiting on it.
type inbox struct {
	mu    sync.Mutex
	items []func()
	ready chan struct{}
}

func newInbox() *inbox {
	return &inbox{ready: make(chan struct{}, 1)}
}

func (b *inbox) push(fn func()) {
	b.mu.Lock()
	b.items = append(b.items, fn)
	b.mu.Unlock()
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// take removes and returns everything queued so far, oldest first.
func (b *inbox) take() []func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.items
	b.items = nil
	return items
}

func (b *inbox) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
