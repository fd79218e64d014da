package adapter

import (
	"fmt"
	"sync"
	"time"
)

// SizeSource notifies subscribers when the size of something the terminal
// depends on (its container, the hosting window) may have changed.
type SizeSource interface {
	Subscribe(fn func()) (unsubscribe func())
}

// ResizeCoordinator refits the engine whenever a size source fires and
// publishes the resulting dimensions to the overlay and the resize callback.
type ResizeCoordinator struct {
	fit     func()
	dims    func() Dimensions
	overlay *Messenger

	mu       sync.Mutex
	timeout  time.Duration
	callback func(columns, rows int)
	unsubs   []func()
}

// NewResizeCoordinator creates a coordinator. fit asks the engine to refit
// its grid and dims reads back the current size.
func NewResizeCoordinator(fit func(), dims func() Dimensions, overlay *Messenger) *ResizeCoordinator {
	return &ResizeCoordinator{
		fit:     fit,
		dims:    dims,
		overlay: overlay,
		timeout: DefaultMessageTimeout,
	}
}

// SetMessageTimeout sets how long the size notice stays visible.
func (c *ResizeCoordinator) SetMessageTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

// Observe subscribes to each source.
func (c *ResizeCoordinator) Observe(sources ...SizeSource) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		unsub := src.Subscribe(c.OnExternalSizeChange)
		c.mu.Lock()
		c.unsubs = append(c.unsubs, unsub)
		c.mu.Unlock()
	}
}

// OnExternalSizeChange refits the grid, shows the new size and reports it.
// Every call does the full work; bursts are not coalesced here.
func (c *ResizeCoordinator) OnExternalSizeChange() {
	c.fit()
	d := c.dims()

	c.mu.Lock()
	timeout := c.timeout
	cb := c.callback
	c.mu.Unlock()

	c.overlay.Show(fmt.Sprintf("%dx%d", d.Columns, d.Rows), timeout)
	if cb != nil {
		cb(d.Columns, d.Rows)
	}
}

// SetCallback replaces the resize callback and, when f is non-nil, calls it
// right away with the current dimensions.
func (c *ResizeCoordinator) SetCallback(f func(columns, rows int)) {
	c.mu.Lock()
	c.callback = f
	c.mu.Unlock()

	if f != nil {
		d := c.dims()
		f(d.Columns, d.Rows)
	}
}

// Release unsubscribes from every observed source. Safe to call repeatedly.
func (c *ResizeCoordinator) Release() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	for _, unsub := range unsubs {
		if unsub != nil {
			unsub()
		}
	}
}

// Subscriptions returns the number of live source subscriptions.
func (c *ResizeCoordinator) Subscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.unsubs)
}

// Trigger is a SizeSource fired by hand, for containers whose size changes
// are observed elsewhere.
type Trigger struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

// NewTrigger creates an empty Trigger.
func NewTrigger() *Trigger {
	return &Trigger{subs: make(map[int]func())}
}

// Subscribe implements SizeSource.
func (t *Trigger) Subscribe(fn func()) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// Notify calls every subscriber.
func (t *Trigger) Notify() {
	t.mu.Lock()
	fns := make([]func(), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of subscribers.
func (t *Trigger) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
