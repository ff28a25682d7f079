// ABOUTME: Thread-safe windowed failure counter for deletion confirmations.
// ABOUTME: Locks a key after too many mismatched confirmations inside the window.

package attempts

import (
	"container/list"
	"sync"
	"time"
)

// Defaults used when the config leaves the limits unset
const (
	DefaultMaxFailures = 5
	DefaultWindow      = 15 * time.Minute
	DefaultMaxKeys     = 1024
)

type counterEntry struct {
	first   time.Time // start of the current window
	count   int
	element *list.Element
}

// Counter tracks failures per key inside a fixed window that starts at the
// first failure. Keys are evicted oldest first once maxKeys is reached.
type Counter struct {
	mu          sync.Mutex
	entries     map[string]*counterEntry
	order       *list.List // keys in last-touched order (oldest at front)
	maxFailures int
	window      time.Duration
	maxKeys     int
	now         func() time.Time
	done        chan struct{}
	closed      bool
}

// New creates a counter. A background goroutine drops expired windows.
func New(maxFailures int, window time.Duration) *Counter {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if window <= 0 {
		window = DefaultWindow
	}
	c := &Counter{
		entries:     make(map[string]*counterEntry),
		order:       list.New(),
		maxFailures: maxFailures,
		window:      window,
		maxKeys:     DefaultMaxKeys,
		now:         time.Now,
		done:        make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// MaxFailures returns the lockout threshold
func (c *Counter) MaxFailures() int { return c.maxFailures }

// Fail records a failure for key and returns the count in the current window.
func (c *Counter) Fail(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.entries[key]; ok {
		if now.Sub(entry.first) >= c.window {
			entry.first = now
			entry.count = 0
		}
		entry.count++
		c.order.MoveToBack(entry.element)
		return entry.count
	}

	if len(c.entries) >= c.maxKeys {
		c.evictOldest()
	}
	elem := c.order.PushBack(key)
	c.entries[key] = &counterEntry{first: now, count: 1, element: elem}
	return 1
}

// Locked reports whether key has reached the failure threshold in its window.
func (c *Counter) Locked(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.now().Sub(entry.first) >= c.window {
		return false
	}
	return entry.count >= c.maxFailures
}

// Remaining returns how many failures key may still record before locking.
func (c *Counter) Remaining(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.first) >= c.window {
		return c.maxFailures
	}
	if n := c.maxFailures - entry.count; n > 0 {
		return n
	}
	return 0
}

// Reset forgets every failure for key.
func (c *Counter) Reset(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.order.Remove(entry.element)
		delete(c.entries, key)
	}
}

// evictOldest removes the least recently touched key. Must be called with mu held.
func (c *Counter) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.entries, key)
}

func (c *Counter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes all keys whose window has elapsed.
func (c *Counter) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.first) >= c.window {
			c.order.Remove(entry.element)
			delete(c.entries, key)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Counter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
