package light

import "sync"

// Cache holds the last known state of the light.
//
// It starts empty and is filled by the first device report. Both the
// subscription loop and the command loop use it; every operation takes
// the lock for a single read-modify-write and releases it before
// returning, so no caller ever holds it across bus I/O.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Cache struct {
	mu    sync.Mutex
	state *DeviceState
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Read returns a copy of the cached state.
// The boolean is false until the first report has been stored.
func (c *Cache) Read() (DeviceState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		return DeviceState{}, false
	}
	return *c.state, true
}

// Replace overwrites the cached state with a new report.
func (c *Cache) Replace(s DeviceState) {
	c.mu.Lock()
	c.state = &s
	c.mu.Unlock()
}

// Apply computes the delta for cmd and writes the resulting state back
// into the cache under one lock acquisition.
//
// Relative commands on an empty cache fail with ErrStateNotYetKnown and
// leave the cache untouched. Absolute commands on an empty cache return
// their delta and keep the cache empty.
func (c *Cache) Apply(cmd Command, p Policy) (StateDelta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delta, next, err := Compute(c.state, cmd, p)
	if err != nil {
		return StateDelta{}, err
	}
	if next != nil {
		c.state = next
	}
	return delta, nil
}
