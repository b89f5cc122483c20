// Package offline holds the subsystem-wide online/offline switch. Every
// component that gates on the mode receives the controller explicitly; there
// is no ambient global.
package offline

import "sync"

type Mode int

const (
	Online Mode = iota
	Offline
)

func (m Mode) String() string {
	if m == Offline {
		return "offline"
	}
	return "online"
}

// Controller is a single-writer many-reader flag. Gated operations read the
// mode exactly once at their start and honor that snapshot for their whole
// duration; a toggle mid-operation never splits an attempt.
type Controller struct {
	mu          sync.RWMutex
	mode        Mode
	subscribers []chan Mode
}

func NewController() *Controller {
	return &Controller{}
}

// Toggle flips the mode and returns the new value. It does not close open
// connections; existing handles live until they fail or are closed.
func (c *Controller) Toggle() Mode {
	c.mu.Lock()
	if c.mode == Online {
		c.mode = Offline
	} else {
		c.mode = Online
	}
	mode := c.mode
	subs := make([]chan Mode, len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub <- mode:
		default:
		}
	}
	return mode
}

func (c *Controller) SetOffline(offline bool) {
	c.mu.RLock()
	current := c.mode
	c.mu.RUnlock()
	if (current == Offline) != offline {
		c.Toggle()
	}
}

func (c *Controller) IsOffline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode == Offline
}

func (c *Controller) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Subscribe returns a channel receiving mode changes. Slow subscribers miss
// intermediate flips rather than blocking the toggler.
func (c *Controller) Subscribe() <-chan Mode {
	ch := make(chan Mode, 1)
	c.mu.Lock()
	c.subscribers = append(c.subscribers, ch)
	c.mu.Unlock()
	return ch
}
