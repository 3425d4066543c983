package gamesync

import "sync"

// ScrollController translates a scroll-position signal into next-page
// triggers. The trigger is armed-once: after it fires, further
// approaching-end observations are ignored until ResetArmed is called
// following a successful page load, so a fast-scrolling user cannot
// enqueue duplicate loads during one flight.
type ScrollController struct {
	mu        sync.Mutex
	threshold int
	armed     bool
	onEnd     func()
}

// NewScrollController constructs a controller that considers the end
// "approaching" when threshold or fewer items remain below the
// viewport.
func NewScrollController(threshold int) *ScrollController {
	if threshold < 0 {
		threshold = 0
	}
	return &ScrollController{threshold: threshold, armed: true}
}

// OnApproachingEnd registers the callback fired at most once per armed
// period.
func (c *ScrollController) OnApproachingEnd(fn func()) {
	c.mu.Lock()
	c.onEnd = fn
	c.mu.Unlock()
}

// Observe reports the scroll position: lastVisible is the index of the
// last item on screen, total the current list length. When the
// remaining distance drops to the threshold and the controller is
// armed, the callback fires and the controller disarms.
func (c *ScrollController) Observe(lastVisible, total int) {
	c.mu.Lock()
	fire := c.armed && c.onEnd != nil && total-lastVisible-1 <= c.threshold
	if fire {
		c.armed = false
	}
	fn := c.onEnd
	c.mu.Unlock()

	if fire {
		fn()
	}
}

// ResetArmed re-arms the trigger. Call it after a page load completes
// so the next approaching-end transition can fire again.
func (c *ScrollController) ResetArmed() {
	c.mu.Lock()
	c.armed = true
	c.mu.Unlock()
}
