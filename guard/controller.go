package guard

import (
	"sync"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
)

// SessionFeed is a SessionSource that also reports changes.
type SessionFeed interface {
	SessionSource
	Subscribe(fn func(sdk.Session)) (unsubscribe func())
}

// Controller is client-side router state. It re-evaluates the current path on
// every session change and every navigation, and redirects at most once per
// evaluation. It implements sdk.Navigator so forced redirects from the
// gateway land here.
type Controller struct {
	guard Guard
	feed  SessionFeed
	out   sdk.Navigator

	mu       sync.Mutex
	path     string
	decision Decision

	unsubscribe func()
	closeOnce   sync.Once
}

var _ sdk.Navigator = (*Controller)(nil)

// NewController starts at path and subscribes to feed. out, when non-nil, is
// told about every redirect the controller performs.
func NewController(g Guard, feed SessionFeed, path string, out sdk.Navigator) *Controller {
	c := &Controller{guard: g, feed: feed, out: out, path: cleanPath(path)}
	c.unsubscribe = feed.Subscribe(func(sdk.Session) { c.evaluate() })
	c.evaluate()
	return c
}

// Navigate moves to path and evaluates it against the current session.
func (c *Controller) Navigate(path string) Decision {
	c.mu.Lock()
	c.path = cleanPath(path)
	c.mu.Unlock()
	return c.evaluate()
}

// Redirect implements sdk.Navigator.
func (c *Controller) Redirect(path string) {
	c.Navigate(path)
}

// Path returns the current path.
func (c *Controller) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Decision returns the decision for the current path.
func (c *Controller) Decision() Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decision
}

// Close stops following session changes.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
	})
}

// evaluate reads the latest snapshot rather than the notified value so that
// interleaved notifications cannot leave the router on an older session.
func (c *Controller) evaluate() Decision {
	s := c.feed.Snapshot()

	c.mu.Lock()
	d := c.guard.Decide(c.path, s)
	if d.Action == ActionRedirect {
		c.path = cleanPath(d.Target)
		c.decision = c.guard.Decide(c.path, s)
	} else {
		c.decision = d
	}
	c.mu.Unlock()

	if d.Action == ActionRedirect && c.out != nil {
		c.out.Redirect(d.Target)
	}
	return d
}
