package hook

import (
	"sync/atomic"

	"keyjournal/internal/logging"
)

// Callback is the synchronous hook entry point. It dispatches accepted events
// to a Handler and always forwards to the next hook. A panic in the handler
// is recovered, reported, and the event passed through unchanged.
type Callback struct {
	handler Handler
	crash   *logging.CrashHandler

	handled   atomic.Int64
	forwarded atomic.Int64
}

// NewCallback wraps h. A nil crash handler reports faults without writing
// crash files.
func NewCallback(h Handler, crash *logging.CrashHandler) *Callback {
	if crash == nil {
		crash = logging.NewCrashHandler(nil)
	}
	return &Callback{handler: h, crash: crash}
}

// Invoke processes ev and returns the result of next.
func (c *Callback) Invoke(ev Event, next NextFunc) uintptr {
	if ev.Code >= 0 {
		c.crash.Recover(faultContext(ev), func() {
			if c.dispatch(ev) {
				c.handled.Add(1)
			}
		})
	}
	return c.forward(ev, next)
}

// Proc returns Invoke as a Proc for an Installer.
func (c *Callback) Proc() Proc { return c.Invoke }

func (c *Callback) dispatch(ev Event) bool {
	switch {
	case ev.Message.IsKeyDown():
		c.handler.KeyDown(ev)
	case ev.Message.IsKeyUp():
		c.handler.KeyUp(ev)
	case ev.Message.Button() != ButtonNone:
		c.handler.ButtonDown(ev, ev.Message.Button())
	default:
		return false
	}
	return true
}

// forward calls next even when it panics, so the chain is never cut. A
// panicking next yields zero.
func (c *Callback) forward(ev Event, next NextFunc) (result uintptr) {
	c.forwarded.Add(1)
	if next == nil {
		return 0
	}
	c.crash.Recover(map[string]any{"stage": "next", "message": ev.Message.String()}, func() {
		result = next(ev)
	})
	return result
}

// Stats is a snapshot of callback counters.
type Stats struct {
	Handled   int64
	Faults    int64
	Forwarded int64
}

// Stats returns the callback counters. Faults counts panics recovered by the
// crash handler, in either the handler or the next hook.
func (c *Callback) Stats() Stats {
	return Stats{
		Handled:   c.handled.Load(),
		Faults:    c.crash.Crashes(),
		Forwarded: c.forwarded.Load(),
	}
}

func faultContext(ev Event) map[string]any {
	return map[string]any{
		"message": ev.Message.String(),
		"vk":      int(ev.VK),
		"code":    ev.Code,
	}
}
