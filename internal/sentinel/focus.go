// Package sentinel correlates decoded input with the window and screen
// context at the moment a session closes, and hands finished records to a
// sink.
package sentinel

import (
	"sync"
	"time"
)

// WindowTitler reports the title of the foreground window. It returns an
// empty string when no title is available; it never fails.
type WindowTitler interface {
	ActiveWindowTitle() string
}

// ScreenshotCapturer captures the screen at a click and returns a reference
// to the stored frame.
type ScreenshotCapturer interface {
	Capture(at time.Time, x, y int) (string, error)
}

// TitlerFunc adapts a function to WindowTitler.
type TitlerFunc func() string

// ActiveWindowTitle implements WindowTitler.
func (f TitlerFunc) ActiveWindowTitle() string { return f() }

// TitleCache is a WindowTitler fed by an external source, such as titles
// carried in a recording. Safe for concurrent use.
type TitleCache struct {
	mu    sync.RWMutex
	title string
	at    time.Time
}

// Set records the current foreground title.
func (c *TitleCache) Set(title string, at time.Time) {
	c.mu.Lock()
	c.title = title
	c.at = at
	c.mu.Unlock()
}

// ActiveWindowTitle implements WindowTitler.
func (c *TitleCache) ActiveWindowTitle() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.title
}

// Updated returns when the title was last set.
func (c *TitleCache) Updated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.at
}

type nopCapturer struct{}

func (nopCapturer) Capture(time.Time, int, int) (string, error) { return "", nil }
