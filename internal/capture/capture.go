// Package capture stores annotated screen frames for click records.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	xdraw "golang.org/x/image/draw"
)

// ErrNoFrame is returned by a GrabFunc with nothing to capture.
var ErrNoFrame = errors.New("capture: no frame available")

// GrabFunc returns the current screen contents.
type GrabFunc func() (image.Image, error)

// FileCapturer writes one PNG per click into Dir, with the pointer position
// marked by a red crosshair.
type FileCapturer struct {
	dir      string
	grab     GrabFunc
	maxWidth int
}

// Option configures a FileCapturer.
type Option func(*FileCapturer)

// WithMaxWidth downscales frames wider than w pixels, keeping the aspect
// ratio. Zero keeps the original size.
func WithMaxWidth(w int) Option {
	return func(c *FileCapturer) { c.maxWidth = w }
}

// NewFileCapturer creates dir if needed and returns a capturer writing
// there.
func NewFileCapturer(dir string, grab GrabFunc, opts ...Option) (*FileCapturer, error) {
	if grab == nil {
		return nil, errors.New("capture: nil grab function")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create screenshot directory: %w", err)
	}
	c := &FileCapturer{dir: dir, grab: grab}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dir returns the output directory.
func (c *FileCapturer) Dir() string { return c.dir }

// Capture grabs a frame, marks (x, y) and writes it as PNG. It returns the
// path of the written file.
func (c *FileCapturer) Capture(at time.Time, x, y int) (string, error) {
	src, err := c.grab()
	if err != nil {
		return "", fmt.Errorf("grab frame: %w", err)
	}

	frame := toRGBA(src)
	DrawCursor(frame, x, y)
	out := c.scale(frame)

	f, path, err := createUnique(c.dir, at)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, out); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode screenshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close screenshot: %w", err)
	}
	return path, nil
}

func (c *FileCapturer) scale(src *image.RGBA) image.Image {
	b := src.Bounds()
	if c.maxWidth <= 0 || b.Dx() <= c.maxWidth {
		return src
	}
	h := b.Dy() * c.maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, c.maxWidth, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// FileName returns the screenshot file name for a capture at t.
func FileName(t time.Time) string {
	return "screenshot_" + t.Format("20060102_150405") + fmt.Sprintf("_%03d.png", t.Nanosecond()/int(time.Millisecond))
}

// createUnique creates the file for t, adding a counter when two clicks
// land in the same millisecond.
func createUnique(dir string, t time.Time) (*os.File, string, error) {
	base := FileName(t)
	path := filepath.Join(dir, base)
	for i := 1; ; i++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, path, nil
		}
		if !os.IsExist(err) || i > 1000 {
			return nil, "", fmt.Errorf("create screenshot: %w", err)
		}
		ext := filepath.Ext(base)
		path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base[:len(base)-len(ext)], i, ext))
	}
}

func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	return dst
}

// Cursor marker geometry.
const (
	cursorArm   = 10
	cursorWidth = 2
)

var cursorColor = color.RGBA{R: 0xFF, A: 0xFF}

// DrawCursor draws a red crosshair centred on (x, y). Points outside the
// image are clipped.
func DrawCursor(img *image.RGBA, x, y int) {
	b := img.Bounds()
	set := func(px, py int) {
		if image.Pt(px, py).In(b) {
			img.SetRGBA(px, py, cursorColor)
		}
	}
	for d := -cursorArm; d <= cursorArm; d++ {
		for w := 0; w < cursorWidth; w++ {
			set(x+d, y+w)
			set(x+w, y+d)
		}
	}
}

// Nop is a capturer that stores nothing.
type Nop struct{}

// Capture implements the capturer contract with an empty reference.
func (Nop) Capture(time.Time, int, int) (string, error) { return "", nil }
