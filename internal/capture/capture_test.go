package capture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

var at = time.Date(2024, 2, 3, 4, 5, 6, 789*int(time.Millisecond), time.UTC)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "screenshot_20240203_040506_789.png", FileName(at))
}

func TestFileCapturerMarksCursor(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Screenshots")
	c, err := NewFileCapturer(dir, func() (image.Image, error) {
		return solid(64, 48, color.White), nil
	})
	require.NoError(t, err)

	path, err := c.Capture(at, 30, 20)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName(at)), path)

	img := decodePNG(t, path)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())

	r, g, b, _ := img.At(30, 20).RGBA()
	assert.Equal(t, [3]uint32{0xFFFF, 0, 0}, [3]uint32{r, g, b}, "cursor centre")
	r, g, b, _ = img.At(30+cursorArm, 20).RGBA()
	assert.Equal(t, [3]uint32{0xFFFF, 0, 0}, [3]uint32{r, g, b}, "cursor arm")
	r, g, b, _ = img.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0xFFFF, 0xFFFF, 0xFFFF}, [3]uint32{r, g, b}, "background")
}

func TestFileCapturerUniqueNames(t *testing.T) {
	c, err := NewFileCapturer(t.TempDir(), func() (image.Image, error) {
		return solid(4, 4, color.Black), nil
	})
	require.NoError(t, err)

	first, err := c.Capture(at, 0, 0)
	require.NoError(t, err)
	second, err := c.Capture(at, 0, 0)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "screenshot_20240203_040506_789-1.png", filepath.Base(second))
}

func TestFileCapturerClipsOffscreenCursor(t *testing.T) {
	c, err := NewFileCapturer(t.TempDir(), func() (image.Image, error) {
		return solid(8, 8, color.White), nil
	})
	require.NoError(t, err)

	_, err = c.Capture(at, -100, 500)
	assert.NoError(t, err)
}

func TestFileCapturerScales(t *testing.T) {
	c, err := NewFileCapturer(t.TempDir(), func() (image.Image, error) {
		return solid(200, 100, color.White), nil
	}, WithMaxWidth(50))
	require.NoError(t, err)

	path, err := c.Capture(at, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 25), decodePNG(t, path).Bounds())
}

func TestFileCapturerGrabError(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCapturer(dir, NewFrameSource("").Grab)
	require.NoError(t, err)

	_, err = c.Capture(at, 0, 0)
	assert.ErrorIs(t, err, ErrNoFrame)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestFrameSourceDecodesBMP(t *testing.T) {
	base := t.TempDir()
	f, err := os.Create(filepath.Join(base, "frame-0001.bmp"))
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, solid(16, 9, color.RGBA{B: 0xFF, A: 0xFF})))
	require.NoError(t, f.Close())

	src := NewFrameSource(base)
	src.Set("frame-0001.bmp")
	assert.Equal(t, filepath.Join(base, "frame-0001.bmp"), src.Current())

	img, err := src.Grab()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 9), img.Bounds())

	src.Set(filepath.Join(base, "missing.png"))
	_, err = src.Grab()
	assert.Error(t, err)
}

func TestNewFileCapturerRequiresGrab(t *testing.T) {
	_, err := NewFileCapturer(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	path, err := Nop{}.Capture(at, 1, 2)
	assert.NoError(t, err)
	assert.Empty(t, path)
}
