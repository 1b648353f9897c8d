package capture

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	_ "golang.org/x/image/bmp"
)

// FrameSource serves the most recent frame file announced by an external
// grabber. Recordings reference frames by path; PNG, JPEG and BMP are
// decoded.
type FrameSource struct {
	base string

	mu   sync.Mutex
	path string
}

// NewFrameSource resolves relative frame paths against base.
func NewFrameSource(base string) *FrameSource {
	return &FrameSource{base: base}
}

// Set announces the current frame file.
func (s *FrameSource) Set(path string) {
	if path != "" && !filepath.IsAbs(path) && s.base != "" {
		path = filepath.Join(s.base, path)
	}
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
}

// Current returns the current frame path.
func (s *FrameSource) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Grab decodes the current frame. It returns ErrNoFrame before any frame was
// announced.
func (s *FrameSource) Grab() (image.Image, error) {
	path := s.Current()
	if path == "" {
		return nil, ErrNoFrame
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
