package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrSourceRemoved is returned by Follow when the followed file is removed
// or renamed away.
var ErrSourceRemoved = errors.New("recording: source removed")

// pollInterval re-reads the file even without a notification, since some
// filesystems do not deliver write events.
var pollInterval = time.Second

// Follow calls fn for every complete line of path, then keeps waiting for
// appended lines until ctx is done. A trailing partial line is held back
// until its newline arrives. A truncated file is re-read from the start.
// Follow returns nil when ctx is cancelled.
func Follow(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	t := &tail{file: f, fn: fn, buf: make([]byte, 32*1024)}
	if err := t.drain(); err != nil {
		return err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	name := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				return ErrSourceRemoved
			}
			if event.Op&fsnotify.Write != 0 {
				if err := t.drain(); err != nil {
					return err
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch recording: %w", err)

		case <-ticker.C:
			if err := t.drain(); err != nil {
				return err
			}
		}
	}
}

type tail struct {
	file    *os.File
	fn      func([]byte) error
	buf     []byte
	pending []byte
	offset  int64
}

// drain reads to the current end of file and emits complete lines.
func (t *tail) drain() error {
	if info, err := t.file.Stat(); err == nil && info.Size() < t.offset {
		if _, err := t.file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind truncated recording: %w", err)
		}
		t.offset = 0
		t.pending = t.pending[:0]
	}

	for {
		n, err := t.file.Read(t.buf)
		if n > 0 {
			t.offset += int64(n)
			t.pending = append(t.pending, t.buf[:n]...)
			if err := t.emit(); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read recording: %w", err)
		}
	}
}

func (t *tail) emit() error {
	for {
		i := bytes.IndexByte(t.pending, '\n')
		if i < 0 {
			return nil
		}
		line := bytes.TrimSpace(t.pending[:i])
		t.pending = t.pending[i+1:]
		if len(line) == 0 {
			continue
		}
		if err := t.fn(line); err != nil {
			return err
		}
	}
}
