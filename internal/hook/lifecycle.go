package hook

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotInstalled is returned when uninstalling an unknown handle.
var ErrNotInstalled = errors.New("hook: not installed")

// Handle identifies an installed hook procedure.
type Handle uintptr

// Installer registers hook procedures with an event source.
type Installer interface {
	Install(kind Kind, proc Proc) (Handle, error)
	Uninstall(h Handle) error
}

// Session brackets the lifetime of the keyboard and mouse hooks. Every hook
// it installed is uninstalled on Close, and a failed Open leaves nothing
// installed.
type Session struct {
	installer Installer

	mu      sync.Mutex
	handles []Handle
}

// Open installs keyboard then mouse procedures. If any installation fails,
// the hooks already installed are removed before the error is returned.
func Open(inst Installer, keyboard, mouse Proc) (*Session, error) {
	s := &Session{installer: inst}

	for _, h := range []struct {
		kind Kind
		proc Proc
	}{
		{KindKeyboard, keyboard},
		{KindMouse, mouse},
	} {
		handle, err := inst.Install(h.kind, h.proc)
		if err != nil {
			rollback := s.Close()
			return nil, errors.Join(fmt.Errorf("install %s hook: %w", h.kind, err), rollback)
		}
		s.handles = append(s.handles, handle)
	}

	return s, nil
}

// Close uninstalls every hook in reverse order. It is safe to call more
// than once.
func (s *Session) Close() error {
	s.mu.Lock()
	handles := s.handles
	s.handles = nil
	s.mu.Unlock()

	var errs []error
	for i := len(handles) - 1; i >= 0; i-- {
		if err := s.installer.Uninstall(handles[i]); err != nil {
			errs = append(errs, fmt.Errorf("uninstall hook %d: %w", handles[i], err))
		}
	}
	return errors.Join(errs...)
}

// Installed returns the number of hooks currently held.
func (s *Session) Installed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}
