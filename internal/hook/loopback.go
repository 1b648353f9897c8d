package hook

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Loopback is an in-process Installer. Events passed to Deliver run through
// the procedure installed for their chain, exactly as an OS hook chain would
// call it. The end of the chain accepts every event and returns zero.
type Loopback struct {
	mu     sync.RWMutex
	next   Handle
	procs  map[Handle]installed
	passed atomic.Int64
}

type installed struct {
	kind Kind
	proc Proc
}

// NewLoopback creates an empty loopback chain.
func NewLoopback() *Loopback {
	return &Loopback{procs: make(map[Handle]installed)}
}

// Install implements Installer. Only one procedure per chain is supported.
func (l *Loopback) Install(kind Kind, proc Proc) (Handle, error) {
	if proc == nil {
		return 0, fmt.Errorf("install %s hook: nil procedure", kind)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, in := range l.procs {
		if in.kind == kind {
			return 0, fmt.Errorf("%s hook already installed", kind)
		}
	}
	l.next++
	l.procs[l.next] = installed{kind: kind, proc: proc}
	return l.next, nil
}

// Uninstall implements Installer.
func (l *Loopback) Uninstall(h Handle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.procs[h]; !ok {
		return ErrNotInstalled
	}
	delete(l.procs, h)
	return nil
}

// Deliver runs ev through the installed procedure for its chain. Events on a
// chain with no procedure go straight to the end of the chain.
func (l *Loopback) Deliver(ev Event) uintptr {
	kind := ev.Message.Kind()

	l.mu.RLock()
	var proc Proc
	for _, in := range l.procs {
		if in.kind == kind {
			proc = in.proc
			break
		}
	}
	l.mu.RUnlock()

	if proc == nil {
		return l.endOfChain(ev)
	}
	return proc(ev, l.endOfChain)
}

func (l *Loopback) endOfChain(Event) uintptr {
	l.passed.Add(1)
	return 0
}

// Passed returns how many events reached the end of the chain.
func (l *Loopback) Passed() int64 {
	return l.passed.Load()
}

// Installed returns the number of installed procedures.
func (l *Loopback) Installed() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.procs)
}
