package keystroke

// ModifierState is the live modifier state read by every decode call.
type ModifierState struct {
	Shift    bool `json:"shift,omitempty"`
	Ctrl     bool `json:"ctrl,omitempty"`
	CapsLock bool `json:"caps_lock,omitempty"`
}

// LockState reports keyboard lock toggles. Caps Lock is a toggle whose state
// outlives any event the hook observes, so it is read from a source rather
// than derived from press events.
type LockState interface {
	CapsLock() bool
}

// keyObserver is implemented by lock sources that need to see key-downs.
type keyObserver interface {
	ObserveKeyDown(vk VK)
}

// ToggleLock derives Caps Lock from observed Caps Lock key-downs. It is the
// lock source for recordings and for platforms without a lock-state query.
type ToggleLock struct {
	caps bool
}

// NewToggleLock creates a ToggleLock with the given initial Caps Lock state.
func NewToggleLock(capsOn bool) *ToggleLock {
	return &ToggleLock{caps: capsOn}
}

// CapsLock implements LockState.
func (l *ToggleLock) CapsLock() bool { return l.caps }

// Set overrides the Caps Lock state, e.g. from a recording header.
func (l *ToggleLock) Set(capsOn bool) { l.caps = capsOn }

// ObserveKeyDown flips Caps Lock on every Caps Lock key-down.
func (l *ToggleLock) ObserveKeyDown(vk VK) {
	if vk == VKCapital {
		l.caps = !l.caps
	}
}

// Tracker maintains Shift/Ctrl hold state. It is owned by a single input
// thread and is not safe for concurrent use.
type Tracker struct {
	shift bool
	ctrl  bool
	locks LockState
}

// NewTracker creates a Tracker reading Caps Lock from locks. A nil locks
// source falls back to a ToggleLock starting with Caps Lock off.
func NewTracker(locks LockState) *Tracker {
	if locks == nil {
		locks = NewToggleLock(false)
	}
	return &Tracker{locks: locks}
}

// KeyDown records a key-down. Either Shift (or Ctrl) variant sets the
// logical modifier.
func (t *Tracker) KeyDown(vk VK) {
	switch {
	case vk.IsShift():
		t.shift = true
	case vk.IsControl():
		t.ctrl = true
	}
	if o, ok := t.locks.(keyObserver); ok {
		o.ObserveKeyDown(vk)
	}
}

// KeyUp records a key-up. An up event for either physical variant clears
// the logical modifier, even if the other variant is still held.
func (t *Tracker) KeyUp(vk VK) {
	switch {
	case vk.IsShift():
		t.shift = false
	case vk.IsControl():
		t.ctrl = false
	}
}

// State returns the current modifier state.
func (t *Tracker) State() ModifierState {
	return ModifierState{
		Shift:    t.shift,
		Ctrl:     t.ctrl,
		CapsLock: t.locks.CapsLock(),
	}
}

// Reset clears hold state. Lock state is owned by the LockState source.
func (t *Tracker) Reset() {
	t.shift = false
	t.ctrl = false
}
