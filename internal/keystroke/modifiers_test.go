package keystroke

import "testing"

func TestTrackerShiftHold(t *testing.T) {
	tests := []struct {
		name   string
		events func(*Tracker)
		shift  bool
		ctrl   bool
	}{
		{"initial", func(*Tracker) {}, false, false},
		{"left shift down", func(tr *Tracker) { tr.KeyDown(VKLShift) }, true, false},
		{"right shift down", func(tr *Tracker) { tr.KeyDown(VKRShift) }, true, false},
		{"shift down then up", func(tr *Tracker) {
			tr.KeyDown(VKLShift)
			tr.KeyUp(VKLShift)
		}, false, false},
		{"both shifts, one released", func(tr *Tracker) {
			tr.KeyDown(VKLShift)
			tr.KeyDown(VKRShift)
			tr.KeyUp(VKRShift)
		}, false, false},
		{"mismatched release", func(tr *Tracker) {
			tr.KeyDown(VKLShift)
			tr.KeyUp(VKRShift)
		}, false, false},
		{"ctrl down", func(tr *Tracker) { tr.KeyDown(VKRControl) }, false, true},
		{"generic ctrl code", func(tr *Tracker) { tr.KeyDown(VKControl) }, false, true},
		{"ctrl and shift", func(tr *Tracker) {
			tr.KeyDown(VKLControl)
			tr.KeyDown(VKLShift)
		}, true, true},
		{"unrelated keys are no-ops", func(tr *Tracker) {
			tr.KeyDown(VKA)
			tr.KeyUp(VKReturn)
		}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(nil)
			tt.events(tr)
			st := tr.State()
			if st.Shift != tt.shift {
				t.Errorf("shift = %v, want %v", st.Shift, tt.shift)
			}
			if st.Ctrl != tt.ctrl {
				t.Errorf("ctrl = %v, want %v", st.Ctrl, tt.ctrl)
			}
		})
	}
}

func TestTrackerCapsLockToggle(t *testing.T) {
	tr := NewTracker(NewToggleLock(false))

	if tr.State().CapsLock {
		t.Fatal("caps lock should start off")
	}

	tr.KeyDown(VKCapital)
	if !tr.State().CapsLock {
		t.Error("caps lock should be on after one press")
	}

	// Release does not toggle.
	tr.KeyUp(VKCapital)
	if !tr.State().CapsLock {
		t.Error("caps lock should stay on after release")
	}

	tr.KeyDown(VKCapital)
	if tr.State().CapsLock {
		t.Error("caps lock should be off after second press")
	}
}

func TestToggleLockSet(t *testing.T) {
	l := NewToggleLock(false)
	tr := NewTracker(l)
	l.Set(true)
	if !tr.State().CapsLock {
		t.Error("expected caps lock after Set(true)")
	}
	tr.KeyDown(VKCapital)
	if tr.State().CapsLock {
		t.Error("expected toggle from the overridden state")
	}
}

type fixedLock bool

func (f fixedLock) CapsLock() bool { return bool(f) }

func TestTrackerReadsLockSource(t *testing.T) {
	tr := NewTracker(fixedLock(true))
	tr.KeyDown(VKCapital) // not observed by a fixed source
	if !tr.State().CapsLock {
		t.Error("expected caps lock from source")
	}
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker(NewToggleLock(true))
	tr.KeyDown(VKLShift)
	tr.KeyDown(VKLControl)
	tr.Reset()

	st := tr.State()
	if st.Shift || st.Ctrl {
		t.Errorf("expected hold state cleared, got %+v", st)
	}
	if !st.CapsLock {
		t.Error("reset must not touch lock state")
	}
}
