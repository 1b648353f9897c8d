// Package hook defines the synchronous callback boundary between an input
// hook chain and the engine.
//
// A hook procedure receives every raw event, must return quickly, must never
// let a fault escape, and must always hand the event to the next hook in the
// chain. Callback enforces those rules around an arbitrary Handler.
package hook

import (
	"fmt"
	"strings"
	"time"

	"keyjournal/internal/keystroke"
)

// Message identifies a raw input event. Values are the Windows message codes
// carried in wParam of low-level hook procedures.
type Message uint32

const (
	WMKeyDown     Message = 0x0100
	WMKeyUp       Message = 0x0101
	WMSysKeyDown  Message = 0x0104
	WMSysKeyUp    Message = 0x0105
	WMMouseMove   Message = 0x0200
	WMLButtonDown Message = 0x0201
	WMLButtonUp   Message = 0x0202
	WMRButtonDown Message = 0x0204
	WMRButtonUp   Message = 0x0205
	WMMButtonDown Message = 0x0207
	WMMButtonUp   Message = 0x0208
	WMMouseWheel  Message = 0x020A
)

var messageNames = map[Message]string{
	WMKeyDown:     "keydown",
	WMKeyUp:       "keyup",
	WMSysKeyDown:  "syskeydown",
	WMSysKeyUp:    "syskeyup",
	WMMouseMove:   "mousemove",
	WMLButtonDown: "lbuttondown",
	WMLButtonUp:   "lbuttonup",
	WMRButtonDown: "rbuttondown",
	WMRButtonUp:   "rbuttonup",
	WMMButtonDown: "mbuttondown",
	WMMButtonUp:   "mbuttonup",
	WMMouseWheel:  "mousewheel",
}

func (m Message) String() string {
	if name, ok := messageNames[m]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", uint32(m))
}

// ParseMessage accepts a message name as printed by String.
func ParseMessage(s string) (Message, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range messageNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown message %q", s)
}

// Kind returns which hook chain the message travels on.
func (m Message) Kind() Kind {
	if m >= 0x0200 && m <= 0x020E {
		return KindMouse
	}
	return KindKeyboard
}

// IsKeyDown reports a key press, including system (Alt-modified) presses.
func (m Message) IsKeyDown() bool { return m == WMKeyDown || m == WMSysKeyDown }

// IsKeyUp reports a key release.
func (m Message) IsKeyUp() bool { return m == WMKeyUp || m == WMSysKeyUp }

// Button returns the button pressed by m, or ButtonNone.
func (m Message) Button() Button {
	switch m {
	case WMLButtonDown:
		return ButtonLeft
	case WMRButtonDown:
		return ButtonRight
	case WMMButtonDown:
		return ButtonMiddle
	default:
		return ButtonNone
	}
}

// Kind is a hook chain.
type Kind int

const (
	KindKeyboard Kind = iota
	KindMouse
)

func (k Kind) String() string {
	if k == KindMouse {
		return "mouse"
	}
	return "keyboard"
}

// Button is a pointing-device button.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return "none"
	}
}

// ParseButton parses "left", "right" or "middle".
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return ButtonLeft, nil
	case "right":
		return ButtonRight, nil
	case "middle":
		return ButtonMiddle, nil
	default:
		return ButtonNone, fmt.Errorf("unknown button %q", s)
	}
}

// Event is one raw hook event. Code mirrors the hook code argument: negative
// values must be passed along without processing.
type Event struct {
	Code    int
	Message Message
	VK      keystroke.VK
	X, Y    int
	Time    time.Time
}

// Handler receives the events a Callback accepts for processing.
type Handler interface {
	KeyDown(ev Event)
	KeyUp(ev Event)
	ButtonDown(ev Event, b Button)
}

// NextFunc forwards an event to the next hook in the chain and returns its
// result.
type NextFunc func(ev Event) uintptr

// Proc is a hook procedure as registered with an Installer.
type Proc func(ev Event, next NextFunc) uintptr
