package keystroke

import "strconv"

// VK is a Windows virtual-key code as delivered by a low-level keyboard hook.
type VK uint8

// Virtual-key codes used by the decoder tables.
const (
	VKBack      VK = 0x08
	VKTab       VK = 0x09
	VKClear     VK = 0x0C
	VKReturn    VK = 0x0D
	VKShift     VK = 0x10
	VKControl   VK = 0x11
	VKMenu      VK = 0x12
	VKPause     VK = 0x13
	VKCapital   VK = 0x14
	VKEscape    VK = 0x1B
	VKSpace     VK = 0x20
	VKPrior     VK = 0x21
	VKNext      VK = 0x22
	VKEnd       VK = 0x23
	VKHome      VK = 0x24
	VKLeft      VK = 0x25
	VKUp        VK = 0x26
	VKRight     VK = 0x27
	VKDown      VK = 0x28
	VKSelect    VK = 0x29
	VKPrint     VK = 0x2A
	VKExecute   VK = 0x2B
	VKSnapshot  VK = 0x2C
	VKInsert    VK = 0x2D
	VKDelete    VK = 0x2E
	VKHelp      VK = 0x2F
	VK0         VK = 0x30
	VK9         VK = 0x39
	VKA         VK = 0x41
	VKS         VK = 0x53
	VKZ         VK = 0x5A
	VKLWin      VK = 0x5B
	VKRWin      VK = 0x5C
	VKApps      VK = 0x5D
	VKSleep     VK = 0x5F
	VKNumpad0   VK = 0x60
	VKNumpad9   VK = 0x69
	VKMultiply  VK = 0x6A
	VKAdd       VK = 0x6B
	VKSeparator VK = 0x6C
	VKSubtract  VK = 0x6D
	VKDecimal   VK = 0x6E
	VKDivide    VK = 0x6F
	VKF1        VK = 0x70
	VKF12       VK = 0x7B
	VKF13       VK = 0x7C
	VKF24       VK = 0x87
	VKNumLock   VK = 0x90
	VKScroll    VK = 0x91
	VKLShift    VK = 0xA0
	VKRShift    VK = 0xA1
	VKLControl  VK = 0xA2
	VKRControl  VK = 0xA3
	VKLMenu     VK = 0xA4
	VKRMenu     VK = 0xA5
	VKOEM1      VK = 0xBA // ;:
	VKOEMPlus   VK = 0xBB // =+
	VKOEMComma  VK = 0xBC // ,<
	VKOEMMinus  VK = 0xBD // -_
	VKOEMPeriod VK = 0xBE // .>
	VKOEM2      VK = 0xBF // /?
	VKOEM3      VK = 0xC0 // `~
	VKOEM4      VK = 0xDB // [{
	VKOEM5      VK = 0xDC // \|
	VKOEM6      VK = 0xDD // ]}
	VKOEM7      VK = 0xDE // '"
	VKOEM8      VK = 0xDF
	VKOEM102    VK = 0xE2 // \| on ISO keyboards
	VKOEMClear  VK = 0xFE
)

// IsLetter reports whether vk is one of the alphabetic keys A..Z.
func (vk VK) IsLetter() bool { return vk >= VKA && vk <= VKZ }

// IsDigit reports whether vk is one of the digit-row keys 0..9.
func (vk VK) IsDigit() bool { return vk >= VK0 && vk <= VK9 }

// IsNumpadDigit reports whether vk is one of the keypad digits.
func (vk VK) IsNumpadDigit() bool { return vk >= VKNumpad0 && vk <= VKNumpad9 }

// IsShift reports whether vk is either Shift key or the generic Shift code.
func (vk VK) IsShift() bool { return vk == VKShift || vk == VKLShift || vk == VKRShift }

// IsControl reports whether vk is either Ctrl key or the generic Ctrl code.
func (vk VK) IsControl() bool { return vk == VKControl || vk == VKLControl || vk == VKRControl }

// String returns the platform default name of the key.
func (vk VK) String() string { return DefaultKeyName(vk) }

// defaultNames are the names the Windows Forms Keys enumeration gives to
// keys that have no dedicated label in the decoder tables.
var defaultNames = map[VK]string{
	VKBack:      "Back",
	VKTab:       "Tab",
	VKClear:     "Clear",
	VKReturn:    "Return",
	VKShift:     "ShiftKey",
	VKControl:   "ControlKey",
	VKMenu:      "Menu",
	VKPause:     "Pause",
	VKCapital:   "Capital",
	VKEscape:    "Escape",
	VKSpace:     "Space",
	VKPrior:     "PageUp",
	VKNext:      "Next",
	VKEnd:       "End",
	VKHome:      "Home",
	VKLeft:      "Left",
	VKUp:        "Up",
	VKRight:     "Right",
	VKDown:      "Down",
	VKSelect:    "Select",
	VKPrint:     "Print",
	VKExecute:   "Execute",
	VKSnapshot:  "PrintScreen",
	VKInsert:    "Insert",
	VKDelete:    "Delete",
	VKHelp:      "Help",
	VKLWin:      "LWin",
	VKRWin:      "RWin",
	VKApps:      "Apps",
	VKSleep:     "Sleep",
	VKMultiply:  "Multiply",
	VKAdd:       "Add",
	VKSeparator: "Separator",
	VKSubtract:  "Subtract",
	VKDecimal:   "Decimal",
	VKDivide:    "Divide",
	VKNumLock:   "NumLock",
	VKScroll:    "Scroll",
	VKLShift:    "LShiftKey",
	VKRShift:    "RShiftKey",
	VKLControl:  "LControlKey",
	VKRControl:  "RControlKey",
	VKLMenu:     "LMenu",
	VKRMenu:     "RMenu",
	0xA6:        "BrowserBack",
	0xA7:        "BrowserForward",
	0xA8:        "BrowserRefresh",
	0xA9:        "BrowserStop",
	0xAA:        "BrowserSearch",
	0xAB:        "BrowserFavorites",
	0xAC:        "BrowserHome",
	0xAD:        "VolumeMute",
	0xAE:        "VolumeDown",
	0xAF:        "VolumeUp",
	0xB0:        "MediaNextTrack",
	0xB1:        "MediaPreviousTrack",
	0xB2:        "MediaStop",
	0xB3:        "MediaPlayPause",
	0xB4:        "LaunchMail",
	0xB5:        "SelectMedia",
	0xB6:        "LaunchApplication1",
	0xB7:        "LaunchApplication2",
	VKOEM1:      "OemSemicolon",
	VKOEMPlus:   "Oemplus",
	VKOEMComma:  "Oemcomma",
	VKOEMMinus:  "OemMinus",
	VKOEMPeriod: "OemPeriod",
	VKOEM2:      "OemQuestion",
	VKOEM3:      "Oemtilde",
	VKOEM4:      "OemOpenBrackets",
	VKOEM5:      "OemPipe",
	VKOEM6:      "OemCloseBrackets",
	VKOEM7:      "OemQuotes",
	VKOEM8:      "Oem8",
	VKOEM102:    "OemBackslash",
	0xE5:        "ProcessKey",
	0xE7:        "Packet",
	0xF6:        "Attn",
	0xF7:        "Crsel",
	0xF8:        "Exsel",
	0xF9:        "EraseEof",
	0xFA:        "Play",
	0xFB:        "Zoom",
	0xFD:        "Pa1",
	VKOEMClear:  "OemClear",
}

// DefaultKeyName returns the platform default name for vk. Letters and
// digits name themselves ("A", "D7"), keypad digits are "NumPad0".."NumPad9",
// function keys "F1".."F24". Codes without a name are rendered as their
// decimal value.
func DefaultKeyName(vk VK) string {
	switch {
	case vk.IsLetter():
		return string(rune(vk))
	case vk.IsDigit():
		return "D" + string(rune(vk))
	case vk.IsNumpadDigit():
		return "NumPad" + strconv.Itoa(int(vk-VKNumpad0))
	case vk >= VKF1 && vk <= VKF24:
		return "F" + strconv.Itoa(int(vk-VKF1)+1)
	}
	if name, ok := defaultNames[vk]; ok {
		return name
	}
	return strconv.Itoa(int(vk))
}
