package keystroke

import (
	"fmt"
	"sort"
	"unicode"
)

// SymbolPair is the character a key produces without and with Shift.
type SymbolPair struct {
	Plain   rune
	Shifted rune
}

// Layout holds the shift-sensitive symbol table for one keyboard layout.
type Layout struct {
	Name    string
	Symbols map[VK]SymbolPair
}

// USLayout is the standard US-layout shift mapping for the digit row and the
// OEM punctuation keys.
var USLayout = &Layout{
	Name: "us",
	Symbols: map[VK]SymbolPair{
		0x30:        {'0', ')'},
		0x31:        {'1', '!'},
		0x32:        {'2', '@'},
		0x33:        {'3', '#'},
		0x34:        {'4', '$'},
		0x35:        {'5', '%'},
		0x36:        {'6', '^'},
		0x37:        {'7', '&'},
		0x38:        {'8', '*'},
		0x39:        {'9', '('},
		VKOEMMinus:  {'-', '_'},
		VKOEMPlus:   {'=', '+'},
		VKOEM4:      {'[', '{'},
		VKOEM6:      {']', '}'},
		VKOEM5:      {'\\', '|'},
		VKOEM1:      {';', ':'},
		VKOEM7:      {'\'', '"'},
		VKOEMComma:  {',', '<'},
		VKOEMPeriod: {'.', '>'},
		VKOEM2:      {'/', '?'},
		VKOEM3:      {'`', '~'},
		VKOEM102:    {'\\', '|'},
	},
}

// namedKeys are decoded to fixed labels regardless of modifier state.
var namedKeys = map[VK]Token{
	VKUp:       Named("[Up]"),
	VKDown:     Named("[Down]"),
	VKLeft:     Named("[Left]"),
	VKRight:    Named("[Right]"),
	VKHome:     Named("[Home]"),
	VKEnd:      Named("[End]"),
	VKPrior:    Named("[Page Up]"),
	VKNext:     Named("[Page Down]"),
	VKTab:      Named("[Tab]"),
	VKReturn:   Named("[Enter]"),
	VKCapital:  Named("[Caps Lock]"),
	VKNumLock:  Named("[Num Lock]"),
	VKLWin:     Named("[Windows]"),
	VKRWin:     Named("[Windows]"),
	VKMenu:     Named("[Alt]"),
	VKLMenu:    Named("[Alt]"),
	VKRMenu:    Named("[Alt]"),
	VKControl:  Named("[Ctrl]"),
	VKLControl: Named("[Ctrl]"),
	VKRControl: Named("[Ctrl]"),
	VKShift:    Named("[Shift]"),
	VKLShift:   Named("[Shift]"),
	VKRShift:   Named("[Shift]"),
	VKSpace:    Named("[SpaceBar]").withEdit(EditSpace),
	VKBack:     Named(DefaultKeyName(VKBack)).withEdit(EditBackspace),
}

var layouts = map[string]*Layout{
	USLayout.Name: USLayout,
}

// LayoutByName returns the registered layout called name.
func LayoutByName(name string) (*Layout, error) {
	l, ok := layouts[name]
	if !ok {
		return nil, fmt.Errorf("keystroke: unknown layout %q (valid: %v)", name, LayoutNames())
	}
	return l, nil
}

// LayoutNames lists the registered layouts in sorted order.
func LayoutNames() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	for vk := VKF1; vk <= VKF12; vk++ {
		namedKeys[vk] = Named(DefaultKeyName(vk))
	}
}

// Decoder maps virtual keys to tokens. A Decoder is immutable and safe for
// concurrent use.
type Decoder struct {
	layout *Layout
}

// NewDecoder creates a decoder for layout. A nil layout selects USLayout.
func NewDecoder(layout *Layout) *Decoder {
	if layout == nil {
		layout = USLayout
	}
	return &Decoder{layout: layout}
}

// Layout returns the decoder's layout.
func (d *Decoder) Layout() *Layout { return d.layout }

// Decode returns the token for vk under mods. It never fails: keys missing
// from every table decode to their platform default name.
func (d *Decoder) Decode(vk VK, mods ModifierState) Token {
	if tok, ok := namedKeys[vk]; ok {
		return tok
	}

	if pair, ok := d.layout.Symbols[vk]; ok {
		if mods.Shift {
			return Printable(pair.Shifted)
		}
		return Printable(pair.Plain)
	}

	if vk.IsNumpadDigit() {
		return Printable('0' + rune(vk-VKNumpad0))
	}
	if vk == VKDecimal {
		return Printable('.')
	}

	if vk.IsLetter() {
		return Printable(ResolveCase(rune(vk), mods.CapsLock, mods.Shift))
	}

	return Named(DefaultKeyName(vk))
}

// Decode decodes vk with the US layout.
func Decode(vk VK, mods ModifierState) Token {
	return defaultDecoder.Decode(vk, mods)
}

var defaultDecoder = NewDecoder(USLayout)

// ResolveCase applies the Caps Lock / Shift truth table to a letter. Caps
// Lock inverts Shift: exactly one of them active yields uppercase, both or
// neither yields lowercase. Runes without case pass through.
func ResolveCase(r rune, capsLock, shift bool) rune {
	upper := unicode.IsUpper(r)
	lower := unicode.IsLower(r)

	toLower := (!capsLock && !shift && upper) || (capsLock && shift && upper)
	toUpper := (!capsLock && shift && lower) || (capsLock && !shift && lower)

	switch {
	case toLower:
		return unicode.ToLower(r)
	case toUpper:
		return unicode.ToUpper(r)
	default:
		return r
	}
}
