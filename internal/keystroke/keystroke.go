// Package keystroke decodes raw virtual-key events into text tokens.
//
// The package is pure: it never touches the operating system except through
// the LockState source, so every table and truth table in it can be tested
// without installing an input hook.
//
// Decoding happens in two stages:
//  1. Tracker folds key-down/key-up events into a ModifierState
//     (Shift and Ctrl are hold-based, Caps Lock is toggle-based).
//  2. Decoder maps a (VK, ModifierState) pair to a Token: a printable
//     character, a named key label, or nothing.
package keystroke

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVK is returned by ParseVK when the input is not a virtual key.
var ErrInvalidVK = errors.New("keystroke: invalid virtual key")

// ParseVK parses a virtual-key code written as decimal ("65"), hex ("0x41")
// or as a single letter/digit ("A", "7").
func ParseVK(s string) (VK, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidVK
	}

	if len(s) == 1 {
		c := s[0]
		switch {
		case c >= '0' && c <= '9':
			return VK(c), nil
		case c >= 'a' && c <= 'z':
			return VK(c - 'a' + 'A'), nil
		case c >= 'A' && c <= 'Z':
			return VK(c), nil
		}
	}

	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVK, s)
	}
	return VK(n), nil
}
