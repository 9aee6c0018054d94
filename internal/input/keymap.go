package input

import (
	evdev "github.com/gvalkov/golang-evdev"
)

// ShutdownKeysym (F11) ends the serving session instead of injecting a key.
const ShutdownKeysym = 0xFFC8

// 0xFF50 Home .. 0xFF58 Begin
const (
	navigationFirst = 0xFF50
	navigationLast  = 0xFF58
)

var navigationKeys = [navigationLast - navigationFirst + 1]uint16{
	evdev.KEY_HOME, evdev.KEY_LEFT, evdev.KEY_UP, evdev.KEY_RIGHT, evdev.KEY_DOWN,
	evdev.KEY_PAGEUP, evdev.KEY_PAGEDOWN, evdev.KEY_END,
	0, // Begin
}

// 0xFFE1 Shift_L .. 0xFFEE Hyper_R
const (
	modifierFirst = 0xFFE1
	modifierLast  = 0xFFEE
)

// Shift_L, Shift_R, Control_L, Control_R, Caps_Lock, Shift_Lock, Meta_L,
// Meta_R, Alt_L, Alt_R, Super_L, Super_R, Hyper_L, Hyper_R
var modifierKeys = [modifierLast - modifierFirst + 1]uint16{
	evdev.KEY_LEFTSHIFT, evdev.KEY_LEFTSHIFT,
	evdev.KEY_COMPOSE, evdev.KEY_COMPOSE,
	evdev.KEY_LEFTSHIFT, evdev.KEY_LEFTSHIFT,
	0, 0,
	evdev.KEY_LEFTALT, evdev.KEY_RIGHTALT,
	0, 0, 0, 0,
}

var letterKeys = [26]uint16{
	evdev.KEY_A, evdev.KEY_B, evdev.KEY_C, evdev.KEY_D, evdev.KEY_E,
	evdev.KEY_F, evdev.KEY_G, evdev.KEY_H, evdev.KEY_I, evdev.KEY_J,
	evdev.KEY_K, evdev.KEY_L, evdev.KEY_M, evdev.KEY_N, evdev.KEY_O,
	evdev.KEY_P, evdev.KEY_Q, evdev.KEY_R, evdev.KEY_S, evdev.KEY_T,
	evdev.KEY_U, evdev.KEY_V, evdev.KEY_W, evdev.KEY_X, evdev.KEY_Y, evdev.KEY_Z,
}

// Shifted and unshifted symbols share a key.
var symbolKeys = map[uint32]uint16{
	' ':    evdev.KEY_SPACE,
	',':    evdev.KEY_COMMA,
	'<':    evdev.KEY_COMMA,
	'.':    evdev.KEY_DOT,
	'>':    evdev.KEY_DOT,
	'/':    evdev.KEY_SLASH,
	'?':    evdev.KEY_SLASH,
	'@':    evdev.KEY_EMAIL,
	'*':    evdev.KEY_KPASTERISK,
	0xFF08: evdev.KEY_BACKSPACE,
	0xFF09: evdev.KEY_TAB,
	0xFF0D: evdev.KEY_ENTER,
	0xFF1B: evdev.KEY_BACK, // Escape
	0xFFBE: evdev.KEY_F1,
	0xFFBF: evdev.KEY_F2,
	0xFFC0: evdev.KEY_F3,
	0xFFC5: evdev.KEY_F4, // F8 on the viewer
}

// Scancode resolves a remote keysym to a device key code. A zero code means
// the keysym has no mapping. shutdown is set for ShutdownKeysym.
func Scancode(keysym uint32) (code uint16, shutdown bool) {
	switch {
	case keysym >= '0' && keysym <= '9':
		n := uint16(keysym - '0')
		if n == 0 {
			n = 10
		}
		return evdev.KEY_1 - 1 + n, false
	case keysym >= navigationFirst && keysym <= navigationLast:
		return navigationKeys[keysym-navigationFirst], false
	case keysym >= modifierFirst && keysym <= modifierLast:
		return modifierKeys[keysym-modifierFirst], false
	case (keysym >= 'A' && keysym <= 'Z') || (keysym >= 'a' && keysym <= 'z'):
		return letterKeys[(keysym&0x5F)-'A'], false
	case keysym == ShutdownKeysym:
		return 0, true
	default:
		return symbolKeys[keysym], false
	}
}
