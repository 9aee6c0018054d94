package input

import (
	"fmt"
	"sync"

	"github.com/ThomasT75/uinput"
	evdev "github.com/gvalkov/golang-evdev"
)

// keyInjector is the part of uinput.Keyboard the keyboard sink drives
type keyInjector interface {
	KeyDown(key int) error
	KeyUp(key int) error
	Close() error
}

// touchInjector is the part of uinput.TouchPad the touch sink drives
type touchInjector interface {
	MoveTo(x, y int32) error
	TouchDown() error
	TouchUp() error
	Close() error
}

// VirtualKeyboard is an EventSink backed by a uinput keyboard. Key records
// are injected directly; the device emits its own sync reports.
type VirtualKeyboard struct {
	mu     sync.Mutex
	kbd    keyInjector
	closed bool
}

// NewVirtualKeyboard creates a uinput keyboard at uinputPath
func NewVirtualKeyboard(uinputPath string) (*VirtualKeyboard, error) {
	kbd, err := uinput.CreateKeyboard(uinputPath, []byte("fbvnc Virtual Keyboard"))
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual keyboard: %w", err)
	}
	return newVirtualKeyboard(kbd), nil
}

func newVirtualKeyboard(kbd keyInjector) *VirtualKeyboard {
	return &VirtualKeyboard{kbd: kbd}
}

// WriteEvent implements EventSink
func (v *VirtualKeyboard) WriteEvent(evType, code uint16, value int32) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrSinkClosed
	}

	switch evType {
	case evdev.EV_KEY:
		if value != 0 {
			return v.kbd.KeyDown(int(code))
		}
		return v.kbd.KeyUp(int(code))
	case evdev.EV_SYN:
		return nil
	default:
		return fmt.Errorf("%w: keyboard type=%d code=%d", ErrUnsupportedEvent, evType, code)
	}
}

// Close destroys the virtual device
func (v *VirtualKeyboard) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true
	return v.kbd.Close()
}

// VirtualTouch is an EventSink backed by a uinput touch pad. Position
// records are buffered until the frame's SYN_REPORT; a frame with a
// position moves and presses, a frame without one lifts.
type VirtualTouch struct {
	mu     sync.Mutex
	pad    touchInjector
	closed bool

	x, y    int32
	pending bool
	down    bool
}

// NewVirtualTouch creates a uinput touch pad covering axis
func NewVirtualTouch(uinputPath string, axis AxisRange) (*VirtualTouch, error) {
	pad, err := uinput.CreateTouchPad(uinputPath, []byte("fbvnc Virtual Touch"),
		axis.XMin, axis.XMax, axis.YMin, axis.YMax)
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual touch device: %w", err)
	}
	return newVirtualTouch(pad), nil
}

func newVirtualTouch(pad touchInjector) *VirtualTouch {
	return &VirtualTouch{pad: pad}
}

// WriteEvent implements EventSink
func (v *VirtualTouch) WriteEvent(evType, code uint16, value int32) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrSinkClosed
	}

	switch {
	case evType == evdev.EV_ABS && code == evdev.ABS_MT_POSITION_X:
		v.x = value
		v.pending = true
	case evType == evdev.EV_ABS && code == evdev.ABS_MT_POSITION_Y:
		v.y = value
		v.pending = true
	case evType == evdev.EV_SYN && code == evdev.SYN_MT_REPORT:
		// contact separator, nothing to inject
	case evType == evdev.EV_SYN && code == evdev.SYN_REPORT:
		return v.flush()
	default:
		return fmt.Errorf("%w: touch type=%d code=%d", ErrUnsupportedEvent, evType, code)
	}
	return nil
}

func (v *VirtualTouch) flush() error {
	if !v.pending {
		if !v.down {
			return nil
		}
		v.down = false
		return v.pad.TouchUp()
	}

	v.pending = false
	if err := v.pad.MoveTo(v.x, v.y); err != nil {
		return err
	}
	if v.down {
		return nil
	}
	v.down = true
	return v.pad.TouchDown()
}

// Close destroys the virtual device
func (v *VirtualTouch) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true
	return v.pad.Close()
}
