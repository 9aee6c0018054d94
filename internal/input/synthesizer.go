package input

import (
	"fmt"

	"github.com/bnema/fbvnc/internal/logger"
	evdev "github.com/gvalkov/golang-evdev"
)

// PointerState is the last pointer event that produced output.
type PointerState struct {
	Mask uint8
	X, Y int
}

// Synthesizer translates remote key and pointer events into records on a
// keyboard sink and a touch sink. It is not safe for concurrent use; the
// protocol engine invokes it from the poll loop only.
type Synthesizer struct {
	keyboard EventSink
	touch    EventSink
	axis     AxisRange
	width    int
	height   int

	last    PointerState
	hasLast bool

	onShutdown func()
}

// NewSynthesizer creates a synthesizer for a screen of width x height pixels
func NewSynthesizer(keyboard, touch EventSink, axis AxisRange, width, height int) *Synthesizer {
	return &Synthesizer{
		keyboard: keyboard,
		touch:    touch,
		axis:     axis,
		width:    width,
		height:   height,
	}
}

// OnShutdown registers the function run when the shutdown key is pressed
func (s *Synthesizer) OnShutdown(fn func()) {
	s.onShutdown = fn
}

// State returns the pointer filter state and whether any pointer event has
// been emitted yet.
func (s *Synthesizer) State() (PointerState, bool) {
	return s.last, s.hasLast
}

// Key handles a remote key press or release
func (s *Synthesizer) Key(down bool, keysym uint32) {
	code, shutdown := Scancode(keysym)
	if shutdown {
		logger.Info("Shutdown key received")
		if s.onShutdown != nil {
			s.onShutdown()
		}
		return
	}

	logger.Debug("Key", "keysym", fmt.Sprintf("0x%04x", keysym), "down", down, "scancode", code)
	if code == 0 {
		return
	}

	var value int32
	if down {
		value = 1
	}
	s.write(s.keyboard, "keyboard", evdev.EV_KEY, code, value)
	s.write(s.keyboard, "keyboard", evdev.EV_SYN, evdev.SYN_REPORT, 0)
}

// Pointer handles a remote pointer event. Only the primary button is
// mapped: bit 0 set is a touch at (x, y), mask 0 lifts the finger.
func (s *Synthesizer) Pointer(mask uint8, x, y int) {
	next := PointerState{Mask: mask, X: x, Y: y}
	if s.hasLast {
		if mask == 0 && s.last.Mask == 0 {
			return
		}
		if next == s.last {
			return
		}
	}

	switch {
	case mask&0x1 != 0:
		dx, dy := s.axis.Scale(x, y, s.width, s.height)
		logger.Debug("Touch down", "x", x, "y", y, "dx", dx, "dy", dy)
		s.write(s.touch, "touch", evdev.EV_ABS, evdev.ABS_MT_POSITION_X, dx)
		s.write(s.touch, "touch", evdev.EV_ABS, evdev.ABS_MT_POSITION_Y, dy)
		s.write(s.touch, "touch", evdev.EV_SYN, evdev.SYN_MT_REPORT, 0)
		s.write(s.touch, "touch", evdev.EV_SYN, evdev.SYN_REPORT, 0)
	case mask == 0:
		logger.Debug("Touch up", "x", x, "y", y)
		s.write(s.touch, "touch", evdev.EV_SYN, evdev.SYN_MT_REPORT, 0)
		s.write(s.touch, "touch", evdev.EV_SYN, evdev.SYN_REPORT, 0)
	default:
		logger.Debug("Ignoring pointer", "mask", mask)
		return
	}

	s.last = next
	s.hasLast = true
}

// write emits one record. Sink failures are logged, not returned.
func (s *Synthesizer) write(sink EventSink, name string, evType, code uint16, value int32) {
	if sink == nil {
		return
	}
	if err := sink.WriteEvent(evType, code, value); err != nil {
		logger.Error("Failed to write input event", "sink", name, "type", evType, "code", code, "err", err)
	}
}
