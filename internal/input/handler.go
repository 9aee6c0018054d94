// Package input turns remote key and pointer events into Linux input event
// records for a keyboard and a touch screen.
package input

import (
	"errors"
)

var (
	// ErrSinkClosed is returned when writing to a closed sink
	ErrSinkClosed = errors.New("event sink is closed")
	// ErrUnsupportedEvent is returned by sinks that cannot represent a record
	ErrUnsupportedEvent = errors.New("unsupported event")
	// ErrWrongDeviceType is returned when a node lacks the expected capabilities
	ErrWrongDeviceType = errors.New("wrong device type")
)

// EventSink accepts raw input event records. Each call is one record; a
// logical action is a short sequence ending in a synchronization record.
type EventSink interface {
	WriteEvent(evType, code uint16, value int32) error
}

// AxisRange is the absolute X/Y range reported by the touch device.
type AxisRange struct {
	XMin, XMax int32
	YMin, YMax int32
}

// Scale maps screen pixel coordinates onto the device axes. The mapping is
// linear and unclamped.
func (a AxisRange) Scale(x, y, width, height int) (int32, int32) {
	dx := int64(a.XMin)
	dy := int64(a.YMin)
	if width > 0 {
		dx += int64(x) * int64(a.XMax-a.XMin) / int64(width)
	}
	if height > 0 {
		dy += int64(y) * int64(a.YMax-a.YMin) / int64(height)
	}
	return int32(dx), int32(dy)
}
