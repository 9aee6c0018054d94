package input

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"
	"unsafe"

	evdev "github.com/gvalkov/golang-evdev"
	"golang.org/x/sys/unix"
)

// inputAbsInfo mirrors struct input_absinfo
type inputAbsInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// eviocgabs builds EVIOCGABS(axis), _IOR('E', 0x40 + axis, struct input_absinfo)
func eviocgabs(axis uint) uintptr {
	const (
		iocRead = 2
		size    = unsafe.Sizeof(inputAbsInfo{})
	)
	return uintptr(iocRead<<30 | size<<16 | 'E'<<8 | (0x40 + uintptr(axis)))
}

// DeviceSink writes records straight to an event device node
type DeviceSink struct {
	mu     sync.Mutex
	file   *os.File
	closed bool
	now    func() time.Time
}

// OpenDevice opens an event device node for writing
func OpenDevice(path string) (*DeviceSink, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open input device %s: %w", path, err)
	}
	return newDeviceSink(f), nil
}

func newDeviceSink(f *os.File) *DeviceSink {
	return &DeviceSink{file: f, now: time.Now}
}

// Path returns the device node path
func (d *DeviceSink) Path() string {
	return d.file.Name()
}

// WriteEvent writes one timestamped input_event record
func (d *DeviceSink) WriteEvent(evType, code uint16, value int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrSinkClosed
	}

	ev := evdev.InputEvent{
		Time:  syscall.NsecToTimeval(d.now().UnixNano()),
		Type:  evType,
		Code:  code,
		Value: value,
	}
	if err := binary.Write(d.file, binary.NativeEndian, &ev); err != nil {
		return fmt.Errorf("failed to write input event: %w", err)
	}
	return nil
}

// AxisRange queries the multi-touch X/Y ranges from the device
func (d *DeviceSink) AxisRange() (AxisRange, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return AxisRange{}, ErrSinkClosed
	}

	x, err := readAbsInfo(d.file.Fd(), evdev.ABS_MT_POSITION_X)
	if err != nil {
		return AxisRange{}, fmt.Errorf("failed to query ABS_MT_POSITION_X on %s: %w", d.file.Name(), err)
	}
	y, err := readAbsInfo(d.file.Fd(), evdev.ABS_MT_POSITION_Y)
	if err != nil {
		return AxisRange{}, fmt.Errorf("failed to query ABS_MT_POSITION_Y on %s: %w", d.file.Name(), err)
	}

	return AxisRange{
		XMin: x.Minimum,
		XMax: x.Maximum,
		YMin: y.Minimum,
		YMax: y.Maximum,
	}, nil
}

// Close closes the device node
func (d *DeviceSink) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.file.Close()
}

func readAbsInfo(fd uintptr, axis uint) (inputAbsInfo, error) {
	var info inputAbsInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, eviocgabs(axis), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return info, errno
	}
	return info, nil
}
