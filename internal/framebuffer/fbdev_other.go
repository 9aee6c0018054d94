//go:build !linux

package framebuffer

// Device is unavailable outside Linux.
type Device struct{}

// Open always fails on this platform.
func Open(path string, bufferCount int) (*Device, error) {
	return nil, ErrNotSupported
}

func (d *Device) Geometry() Geometry      { return Geometry{} }
func (d *Device) Words() []uint32         { return nil }
func (d *Device) Buffers() int            { return 0 }
func (d *Device) PanOffset() (int, error) { return 0, ErrNotSupported }
func (d *Device) Close() error            { return nil }
