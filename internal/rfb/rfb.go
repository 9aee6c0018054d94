// Package rfb binds the libvncserver protocol engine. The engine owns the
// listening socket, the client handshakes, encodings and update delivery;
// callers hand it a pixel buffer, mark modified rectangles and pump it.
//
// Example usage:
//
//	srv, err := rfb.New(rfb.Options{Width: 480, Height: 800, Port: 5901})
//	if err != nil {
//	    return err
//	}
//	defer srv.Close()
//	if err := srv.SetFrameBuffer(buf); err != nil {
//	    return err
//	}
//	srv.InitServer()
//	for srv.IsActive() {
//	    srv.ProcessEvents(100 * time.Millisecond)
//	}
//
// Building without cgo yields a stub whose New returns ErrCreateServer.
package rfb

import (
	"errors"
	"fmt"
)

var (
	// ErrCreateServer is returned when the engine cannot allocate a screen
	ErrCreateServer = errors.New("failed to create VNC server")
	// ErrBufferSize is returned when a frame buffer does not match the screen
	ErrBufferSize = errors.New("frame buffer size does not match screen")
)

// KeyEventHandler receives remote key presses and releases
type KeyEventHandler func(down bool, keysym uint32)

// PointerEventHandler receives remote pointer state
type PointerEventHandler func(buttonMask uint8, x, y int)

// ClientHandler receives client connect and disconnect notifications
type ClientHandler func(host string)

// PixelFormat describes how pixels are laid out in the frame buffer
type PixelFormat struct {
	BitsPerPixel int
	Depth        int
	BigEndian    bool
	TrueColour   bool
	RedMax       int
	GreenMax     int
	BlueMax      int
	RedShift     int
	GreenShift   int
	BlueShift    int
}

// PixelFormatRGB555 is the 16-bit transmission format produced by the
// capture engine: 5 bits per channel, red in bits 10..14.
var PixelFormatRGB555 = PixelFormat{
	BitsPerPixel: 16, Depth: 15, BigEndian: false, TrueColour: true,
	RedMax: 31, GreenMax: 31, BlueMax: 31,
	RedShift: 10, GreenShift: 5, BlueShift: 0,
}

// BytesPerPixel returns the storage size of one pixel
func (f PixelFormat) BytesPerPixel() int {
	return f.BitsPerPixel / 8
}

// Options configures a server screen
type Options struct {
	Width        int
	Height       int
	Port         int
	DesktopName  string
	AlwaysShared bool
	// Format defaults to PixelFormatRGB555 when zero
	Format PixelFormat
}

func (o Options) withDefaults() Options {
	if o.Format == (PixelFormat{}) {
		o.Format = PixelFormatRGB555
	}
	if o.DesktopName == "" {
		o.DesktopName = "Android"
	}
	return o
}

// Validate checks the screen dimensions and port
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid screen size %dx%d", o.Width, o.Height)
	}
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port %d", o.Port)
	}
	switch o.Format.BitsPerPixel {
	case 0, 8, 16, 32:
	default:
		return fmt.Errorf("unsupported bits per pixel %d", o.Format.BitsPerPixel)
	}
	return nil
}

// FrameBufferSize returns the byte length SetFrameBuffer expects
func (o Options) FrameBufferSize() int {
	o = o.withDefaults()
	return o.Width * o.Height * o.Format.BytesPerPixel()
}
