// Package framebuffer exposes the device's raw pixel buffer as a read-only
// source of native-endian 32-bit words.
package framebuffer

import (
	"errors"
	"fmt"
)

// WordBits is the width of the unit the capture engine compares and converts.
const WordBits = 32

// TransmissionChannelBits is the per-channel depth of the transmission format.
const TransmissionChannelBits = 5

var (
	// ErrUnsupportedDepth is returned when the source depth cannot be packed
	// two pixels per word.
	ErrUnsupportedDepth = errors.New("unsupported framebuffer depth")
	// ErrInvalidGeometry is returned for zero or misaligned dimensions.
	ErrInvalidGeometry = errors.New("invalid framebuffer geometry")
	// ErrNotSupported is returned on platforms without fbdev.
	ErrNotSupported = errors.New("framebuffer devices not supported on this platform")
)

// Bitfield locates one colour channel inside a source pixel.
type Bitfield struct {
	Offset uint32
	Length uint32
}

// Geometry is the screen layout read from the pixel source at startup.
type Geometry struct {
	Width         int
	Height        int
	VirtualWidth  int
	VirtualHeight int
	XOffset       int
	YOffset       int
	BitsPerPixel  int
	Red           Bitfield
	Green         Bitfield
	Blue          Bitfield
}

// PixelsPerWord is how many source pixels share one 32-bit word.
func (g Geometry) PixelsPerWord() int {
	if g.BitsPerPixel <= 0 {
		return 0
	}
	return WordBits / g.BitsPerPixel
}

// WordsPerRow is the number of words covering one visible row.
func (g Geometry) WordsPerRow() int {
	ppw := g.PixelsPerWord()
	if ppw == 0 {
		return 0
	}
	return g.Width / ppw
}

// FrameWords is the number of words covering the visible frame.
func (g Geometry) FrameWords() int {
	return g.WordsPerRow() * g.Height
}

// BytesPerPixel of the source format.
func (g Geometry) BytesPerPixel() int {
	return g.BitsPerPixel / 8
}

// Shifts returns the right shifts that bring the top five bits of each
// channel down to bit 0.
func (g Geometry) Shifts() (red, green, blue uint) {
	return channelShift(g.Red), channelShift(g.Green), channelShift(g.Blue)
}

func channelShift(f Bitfield) uint {
	s := int(f.Offset+f.Length) - TransmissionChannelBits
	if s < 0 {
		return 0
	}
	return uint(s)
}

// Validate checks that the converter can process this layout.
func (g Geometry) Validate() error {
	if g.BitsPerPixel != 16 {
		return fmt.Errorf("%w: %d bpp (need 16)", ErrUnsupportedDepth, g.BitsPerPixel)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, g.Width, g.Height)
	}
	if g.Width%g.PixelsPerWord() != 0 {
		return fmt.Errorf("%w: width %d is not a multiple of %d", ErrInvalidGeometry, g.Width, g.PixelsPerWord())
	}
	channels := []struct {
		name  string
		field Bitfield
	}{{"red", g.Red}, {"green", g.Green}, {"blue", g.Blue}}
	for _, ch := range channels {
		f := ch.field
		if f.Length < TransmissionChannelBits || int(f.Offset+f.Length) > g.BitsPerPixel {
			return fmt.Errorf("%w: %s channel offset=%d length=%d", ErrInvalidGeometry, ch.name, f.Offset, f.Length)
		}
	}
	return nil
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d (virtual %dx%d, offset %d,%d) %dbpp",
		g.Width, g.Height, g.VirtualWidth, g.VirtualHeight, g.XOffset, g.YOffset, g.BitsPerPixel)
}
