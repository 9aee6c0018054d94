package framebuffer

// Source is a read-only view of the device framebuffer.
//
// Words covers every mapped buffer back to back. Only the Height rows
// starting at the current pan offset are on screen.
type Source interface {
	Geometry() Geometry
	Words() []uint32
	// PanOffset reports the first visible row of the virtual buffer.
	PanOffset() (int, error)
	Close() error
}

// RGB565 returns the layout of a 16 bpp red/green/blue 5-6-5 screen with
// buffers stacked vertically.
func RGB565(width, height, buffers int) Geometry {
	if buffers < 1 {
		buffers = 1
	}
	return Geometry{
		Width:         width,
		Height:        height,
		VirtualWidth:  width,
		VirtualHeight: height * buffers,
		BitsPerPixel:  16,
		Red:           Bitfield{Offset: 11, Length: 5},
		Green:         Bitfield{Offset: 5, Length: 6},
		Blue:          Bitfield{Offset: 0, Length: 5},
	}
}
