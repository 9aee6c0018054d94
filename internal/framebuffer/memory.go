package framebuffer

// MemorySource is an in-process framebuffer. The capture engine runs against
// it exactly as against a device mapping.
type MemorySource struct {
	geom   Geometry
	words  []uint32
	pan    int
	panErr error
}

// NewMemorySource allocates buffers frames of the given layout, all zero.
func NewMemorySource(geom Geometry, buffers int) *MemorySource {
	if buffers < 1 {
		buffers = 1
	}
	return &MemorySource{
		geom:  geom,
		words: make([]uint32, geom.FrameWords()*buffers),
	}
}

func (m *MemorySource) Geometry() Geometry { return m.geom }
func (m *MemorySource) Words() []uint32    { return m.words }
func (m *MemorySource) Close() error       { return nil }

func (m *MemorySource) PanOffset() (int, error) {
	if m.panErr != nil {
		return 0, m.panErr
	}
	return m.pan, nil
}

// SetPan selects the first visible row; err makes PanOffset fail instead.
func (m *MemorySource) SetPan(row int, err error) {
	m.pan = row
	m.panErr = err
}

// SetWord stores a raw word at a word column and row of one buffer.
func (m *MemorySource) SetWord(buffer, wordX, y int, v uint32) {
	m.words[m.index(buffer, wordX, y)] = v
}

// Word returns the raw word at a word column and row of one buffer.
func (m *MemorySource) Word(buffer, wordX, y int) uint32 {
	return m.words[m.index(buffer, wordX, y)]
}

// SetPixel stores a 16 bpp pixel value at pixel coordinates of one buffer,
// low half-word first as on a little-endian device.
func (m *MemorySource) SetPixel(buffer, x, y int, v uint16) {
	ppw := m.geom.PixelsPerWord()
	i := m.index(buffer, x/ppw, y)
	shift := uint(x%ppw) * uint(m.geom.BitsPerPixel)
	mask := uint32(1)<<uint(m.geom.BitsPerPixel) - 1
	m.words[i] = m.words[i]&^(mask<<shift) | uint32(v)<<shift
}

func (m *MemorySource) index(buffer, wordX, y int) int {
	return buffer*m.geom.FrameWords() + y*m.geom.WordsPerRow() + wordX
}
