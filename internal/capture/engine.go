// Package capture samples the framebuffer, diffs it against the previous
// sample and converts changed words into the transmission format.
package capture

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/bnema/fbvnc/internal/framebuffer"
	"github.com/bnema/fbvnc/internal/logger"
)

// DefaultMaxFPS caps how often a changed frame is reported.
const DefaultMaxFPS = 5

// Engine owns the snapshot and transmission buffers. It is not safe for
// concurrent use; the poll loop drives it from a single goroutine.
type Engine struct {
	src        framebuffer.Source
	geom       framebuffer.Geometry
	ppw        int
	rowWords   int
	frameWords int

	rShift, gShift, bShift uint

	snapshot []uint32 // last seen source words
	remote   []uint32 // converted words read by the protocol engine

	interval   time.Duration
	lastUpdate time.Time
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxFPS sets the minimum spacing between non-empty ticks to 1/fps.
func WithMaxFPS(fps int) Option {
	return func(e *Engine) {
		if fps > 0 {
			e.interval = time.Second / time.Duration(fps)
		}
	}
}

// WithClock replaces time.Now for the rate limiter.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine allocates zeroed buffers matching the source's visible frame.
func NewEngine(src framebuffer.Source, opts ...Option) (*Engine, error) {
	geom := src.Geometry()
	if err := geom.Validate(); err != nil {
		return nil, err
	}

	frameWords := geom.FrameWords()
	if n := len(src.Words()); n < frameWords {
		return nil, fmt.Errorf("pixel source holds %d words, frame needs %d", n, frameWords)
	}

	e := &Engine{
		src:        src,
		geom:       geom,
		ppw:        geom.PixelsPerWord(),
		rowWords:   geom.WordsPerRow(),
		frameWords: frameWords,
		snapshot:   make([]uint32, frameWords),
		remote:     make([]uint32, frameWords),
		interval:   time.Second / DefaultMaxFPS,
		now:        time.Now,
	}
	e.rShift, e.gShift, e.bShift = geom.Shifts()

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Tick samples the visible frame once. It returns an empty rect without
// touching either buffer when the previous non-empty tick is more recent
// than the rate limit allows.
func (e *Engine) Tick() DirtyRect {
	now := e.now()
	if !e.lastUpdate.IsZero() && now.Sub(e.lastUpdate) < e.interval {
		return EmptyRect()
	}

	words := e.src.Words()
	start := e.frameStart(len(words))
	rect := e.scan(words[start : start+e.frameWords])

	if !rect.Empty() {
		e.lastUpdate = now
		logger.Debug("Changed frame",
			"w", rect.MaxX+e.ppw-rect.MinX,
			"h", rect.MaxY+1-rect.MinY,
			"x", rect.MinX,
			"y", rect.MinY)
	}
	return rect
}

// frameStart is the word offset of the visible frame in the virtual buffer.
func (e *Engine) frameStart(total int) int {
	pan, err := e.src.PanOffset()
	if err != nil || pan < 0 {
		// no info, assume the front buffer
		return 0
	}

	start := pan * e.geom.Width / e.ppw
	if start+e.frameWords > total {
		logger.Debugf("Pan offset %d is outside the mapped buffers, using the front buffer", pan)
		return 0
	}
	return start
}

func (e *Engine) scan(frame []uint32) DirtyRect {
	rect := EmptyRect()
	for y := 0; y < e.geom.Height; y++ {
		off := y * e.rowWords
		src := frame[off : off+e.rowWords]
		snap := e.snapshot[off : off+e.rowWords]
		remote := e.remote[off : off+e.rowWords]

		for wx, pixel := range src {
			if pixel == snap[wx] {
				continue
			}
			snap[wx] = pixel
			remote[wx] = Convert(pixel, e.rShift, e.gShift, e.bShift)
			rect.add(wx*e.ppw, y)
		}
	}
	return rect
}

// Blank zeroes both buffers. The next tick reports every non-zero source word
// as changed.
func (e *Engine) Blank() {
	for i := range e.snapshot {
		e.snapshot[i] = 0
		e.remote[i] = 0
	}
}

// Remote is the transmission buffer, row-major, two pixels per word.
func (e *Engine) Remote() []uint32 { return e.remote }

// RemoteBytes views the transmission buffer as bytes for the protocol engine.
func (e *Engine) RemoteBytes() []byte {
	if len(e.remote) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&e.remote[0])), len(e.remote)*4)
}

// Snapshot is the last seen copy of the source frame.
func (e *Engine) Snapshot() []uint32 { return e.snapshot }

// Geometry of the source the engine was built for.
func (e *Engine) Geometry() framebuffer.Geometry { return e.geom }

// PixelsPerWord is the horizontal granularity of a DirtyRect.
func (e *Engine) PixelsPerWord() int { return e.ppw }

// Interval is the enforced minimum spacing between non-empty ticks.
func (e *Engine) Interval() time.Duration { return e.interval }
