package server

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/bnema/fbvnc/internal/capture"
	"github.com/bnema/fbvnc/internal/framebuffer"
	"github.com/bnema/fbvnc/internal/rfb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine is a scripted protocol engine. onPump runs inside every
// ProcessEvents call, where the real engine would dispatch callbacks.
type fakeEngine struct {
	clients int
	pending bool
	active  bool

	pumps     []time.Duration
	marks     []image.Rectangle
	shutdowns int
	onPump    func(f *fakeEngine)

	frameBuffer []byte
	fbErr       error
	initErr     error
	initialized bool
	closed      bool

	key       rfb.KeyEventHandler
	pointer   rfb.PointerEventHandler
	newClient rfb.ClientHandler
	gone      rfb.ClientHandler
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{active: true}
}

func (f *fakeEngine) ClientCount() int        { return f.clients }
func (f *fakeEngine) HasPendingRequest() bool { return f.pending }
func (f *fakeEngine) IsActive() bool          { return f.active }

func (f *fakeEngine) MarkRectAsModified(x1, y1, x2, y2 int) {
	f.marks = append(f.marks, image.Rect(x1, y1, x2, y2))
}

func (f *fakeEngine) ProcessEvents(timeout time.Duration) {
	f.pumps = append(f.pumps, timeout)
	if f.onPump != nil {
		f.onPump(f)
	}
}

func (f *fakeEngine) Shutdown() {
	f.shutdowns++
	f.active = false
	f.clients = 0
}

func (f *fakeEngine) SetFrameBuffer(buf []byte) error {
	if f.fbErr != nil {
		return f.fbErr
	}
	f.frameBuffer = buf
	return nil
}

func (f *fakeEngine) SetKeyEventHandler(handler rfb.KeyEventHandler)         { f.key = handler }
func (f *fakeEngine) SetPointerEventHandler(handler rfb.PointerEventHandler) { f.pointer = handler }
func (f *fakeEngine) SetNewClientHandler(handler rfb.ClientHandler)          { f.newClient = handler }
func (f *fakeEngine) SetClientGoneHandler(handler rfb.ClientHandler)         { f.gone = handler }

func (f *fakeEngine) InitServer() error {
	if f.initErr != nil {
		return f.initErr
	}
	f.initialized = true
	return nil
}

func (f *fakeEngine) Close() { f.closed = true }

func newTestLoop(t *testing.T) (*Loop, *fakeEngine, *framebuffer.MemorySource, *capture.Engine) {
	t.Helper()
	src := framebuffer.NewMemorySource(framebuffer.RGB565(8, 4, 2), 2)
	// Every reading is a second later, so the rate limit never applies
	now := time.Unix(1700000000, 0)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	capt, err := capture.NewEngine(src, capture.WithMaxFPS(5), capture.WithClock(clock))
	require.NoError(t, err)
	engine := newFakeEngine()
	loop := NewLoop(engine, capt,
		WithServeTimeout(100*time.Millisecond),
		WithIdleTimeout(time.Second))
	return loop, engine, src, capt
}

func TestLoop_WaitsForClient(t *testing.T) {
	loop, engine, _, _ := newTestLoop(t)

	loop.step()
	assert.Equal(t, StateWaitingForClient, loop.State())
	assert.Equal(t, []time.Duration{time.Second}, engine.pumps)

	engine.clients = 1
	loop.step()
	assert.Equal(t, StateServing, loop.State())
	assert.Empty(t, engine.marks)
}

func TestLoop_ServingPushesChangedRect(t *testing.T) {
	loop, engine, src, capt := newTestLoop(t)
	loop.state = StateServing
	engine.clients = 1
	engine.pending = true

	src.SetWord(0, 2, 1, 0xF800F800)
	loop.step()

	assert.Equal(t, []time.Duration{100 * time.Millisecond, flushTimeout}, engine.pumps)
	assert.Equal(t, []image.Rectangle{image.Rect(4, 1, 6, 2)}, engine.marks)
	assert.Equal(t, uint32(0x7C007C00), capt.Remote()[1*4+2])
}

func TestLoop_NoRequestNoCapture(t *testing.T) {
	loop, engine, src, capt := newTestLoop(t)
	loop.state = StateServing
	engine.clients = 1

	src.SetWord(0, 0, 0, 0xFFFFFFFF)
	loop.step()

	assert.Len(t, engine.pumps, 1)
	assert.Empty(t, engine.marks)
	assert.Zero(t, capt.Remote()[0])
}

func TestLoop_UnchangedFrameNoFlush(t *testing.T) {
	loop, engine, _, _ := newTestLoop(t)
	loop.state = StateServing
	engine.clients = 1
	engine.pending = true

	loop.step()

	assert.Len(t, engine.pumps, 1)
	assert.Empty(t, engine.marks)
}

func TestLoop_BlankOnLastDisconnect(t *testing.T) {
	loop, engine, src, capt := newTestLoop(t)
	loop.state = StateServing
	engine.clients = 1
	engine.pending = true

	src.SetWord(0, 0, 0, 0xFFFFFFFF)
	loop.step()
	require.NotZero(t, capt.Remote()[0])

	engine.clients = 0
	loop.step()

	assert.Equal(t, StateWaitingForClient, loop.State())
	for i, w := range capt.Remote() {
		assert.Zero(t, w, "remote word %d", i)
	}
	for i, w := range capt.Snapshot() {
		assert.Zero(t, w, "snapshot word %d", i)
	}

	// A new viewer sees the unchanged source as changed again
	engine.clients = 1
	loop.step()
	loop.step()
	assert.Equal(t, image.Rect(0, 0, 2, 1), engine.marks[len(engine.marks)-1])
}

func TestLoop_RunContextCancelled(t *testing.T) {
	loop, engine, _, _ := newTestLoop(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, loop.Run(ctx))
	assert.Empty(t, engine.pumps)

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	engine.onPump = func(f *fakeEngine) {
		if len(f.pumps) == 3 {
			cancel()
		}
	}
	assert.NoError(t, loop.Run(ctx))
	assert.Len(t, engine.pumps, 3)
}

func TestLoop_RunEngineInactive(t *testing.T) {
	loop, engine, _, _ := newTestLoop(t)
	engine.active = false

	err := loop.Run(context.Background())
	assert.ErrorIs(t, err, ErrShutdown)
	assert.Empty(t, engine.pumps)
}

func TestLoop_RequestShutdownAfterPump(t *testing.T) {
	loop, engine, _, _ := newTestLoop(t)

	engine.onPump = func(f *fakeEngine) {
		// Shutdown must not happen inside the pump
		assert.Zero(t, f.shutdowns)
		loop.RequestShutdown()
	}

	err := loop.Run(context.Background())
	assert.True(t, errors.Is(err, ErrShutdown))
	assert.Equal(t, 1, engine.shutdowns)
	assert.Len(t, engine.pumps, 1)
}

func TestLoop_RequestRefresh(t *testing.T) {
	loop, engine, _, _ := newTestLoop(t)

	loop.RequestRefresh()
	loop.RequestRefresh()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.onPump = func(f *fakeEngine) {
		if len(f.pumps) == 2 {
			cancel()
		}
	}
	require.NoError(t, loop.Run(ctx))

	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 8, 4)}, engine.marks)
}

func TestLoopOptions(t *testing.T) {
	src := framebuffer.NewMemorySource(framebuffer.RGB565(8, 4, 1), 1)
	capt, err := capture.NewEngine(src)
	require.NoError(t, err)

	loop := NewLoop(newFakeEngine(), capt)
	assert.Equal(t, DefaultServeTimeout, loop.serveTimeout)
	assert.Equal(t, DefaultIdleTimeout, loop.idleTimeout)

	loop = NewLoop(newFakeEngine(), capt, WithServeTimeout(0), WithIdleTimeout(-1))
	assert.Equal(t, DefaultServeTimeout, loop.serveTimeout)
	assert.Equal(t, DefaultIdleTimeout, loop.idleTimeout)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "waiting", StateWaitingForClient.String())
	assert.Equal(t, "serving", StateServing.String())
	assert.Equal(t, "unknown", State(7).String())
}
