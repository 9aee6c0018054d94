package server

import (
	"context"
	"errors"
	"time"

	"github.com/bnema/fbvnc/internal/capture"
	"github.com/bnema/fbvnc/internal/logger"
)

// ErrShutdown is returned by Run once the protocol engine has stopped,
// normally because a viewer sent the shutdown key.
var ErrShutdown = errors.New("server shut down")

const (
	DefaultServeTimeout = 100 * time.Millisecond
	DefaultIdleTimeout  = time.Second
	// flushTimeout is the short pump that pushes a freshly marked rectangle
	flushTimeout = 10 * time.Millisecond
)

// Engine is the part of the protocol engine the poll loop drives
type Engine interface {
	ClientCount() int
	HasPendingRequest() bool
	MarkRectAsModified(x1, y1, x2, y2 int)
	ProcessEvents(timeout time.Duration)
	IsActive() bool
	Shutdown()
}

// State is the poll loop state
type State int

const (
	StateWaitingForClient State = iota
	StateServing
)

func (s State) String() string {
	switch s {
	case StateWaitingForClient:
		return "waiting"
	case StateServing:
		return "serving"
	default:
		return "unknown"
	}
}

// Loop alternates between pumping the protocol engine and capturing frames.
// It runs on a single goroutine; engine callbacks fire inside its pumps.
type Loop struct {
	engine  Engine
	capture *capture.Engine

	serveTimeout time.Duration
	idleTimeout  time.Duration

	state    State
	refresh  chan struct{}
	shutdown bool
}

// LoopOption configures a Loop
type LoopOption func(*Loop)

// WithServeTimeout sets the pump timeout while a viewer is connected
func WithServeTimeout(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.serveTimeout = d
		}
	}
}

// WithIdleTimeout sets the pump timeout while waiting for a viewer
func WithIdleTimeout(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.idleTimeout = d
		}
	}
}

// NewLoop creates a loop in the WaitingForClient state
func NewLoop(engine Engine, capt *capture.Engine, opts ...LoopOption) *Loop {
	l := &Loop{
		engine:       engine,
		capture:      capt,
		serveTimeout: DefaultServeTimeout,
		idleTimeout:  DefaultIdleTimeout,
		state:        StateWaitingForClient,
		refresh:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current loop state
func (l *Loop) State() State {
	return l.state
}

// RequestRefresh asks the loop to resend the whole screen. Safe to call from
// any goroutine.
func (l *Loop) RequestRefresh() {
	select {
	case l.refresh <- struct{}{}:
	default:
	}
}

// RequestShutdown stops the engine once the current pump returns. Engine
// callbacks use it since the engine cannot be shut down from inside a pump.
func (l *Loop) RequestShutdown() {
	l.shutdown = true
}

// MarkAll marks the whole screen as modified
func (l *Loop) MarkAll() {
	geom := l.capture.Geometry()
	l.engine.MarkRectAsModified(0, 0, geom.Width, geom.Height)
}

// Run pumps until ctx is cancelled, returning nil, or the engine stops,
// returning ErrShutdown.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			logger.Info("Stopping poll loop")
			return nil
		}
		if !l.engine.IsActive() {
			return ErrShutdown
		}

		select {
		case <-l.refresh:
			logger.Info("Full screen refresh requested")
			l.MarkAll()
		default:
		}

		l.step()

		if l.shutdown {
			logger.Info("Shutting down VNC server")
			l.shutdown = false
			l.engine.Shutdown()
		}
	}
}

// step runs one pump of the state machine
func (l *Loop) step() {
	switch l.state {
	case StateWaitingForClient:
		l.engine.ProcessEvents(l.idleTimeout)
		if l.engine.ClientCount() > 0 {
			logger.Info("Viewer connected, serving")
			l.state = StateServing
		}

	case StateServing:
		l.engine.ProcessEvents(l.serveTimeout)
		if l.engine.ClientCount() == 0 {
			logger.Info("All viewers disconnected, waiting")
			l.capture.Blank()
			l.state = StateWaitingForClient
			return
		}
		if l.engine.HasPendingRequest() {
			l.update()
		}
	}
}

// update captures one frame and pushes the changed region
func (l *Loop) update() {
	r := l.capture.Tick()
	if r.Empty() {
		return
	}
	b := r.Bounds(l.capture.PixelsPerWord())
	l.engine.MarkRectAsModified(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
	l.engine.ProcessEvents(flushTimeout)
}
