// Package server runs a VNC session over the framebuffer and input devices
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bnema/fbvnc/internal/capture"
	"github.com/bnema/fbvnc/internal/config"
	"github.com/bnema/fbvnc/internal/framebuffer"
	"github.com/bnema/fbvnc/internal/input"
	"github.com/bnema/fbvnc/internal/logger"
	"github.com/bnema/fbvnc/internal/rfb"
)

// ProtocolEngine is everything a session needs from the VNC engine
type ProtocolEngine interface {
	Engine
	SetFrameBuffer(buf []byte) error
	SetKeyEventHandler(handler rfb.KeyEventHandler)
	SetPointerEventHandler(handler rfb.PointerEventHandler)
	SetNewClientHandler(handler rfb.ClientHandler)
	SetClientGoneHandler(handler rfb.ClientHandler)
	InitServer() error
	Close()
}

// Devices groups the hardware handles a session runs on
type Devices struct {
	Source   framebuffer.Source
	Keyboard input.EventSink
	Touch    input.EventSink
	Axis     input.AxisRange

	closers []io.Closer
}

// OpenDevices opens the framebuffer and both event sinks described by cfg
func OpenDevices(cfg *config.Config) (*Devices, error) {
	d := &Devices{}

	logger.Infof("Initializing framebuffer device %s ...", cfg.Framebuffer.Device)
	fb, err := framebuffer.Open(cfg.Framebuffer.Device, cfg.Framebuffer.BufferCount)
	if err != nil {
		return nil, err
	}
	d.Source = fb
	d.closers = append(d.closers, fb)
	geom := fb.Geometry()

	if cfg.Input.VirtualDevices {
		err = d.openVirtual(cfg.Input.UinputPath, geom)
	} else {
		err = d.openNodes(cfg.Input.KeyboardDevice, cfg.Input.TouchDevice)
	}
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	return d, nil
}

func (d *Devices) openNodes(keyboardPath, touchPath string) error {
	logger.Infof("Initializing keyboard device %s ...", input.DescribeDevice(keyboardPath))
	kbd, err := input.OpenDevice(keyboardPath)
	if err != nil {
		return err
	}
	d.Keyboard = kbd
	d.closers = append(d.closers, kbd)

	logger.Infof("Initializing touch device %s ...", input.DescribeDevice(touchPath))
	touch, err := input.OpenDevice(touchPath)
	if err != nil {
		return err
	}
	d.Touch = touch
	d.closers = append(d.closers, touch)

	axis, err := touch.AxisRange()
	if err != nil {
		return err
	}
	d.Axis = axis
	logger.Info("Touch range", "x_min", axis.XMin, "x_max", axis.XMax, "y_min", axis.YMin, "y_max", axis.YMax)
	return nil
}

func (d *Devices) openVirtual(uinputPath string, geom framebuffer.Geometry) error {
	// Screen pixels map one to one onto the virtual axes
	d.Axis = input.AxisRange{XMax: int32(geom.Width), YMax: int32(geom.Height)}

	logger.Infof("Creating virtual keyboard on %s ...", uinputPath)
	kbd, err := input.NewVirtualKeyboard(uinputPath)
	if err != nil {
		return err
	}
	d.Keyboard = kbd
	d.closers = append(d.closers, kbd)

	logger.Infof("Creating virtual touch device on %s ...", uinputPath)
	touch, err := input.NewVirtualTouch(uinputPath, d.Axis)
	if err != nil {
		return err
	}
	d.Touch = touch
	d.closers = append(d.closers, touch)
	return nil
}

// Close releases every opened device in reverse order
func (d *Devices) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// Session owns the capture engine, the input synthesizer and the protocol
// engine for one served screen.
type Session struct {
	devices *Devices
	capture *capture.Engine
	synth   *input.Synthesizer
	engine  ProtocolEngine
	loop    *Loop
}

// New opens the devices and the VNC engine described by cfg
func New(cfg *config.Config) (*Session, error) {
	devices, err := OpenDevices(cfg)
	if err != nil {
		return nil, err
	}

	geom := devices.Source.Geometry()
	logger.Info("Initializing VNC server",
		"width", geom.Width, "height", geom.Height,
		"bpp", geom.BitsPerPixel, "port", cfg.Server.Port)

	engine, err := rfb.New(rfb.Options{
		Width:        geom.Width,
		Height:       geom.Height,
		Port:         cfg.Server.Port,
		DesktopName:  cfg.Server.DesktopName,
		AlwaysShared: cfg.Server.AlwaysShared,
	})
	if err != nil {
		_ = devices.Close()
		return nil, fmt.Errorf("failed to create VNC server: %w", err)
	}

	s, err := NewWithEngine(cfg, devices, engine)
	if err != nil {
		engine.Close()
		_ = devices.Close()
		return nil, err
	}
	return s, nil
}

// NewWithEngine assembles a session from already opened devices and engine
func NewWithEngine(cfg *config.Config, devices *Devices, engine ProtocolEngine) (*Session, error) {
	capt, err := capture.NewEngine(devices.Source, capture.WithMaxFPS(cfg.Capture.MaxFPS))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize capture: %w", err)
	}

	loop := NewLoop(engine, capt,
		WithServeTimeout(time.Duration(cfg.Capture.ServeTimeoutMs)*time.Millisecond),
		WithIdleTimeout(time.Duration(cfg.Capture.IdleTimeoutMs)*time.Millisecond))

	geom := capt.Geometry()
	synth := input.NewSynthesizer(devices.Keyboard, devices.Touch, devices.Axis, geom.Width, geom.Height)
	synth.OnShutdown(loop.RequestShutdown)

	if err := engine.SetFrameBuffer(capt.RemoteBytes()); err != nil {
		return nil, fmt.Errorf("failed to attach frame buffer: %w", err)
	}
	engine.SetKeyEventHandler(synth.Key)
	engine.SetPointerEventHandler(synth.Pointer)
	engine.SetNewClientHandler(func(host string) {
		logger.Info("Viewer connected", "host", host)
	})
	engine.SetClientGoneHandler(func(host string) {
		logger.Info("Viewer disconnected", "host", host)
	})

	if err := engine.InitServer(); err != nil {
		return nil, fmt.Errorf("failed to start VNC server: %w", err)
	}

	// Nothing has been sent yet
	loop.MarkAll()

	return &Session{
		devices: devices,
		capture: capt,
		synth:   synth,
		engine:  engine,
		loop:    loop,
	}, nil
}

// Run serves viewers until ctx is cancelled or a viewer shuts the server down
func (s *Session) Run(ctx context.Context) error {
	return s.loop.Run(ctx)
}

// RequestRefresh resends the whole screen on the next loop iteration
func (s *Session) RequestRefresh() {
	s.loop.RequestRefresh()
}

// Loop returns the session poll loop
func (s *Session) Loop() *Loop {
	return s.loop
}

// Close stops the engine and releases the devices
func (s *Session) Close() error {
	s.engine.Close()
	return s.devices.Close()
}
