package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bnema/fbvnc/internal/logger"
)

// Refresher resends the whole screen
type Refresher interface {
	RequestRefresh()
}

// SignalHandler stops the session on SIGINT/SIGTERM and forces a full
// screen refresh on SIGUSR1.
type SignalHandler struct {
	refresher Refresher
	cancel    context.CancelFunc
	sigChan   chan os.Signal
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewSignalHandler creates a handler that calls cancel on termination signals
func NewSignalHandler(refresher Refresher, cancel context.CancelFunc) *SignalHandler {
	return &SignalHandler{
		refresher: refresher,
		cancel:    cancel,
		sigChan:   make(chan os.Signal, 1),
		stopChan:  make(chan struct{}),
	}
}

// Start begins listening for signals
func (h *SignalHandler) Start() {
	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	go h.run()
}

// Stop stops listening for signals
func (h *SignalHandler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.stopChan)
	})
}

func (h *SignalHandler) run() {
	for {
		select {
		case sig := <-h.sigChan:
			h.handle(sig)
		case <-h.stopChan:
			return
		}
	}
}

func (h *SignalHandler) handle(sig os.Signal) {
	switch sig {
	case syscall.SIGUSR1:
		logger.Info("SIGUSR1 received, refreshing screen")
		h.refresher.RequestRefresh()
	default:
		logger.Infof("Received %v, shutting down", sig)
		h.cancel()
	}
}
