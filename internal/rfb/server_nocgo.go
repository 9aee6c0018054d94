//go:build !cgo

package rfb

import "time"

// Server is unavailable without cgo; New always fails.
type Server struct{}

// New returns ErrCreateServer. libvncserver requires cgo.
func New(opts Options) (*Server, error) {
	return nil, ErrCreateServer
}

func (s *Server) SetFrameBuffer(buf []byte) error                    { return ErrCreateServer }
func (s *Server) FrameBuffer() []byte                                { return nil }
func (s *Server) SetKeyEventHandler(handler KeyEventHandler)         {}
func (s *Server) SetPointerEventHandler(handler PointerEventHandler) {}
func (s *Server) SetNewClientHandler(handler ClientHandler)          {}
func (s *Server) SetClientGoneHandler(handler ClientHandler)         {}
func (s *Server) Width() int                                         { return 0 }
func (s *Server) Height() int                                        { return 0 }
func (s *Server) InitServer() error                                  { return ErrCreateServer }
func (s *Server) ProcessEvents(timeout time.Duration)                {}
func (s *Server) IsActive() bool                                     { return false }
func (s *Server) ClientCount() int                                   { return 0 }
func (s *Server) HasPendingRequest() bool                            { return false }
func (s *Server) MarkRectAsModified(x1, y1, x2, y2 int)              {}
func (s *Server) Shutdown()                                          {}
func (s *Server) Close()                                             {}
