//go:build cgo

package rfb

/*
#cgo LDFLAGS: -lvncserver
#include <rfb/rfb.h>
#include <rfb/rfbregion.h>
#include <stdlib.h>

extern void goKeyEventCallback(rfbBool down, rfbKeySym key, rfbClientPtr cl);
extern void goPointerEventCallback(int buttonMask, int x, int y, rfbClientPtr cl);
extern enum rfbNewClientAction goNewClientCallback(rfbClientPtr cl);
extern void goClientGoneCallback(rfbClientPtr cl);

static inline void setEventCallbacks(rfbScreenInfoPtr screen) {
    screen->kbdAddEvent = goKeyEventCallback;
    screen->ptrAddEvent = goPointerEventCallback;
    screen->newClientHook = goNewClientCallback;
}

static inline void setClientGoneHook(rfbClientPtr cl) {
    cl->clientGoneHook = goClientGoneCallback;
}

static inline void setFrameBuffer(rfbScreenInfoPtr screen, void* buf) {
    screen->frameBuffer = (char*)buf;
}

static inline int clientCount(rfbScreenInfoPtr screen) {
    int count = 0;
    rfbClientPtr cl;
    for (cl = screen->clientHead; cl != NULL; cl = cl->next) {
        count++;
    }
    return count;
}

static inline int hasPendingRequest(rfbScreenInfoPtr screen) {
    rfbClientIteratorPtr it = rfbGetClientIterator(screen);
    rfbClientPtr cl;
    int pending = 0;
    while ((cl = rfbClientIteratorNext(it)) != NULL) {
        if (!sraRgnEmpty(cl->requestedRegion)) {
            pending = 1;
            break;
        }
    }
    rfbReleaseClientIterator(it);
    return pending;
}
*/
import "C"
import (
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"
)

var (
	serverHandlers = make(map[uintptr]*Server)
	serverMutex    sync.RWMutex
)

func serverFor(cl C.rfbClientPtr) *Server {
	if cl == nil {
		return nil
	}
	serverMutex.RLock()
	defer serverMutex.RUnlock()
	return serverHandlers[uintptr(unsafe.Pointer(cl.screen))]
}

func clientHost(cl C.rfbClientPtr) string {
	if cl.host == nil {
		return ""
	}
	return C.GoString(cl.host)
}

//export goKeyEventCallback
func goKeyEventCallback(down C.rfbBool, key C.rfbKeySym, cl C.rfbClientPtr) {
	if srv := serverFor(cl); srv != nil && srv.keyEventHandler != nil {
		srv.keyEventHandler(down != 0, uint32(key))
	}
}

//export goPointerEventCallback
func goPointerEventCallback(buttonMask C.int, x C.int, y C.int, cl C.rfbClientPtr) {
	if srv := serverFor(cl); srv != nil && srv.pointerEventHandler != nil {
		srv.pointerEventHandler(uint8(buttonMask), int(x), int(y))
	}
}

//export goNewClientCallback
func goNewClientCallback(cl C.rfbClientPtr) C.enum_rfbNewClientAction {
	C.setClientGoneHook(cl)
	if srv := serverFor(cl); srv != nil && srv.newClientHandler != nil {
		srv.newClientHandler(clientHost(cl))
	}
	return C.RFB_CLIENT_ACCEPT
}

//export goClientGoneCallback
func goClientGoneCallback(cl C.rfbClientPtr) {
	if srv := serverFor(cl); srv != nil && srv.clientGoneHandler != nil {
		srv.clientGoneHandler(clientHost(cl))
	}
}

// Server is a libvncserver screen. All methods must be called from the
// goroutine that pumps ProcessEvents; handlers run inside that pump.
type Server struct {
	rfbScreen *C.rfbScreenInfo
	opts      Options

	frameBuffer []byte
	pinner      runtime.Pinner

	desktopName *C.char

	keyEventHandler     KeyEventHandler
	pointerEventHandler PointerEventHandler
	newClientHandler    ClientHandler
	clientGoneHandler   ClientHandler
}

// New allocates a screen for opts. The server does not listen until
// InitServer.
func New(opts Options) (*Server, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f := opts.Format
	bitsPerSample := f.Depth / 3
	screen := C.rfbGetScreen(nil, nil, C.int(opts.Width), C.int(opts.Height),
		C.int(bitsPerSample), 3, C.int(f.BytesPerPixel()))
	if screen == nil {
		return nil, ErrCreateServer
	}

	s := &Server{
		rfbScreen: screen,
		opts:      opts,
	}
	s.setPixelFormat(f)

	s.desktopName = C.CString(opts.DesktopName)
	screen.desktopName = s.desktopName
	screen.port = C.int(opts.Port)
	screen.ipv6port = C.int(opts.Port)
	if opts.AlwaysShared {
		screen.alwaysShared = 1
	} else {
		screen.alwaysShared = 0
	}

	serverMutex.Lock()
	serverHandlers[uintptr(unsafe.Pointer(screen))] = s
	serverMutex.Unlock()

	C.setEventCallbacks(screen)

	return s, nil
}

func (s *Server) setPixelFormat(format PixelFormat) {
	s.rfbScreen.serverFormat.bitsPerPixel = C.uchar(format.BitsPerPixel)
	s.rfbScreen.serverFormat.depth = C.uchar(format.Depth)
	if format.BigEndian {
		s.rfbScreen.serverFormat.bigEndian = 1
	} else {
		s.rfbScreen.serverFormat.bigEndian = 0
	}
	if format.TrueColour {
		s.rfbScreen.serverFormat.trueColour = 1
	} else {
		s.rfbScreen.serverFormat.trueColour = 0
	}
	s.rfbScreen.serverFormat.redMax = C.ushort(format.RedMax)
	s.rfbScreen.serverFormat.greenMax = C.ushort(format.GreenMax)
	s.rfbScreen.serverFormat.blueMax = C.ushort(format.BlueMax)
	s.rfbScreen.serverFormat.redShift = C.uchar(format.RedShift)
	s.rfbScreen.serverFormat.greenShift = C.uchar(format.GreenShift)
	s.rfbScreen.serverFormat.blueShift = C.uchar(format.BlueShift)
}

// SetFrameBuffer points the screen at buf. The slice stays pinned until it
// is replaced or the server is closed, so the caller may keep writing to it.
func (s *Server) SetFrameBuffer(buf []byte) error {
	if len(buf) != s.opts.FrameBufferSize() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBufferSize, len(buf), s.opts.FrameBufferSize())
	}

	s.pinner.Unpin()
	s.pinner.Pin(&buf[0])
	s.frameBuffer = buf
	C.setFrameBuffer(s.rfbScreen, unsafe.Pointer(&buf[0]))
	return nil
}

// FrameBuffer returns the buffer handed to SetFrameBuffer
func (s *Server) FrameBuffer() []byte {
	return s.frameBuffer
}

func (s *Server) SetKeyEventHandler(handler KeyEventHandler) {
	s.keyEventHandler = handler
}

func (s *Server) SetPointerEventHandler(handler PointerEventHandler) {
	s.pointerEventHandler = handler
}

func (s *Server) SetNewClientHandler(handler ClientHandler) {
	s.newClientHandler = handler
}

func (s *Server) SetClientGoneHandler(handler ClientHandler) {
	s.clientGoneHandler = handler
}

func (s *Server) Width() int {
	return s.opts.Width
}

func (s *Server) Height() int {
	return s.opts.Height
}

// InitServer opens the listening sockets
func (s *Server) InitServer() error {
	if s.frameBuffer == nil {
		return fmt.Errorf("frame buffer not set")
	}
	C.rfbInitServer(s.rfbScreen)
	if s.rfbScreen.listenSock < 0 && s.rfbScreen.listen6Sock < 0 {
		return fmt.Errorf("failed to listen on port %d", s.opts.Port)
	}
	return nil
}

// ProcessEvents pumps the engine, waiting up to timeout for socket activity
func (s *Server) ProcessEvents(timeout time.Duration) {
	C.rfbProcessEvents(s.rfbScreen, C.long(timeout.Microseconds()))
}

// IsActive reports false once the server has been shut down and every
// client is gone.
func (s *Server) IsActive() bool {
	return C.rfbIsActive(s.rfbScreen) != 0
}

func (s *Server) ClientCount() int {
	return int(C.clientCount(s.rfbScreen))
}

// HasPendingRequest reports whether any client is waiting for an update
func (s *Server) HasPendingRequest() bool {
	return C.hasPendingRequest(s.rfbScreen) != 0
}

// MarkRectAsModified queues [x1,x2) x [y1,y2) for delivery
func (s *Server) MarkRectAsModified(x1, y1, x2, y2 int) {
	C.rfbMarkRectAsModified(s.rfbScreen, C.int(x1), C.int(y1), C.int(x2), C.int(y2))
}

// Shutdown closes the listening sockets and disconnects every client
func (s *Server) Shutdown() {
	C.rfbShutdownServer(s.rfbScreen, 1)
}

// Close releases the screen. It must not be called from a handler.
func (s *Server) Close() {
	if s.rfbScreen == nil {
		return
	}

	serverMutex.Lock()
	delete(serverHandlers, uintptr(unsafe.Pointer(s.rfbScreen)))
	serverMutex.Unlock()

	C.rfbScreenCleanup(s.rfbScreen)
	s.rfbScreen = nil

	s.pinner.Unpin()
	s.frameBuffer = nil

	if s.desktopName != nil {
		C.free(unsafe.Pointer(s.desktopName))
		s.desktopName = nil
	}
}
