//go:build linux

package framebuffer

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/bnema/fbvnc/internal/logger"
	"golang.org/x/sys/unix"
)

// FBIOGET_VSCREENINFO from linux/fb.h
const fbioGetVScreenInfo = 0x4600

type fbBitfield struct {
	Offset   uint32
	Length   uint32
	MsbRight uint32
}

// varScreenInfo mirrors struct fb_var_screeninfo.
type varScreenInfo struct {
	XRes         uint32
	YRes         uint32
	XResVirtual  uint32
	YResVirtual  uint32
	XOffset      uint32
	YOffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	Red          fbBitfield
	Green        fbBitfield
	Blue         fbBitfield
	Transp       fbBitfield
	Nonstd       uint32
	Activate     uint32
	Height       uint32
	Width        uint32
	AccelFlags   uint32
	Pixclock     uint32
	LeftMargin   uint32
	RightMargin  uint32
	UpperMargin  uint32
	LowerMargin  uint32
	HsyncLen     uint32
	VsyncLen     uint32
	Sync         uint32
	Vmode        uint32
	Rotate       uint32
	Colorspace   uint32
	Reserved     [4]uint32
}

// Device is a memory-mapped fbdev node.
type Device struct {
	file    *os.File
	mem     []byte
	words   []uint32
	geom    Geometry
	buffers int
}

// Open maps bufferCount frames of the framebuffer read-only. A bufferCount
// of zero derives the count from the virtual height.
func Open(path string, bufferCount int) (*Device, error) {
	file, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open framebuffer %s: %w", path, err)
	}

	info, err := readVScreenInfo(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to query framebuffer %s: %w", path, err)
	}

	geom := geometryFromInfo(info)
	logger.Infof("xres=%d, yres=%d, xresv=%d, yresv=%d, xoffs=%d, yoffs=%d, bpp=%d",
		geom.Width, geom.Height, geom.VirtualWidth, geom.VirtualHeight,
		geom.XOffset, geom.YOffset, geom.BitsPerPixel)

	if err := geom.Validate(); err != nil {
		file.Close()
		return nil, err
	}

	if bufferCount == 0 {
		bufferCount = max(geom.VirtualHeight/geom.Height, 1)
	}

	frameBytes := geom.Width * geom.Height * geom.BytesPerPixel()
	mem, err := unix.Mmap(int(file.Fd()), 0, bufferCount*frameBytes, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil && bufferCount > 1 {
		logger.Warnf("Mapping %d framebuffers failed (%v), falling back to the front buffer", bufferCount, err)
		bufferCount = 1
		mem, err = unix.Mmap(int(file.Fd()), 0, frameBytes, unix.PROT_READ, unix.MAP_SHARED)
	}
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap framebuffer %s: %w", path, err)
	}

	return &Device{
		file:    file,
		mem:     mem,
		words:   unsafe.Slice((*uint32)(unsafe.Pointer(&mem[0])), len(mem)/4),
		geom:    geom,
		buffers: bufferCount,
	}, nil
}

func (d *Device) Geometry() Geometry { return d.geom }
func (d *Device) Words() []uint32    { return d.words }

// Buffers is the number of frames actually mapped.
func (d *Device) Buffers() int { return d.buffers }

// PanOffset re-reads the variable screen info for the current yoffset.
func (d *Device) PanOffset() (int, error) {
	info, err := readVScreenInfo(d.file)
	if err != nil {
		return 0, err
	}
	return int(info.YOffset), nil
}

func (d *Device) Close() error {
	var err error
	if d.mem != nil {
		err = unix.Munmap(d.mem)
		d.mem = nil
		d.words = nil
	}
	if e := d.file.Close(); e != nil && err == nil {
		err = e
	}
	return err
}

func readVScreenInfo(file *os.File) (*varScreenInfo, error) {
	var info varScreenInfo
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL,
		file.Fd(),
		fbioGetVScreenInfo,
		uintptr(unsafe.Pointer(&info))); errno != 0 {
		return nil, errno
	}
	return &info, nil
}

func geometryFromInfo(info *varScreenInfo) Geometry {
	return Geometry{
		Width:         int(info.XRes),
		Height:        int(info.YRes),
		VirtualWidth:  int(info.XResVirtual),
		VirtualHeight: int(info.YResVirtual),
		XOffset:       int(info.XOffset),
		YOffset:       int(info.YOffset),
		BitsPerPixel:  int(info.BitsPerPixel),
		Red:           Bitfield{Offset: info.Red.Offset, Length: info.Red.Length},
		Green:         Bitfield{Offset: info.Green.Offset, Length: info.Green.Length},
		Blue:          Bitfield{Offset: info.Blue.Offset, Length: info.Blue.Length},
	}
}
