//go:build linux

package framebuffer

import (
	"os"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarScreenInfoLayout(t *testing.T) {
	// struct fb_var_screeninfo is 160 bytes on every Linux ABI
	assert.Equal(t, uintptr(160), unsafe.Sizeof(varScreenInfo{}))
}

func TestGeometryFromInfo(t *testing.T) {
	info := &varScreenInfo{
		XRes: 480, YRes: 800, XResVirtual: 480, YResVirtual: 1600,
		YOffset: 800, BitsPerPixel: 16,
		Red:   fbBitfield{Offset: 11, Length: 5},
		Green: fbBitfield{Offset: 5, Length: 6},
		Blue:  fbBitfield{Offset: 0, Length: 5},
	}

	g := geometryFromInfo(info)
	assert.Equal(t, RGB565(480, 800, 2).VirtualHeight, g.VirtualHeight)
	assert.Equal(t, 800, g.YOffset)
	assert.NoError(t, g.Validate())
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open("/nonexistent/fb0", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open framebuffer")
}

func TestOpenDevice_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	path := "/dev/fb0"
	if _, err := os.Stat(path); err != nil {
		t.Skipf("%s not available: %v", path, err)
	}

	dev, err := Open(path, 0)
	if err != nil {
		t.Skipf("Cannot open %s: %v", path, err)
	}
	defer dev.Close()

	g := dev.Geometry()
	assert.GreaterOrEqual(t, len(dev.Words()), g.FrameWords())
	_, err = dev.PanOffset()
	assert.NoError(t, err)
}
