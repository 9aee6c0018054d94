package setup

import (
	"errors"
	"testing"

	"github.com/bnema/fbvnc/internal/config"
	"github.com/bnema/fbvnc/internal/input"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSelector struct {
	keyboard    string
	touch       string
	err         error
	keyboardHit int
	touchHit    int
}

func (f *fakeSelector) SelectKeyboardDevice() (string, error) {
	f.keyboardHit++
	return f.keyboard, f.err
}

func (f *fakeSelector) SelectTouchDevice() (string, error) {
	f.touchHit++
	return f.touch, f.err
}

// newTestSetup accepts only the paths in valid
func newTestSetup(t *testing.T, sel *fakeSelector, valid map[string]bool) (*DeviceSetup, *int) {
	t.Helper()
	viper.Reset()
	c := config.DefaultConfig
	config.Set(&c)
	t.Cleanup(func() {
		viper.Reset()
		config.Set(nil)
	})

	saves := 0
	ds := &DeviceSetup{
		selector: sel,
		check: func(path string, deviceType input.DeviceType) error {
			if valid[path] {
				return nil
			}
			return input.ErrWrongDeviceType
		},
		save: func() error {
			saves++
			return nil
		},
	}
	return ds, &saves
}

func TestValidateDevices(t *testing.T) {
	ds, _ := newTestSetup(t, &fakeSelector{}, map[string]bool{
		"/dev/input/event0": true,
		"/dev/input/event1": true,
	})
	assert.NoError(t, ds.ValidateDevices())

	ds, _ = newTestSetup(t, &fakeSelector{}, map[string]bool{"/dev/input/event0": true})
	assert.ErrorIs(t, ds.ValidateDevices(), input.ErrWrongDeviceType)
}

func TestRunInteractiveSetup_VirtualSkips(t *testing.T) {
	sel := &fakeSelector{}
	ds, saves := newTestSetup(t, sel, nil)
	config.Get().Input.VirtualDevices = true

	require.NoError(t, ds.RunInteractiveSetup())
	assert.Zero(t, sel.keyboardHit+sel.touchHit)
	assert.Zero(t, *saves)
}

func TestRunInteractiveSetup_AlreadyValid(t *testing.T) {
	sel := &fakeSelector{}
	ds, saves := newTestSetup(t, sel, map[string]bool{
		"/dev/input/event0": true,
		"/dev/input/event1": true,
	})

	require.NoError(t, ds.RunInteractiveSetup())
	assert.Zero(t, sel.keyboardHit+sel.touchHit)
	assert.Zero(t, *saves)
}

func TestRunInteractiveSetup_SelectsInvalidOnly(t *testing.T) {
	sel := &fakeSelector{touch: "/dev/input/event5"}
	ds, saves := newTestSetup(t, sel, map[string]bool{"/dev/input/event0": true})
	if !ds.hasInputPermission() {
		t.Skip("No access to input devices")
	}

	require.NoError(t, ds.RunInteractiveSetup())
	assert.Zero(t, sel.keyboardHit)
	assert.Equal(t, 1, sel.touchHit)
	assert.Equal(t, 1, *saves)

	c := config.Get()
	assert.Equal(t, "/dev/input/event0", c.Input.KeyboardDevice)
	assert.Equal(t, "/dev/input/event5", c.Input.TouchDevice)
	assert.Equal(t, "/dev/input/event5", viper.GetString("input.touch_device"))
}

func TestReselect(t *testing.T) {
	sel := &fakeSelector{keyboard: "/dev/input/event2", touch: "/dev/input/event3"}
	ds, saves := newTestSetup(t, sel, nil)

	require.NoError(t, ds.Reselect())
	assert.Equal(t, 1, *saves)
	assert.Equal(t, "/dev/input/event2", config.Get().Input.KeyboardDevice)
	assert.Equal(t, "/dev/input/event3", config.Get().Input.TouchDevice)
}

func TestReselect_SelectionError(t *testing.T) {
	sel := &fakeSelector{err: errors.New("cancelled")}
	ds, saves := newTestSetup(t, sel, nil)

	err := ds.Reselect()
	assert.ErrorContains(t, err, "keyboard selection failed")
	assert.Zero(t, *saves)
	assert.Equal(t, config.DefaultConfig.Input.KeyboardDevice, config.Get().Input.KeyboardDevice)
}
