package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/fbvnc/internal/logger"
	"github.com/charmbracelet/huh"
	evdev "github.com/gvalkov/golang-evdev"
)

// DeviceType represents the type of input device
type DeviceType int

const (
	DeviceTypeKeyboard DeviceType = iota
	DeviceTypeTouch
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeKeyboard:
		return "keyboard"
	case DeviceTypeTouch:
		return "touch"
	default:
		return "unknown"
	}
}

// DeviceInfo represents information about an input device
type DeviceInfo struct {
	Path        string
	Name        string
	Symlink     string
	Descriptive string
}

// DeviceSelector provides interactive device selection using huh
type DeviceSelector struct {
	pattern string
}

// NewDeviceSelector creates a new device selector
func NewDeviceSelector() *DeviceSelector {
	return &DeviceSelector{pattern: "/dev/input/event*"}
}

// SelectKeyboardDevice presents an interactive selection for keyboard devices
func (s *DeviceSelector) SelectKeyboardDevice() (string, error) {
	return s.selectDevice(DeviceTypeKeyboard, "Select Keyboard Device",
		"Choose the device that receives remote key presses")
}

// SelectTouchDevice presents an interactive selection for touch screens
func (s *DeviceSelector) SelectTouchDevice() (string, error) {
	return s.selectDevice(DeviceTypeTouch, "Select Touch Device",
		"Choose the touch screen that receives remote pointer events")
}

func (s *DeviceSelector) selectDevice(deviceType DeviceType, title, description string) (string, error) {
	devices, err := s.ListDevices(deviceType)
	if err != nil {
		return "", err
	}

	if len(devices) == 0 {
		return "", fmt.Errorf("no %s devices found", deviceType)
	}

	// If only one device, use it automatically
	if len(devices) == 1 {
		logger.Infof("Auto-selected %s device: %s", deviceType, devices[0].Descriptive)
		return devices[0].Path, nil
	}

	options := make([]huh.Option[string], len(devices))
	for i, dev := range devices {
		options[i] = huh.NewOption(dev.Descriptive, dev.Path)
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Description(description).
				Options(options...).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("device selection cancelled: %w", err)
	}

	return selected, nil
}

// ListDevices lists available input devices of the specified type
func (s *DeviceSelector) ListDevices(deviceType DeviceType) ([]DeviceInfo, error) {
	evdevices, err := evdev.ListInputDevices(s.pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}

	var devices []DeviceInfo
	for _, dev := range evdevices {
		if !isDeviceType(dev.Name, dev.CapabilitiesFlat, deviceType) {
			continue
		}

		info := DeviceInfo{
			Path:    dev.Fn,
			Name:    dev.Name,
			Symlink: findSymlink(dev.Fn),
		}
		info.Descriptive = describe(info)
		devices = append(devices, info)
	}

	return devices, nil
}

// DescribeDevice returns a human readable name for a device node, falling
// back to the path when the node cannot be queried.
func DescribeDevice(path string) string {
	dev, err := evdev.Open(path)
	if err != nil {
		return path
	}
	defer func() {
		if err := dev.File.Close(); err != nil {
			logger.Debugf("Failed to close %s: %v", path, err)
		}
	}()
	return describe(DeviceInfo{Path: path, Name: dev.Name, Symlink: findSymlink(path)})
}

// CheckDevice opens a device node and verifies it has the capabilities of
// deviceType.
func CheckDevice(path string, deviceType DeviceType) error {
	dev, err := evdev.Open(path)
	if err != nil {
		return fmt.Errorf("cannot access %s device %s: %w", deviceType, path, err)
	}
	defer func() {
		if err := dev.File.Close(); err != nil {
			logger.Debugf("Failed to close %s: %v", path, err)
		}
	}()

	if !isDeviceType(dev.Name, dev.CapabilitiesFlat, deviceType) {
		return fmt.Errorf("%s lacks %s capabilities: %w", path, deviceType, ErrWrongDeviceType)
	}
	return nil
}

func describe(info DeviceInfo) string {
	if info.Symlink != "" {
		return fmt.Sprintf("%s (%s → %s)", info.Name, info.Symlink, info.Path)
	}
	return fmt.Sprintf("%s (%s)", info.Name, info.Path)
}

// isDeviceType checks capabilities keyed by event type
func isDeviceType(name string, caps map[int][]int, deviceType DeviceType) bool {
	if caps == nil {
		return false
	}

	switch deviceType {
	case DeviceTypeTouch:
		// Multi-touch position axes
		hasX, hasY := false, false
		for _, axis := range caps[evdev.EV_ABS] {
			if axis == evdev.ABS_MT_POSITION_X {
				hasX = true
			}
			if axis == evdev.ABS_MT_POSITION_Y {
				hasY = true
			}
		}
		return hasX && hasY

	case DeviceTypeKeyboard:
		// Skip devices that are likely power buttons or other special devices
		nameLower := strings.ToLower(name)
		if strings.Contains(nameLower, "power") ||
			strings.Contains(nameLower, "video") ||
			strings.Contains(nameLower, "sleep") {
			return false
		}

		// Check for the keys remote input is mapped onto
		for _, key := range caps[evdev.EV_KEY] {
			if (key >= evdev.KEY_A && key <= evdev.KEY_Z) || key == evdev.KEY_BACK || key == evdev.KEY_HOME {
				return true
			}
		}
		return false

	default:
		return false
	}
}

// findSymlink finds the symlink for a device path in /dev/input/by-id or /dev/input/by-path
func findSymlink(devicePath string) string {
	if symlink := findSymlinkInDir(devicePath, "/dev/input/by-id"); symlink != "" {
		return symlink
	}
	return findSymlinkInDir(devicePath, "/dev/input/by-path")
}

// findSymlinkInDir finds a symlink pointing to devicePath in the given directory
func findSymlinkInDir(devicePath, dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}

		fullPath := filepath.Join(dir, entry.Name())
		target, err := os.Readlink(fullPath)
		if err != nil {
			continue
		}

		// Resolve relative paths
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		if filepath.Clean(target) == devicePath {
			return fullPath
		}
	}

	return ""
}
