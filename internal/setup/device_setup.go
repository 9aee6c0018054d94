// Package setup handles interactive selection of the keyboard and touch nodes
package setup

import (
	"fmt"
	"os"

	"github.com/bnema/fbvnc/internal/config"
	"github.com/bnema/fbvnc/internal/input"
	"github.com/bnema/fbvnc/internal/logger"
	"github.com/charmbracelet/huh"
)

// Selector picks a device node for each sink
type Selector interface {
	SelectKeyboardDevice() (string, error)
	SelectTouchDevice() (string, error)
}

// DeviceSetup handles interactive device selection and configuration
type DeviceSetup struct {
	selector Selector
	check    func(path string, deviceType input.DeviceType) error
	save     func() error
}

// NewDeviceSetup creates a new device setup handler
func NewDeviceSetup() *DeviceSetup {
	return &DeviceSetup{
		selector: input.NewDeviceSelector(),
		check:    input.CheckDevice,
		save:     config.Save,
	}
}

// RunInteractiveSetup selects the keyboard and touch nodes unless the
// configured ones are still valid.
func (ds *DeviceSetup) RunInteractiveSetup() error {
	cfg := config.Get()

	if cfg.Input.VirtualDevices {
		logger.Info("Virtual input devices enabled, skipping device selection")
		return nil
	}

	err := ds.ValidateDevices()
	if err == nil {
		logger.Info("Input devices already configured")
		return nil
	}
	logger.Warnf("Device validation failed: %v", err)

	if !ds.hasInputPermission() {
		return fmt.Errorf("insufficient permissions to access input devices. Please run as root or add user to 'input' group")
	}

	fmt.Println("\n📱 fbvnc Setup - Input Device Selection")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	var keyboardPath, touchPath string
	if ds.check(cfg.Input.KeyboardDevice, input.DeviceTypeKeyboard) != nil {
		fmt.Println("📌 Step 1: Select Keyboard Device")
		path, err := ds.selector.SelectKeyboardDevice()
		if err != nil {
			return fmt.Errorf("keyboard selection failed: %w", err)
		}
		keyboardPath = path
		fmt.Printf("✓ Selected keyboard: %s\n\n", path)
	}

	if ds.check(cfg.Input.TouchDevice, input.DeviceTypeTouch) != nil {
		fmt.Println("📌 Step 2: Select Touch Device")
		path, err := ds.selector.SelectTouchDevice()
		if err != nil {
			return fmt.Errorf("touch selection failed: %w", err)
		}
		touchPath = path
		fmt.Printf("✓ Selected touch screen: %s\n\n", path)
	}

	config.SetInputDevices(keyboardPath, touchPath)

	if err := ds.save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Println("✅ Device configuration saved!")
	fmt.Printf("📁 Config file: %s\n\n", config.GetConfigPath())

	return nil
}

// PromptDeviceReselection asks for confirmation and selects both devices again
func (ds *DeviceSetup) PromptDeviceReselection() error {
	if !ds.hasInputPermission() {
		return fmt.Errorf("insufficient permissions to access input devices. Please run as root or add user to 'input' group")
	}

	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Reconfigure Input Devices?").
				Description("This will let you select new keyboard and touch devices").
				Value(&confirm),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if !confirm {
		return nil
	}

	return ds.Reselect()
}

// Reselect selects both devices regardless of the current configuration
func (ds *DeviceSetup) Reselect() error {
	keyboardPath, err := ds.selector.SelectKeyboardDevice()
	if err != nil {
		return fmt.Errorf("keyboard selection failed: %w", err)
	}
	touchPath, err := ds.selector.SelectTouchDevice()
	if err != nil {
		return fmt.Errorf("touch selection failed: %w", err)
	}

	config.SetInputDevices(keyboardPath, touchPath)
	if err := ds.save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	logger.Info("Input devices updated", "keyboard", keyboardPath, "touch", touchPath)
	return nil
}

// hasInputPermission checks if we can access input devices
func (ds *DeviceSetup) hasInputPermission() bool {
	if os.Geteuid() == 0 {
		return true
	}

	testPath := "/dev/input/event0"
	if file, err := os.Open(testPath); err == nil {
		if err := file.Close(); err != nil {
			logger.Debugf("Failed to close test file %s: %v", testPath, err)
		}
		return true
	}

	return false
}

// ValidateDevices checks that the configured nodes exist and expose the
// capabilities of a keyboard and a touch screen.
func (ds *DeviceSetup) ValidateDevices() error {
	cfg := config.Get()

	if err := ds.check(cfg.Input.KeyboardDevice, input.DeviceTypeKeyboard); err != nil {
		return err
	}
	logger.Infof("✓ Keyboard device %s validated", cfg.Input.KeyboardDevice)

	if err := ds.check(cfg.Input.TouchDevice, input.DeviceTypeTouch); err != nil {
		return err
	}
	logger.Infof("✓ Touch device %s validated", cfg.Input.TouchDevice)

	return nil
}
