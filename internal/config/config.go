// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Framebuffer FramebufferConfig `mapstructure:"framebuffer"`
	Input       InputConfig       `mapstructure:"input"`
	Capture     CaptureConfig     `mapstructure:"capture"`
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// FramebufferConfig describes the raw pixel source
type FramebufferConfig struct {
	Device string `mapstructure:"device"`
	// BufferCount is the number of frames mapped from the device.
	// Zero derives it from yres_virtual / yres.
	BufferCount int `mapstructure:"buffer_count"`
}

// InputConfig describes the raw event sinks
type InputConfig struct {
	KeyboardDevice string `mapstructure:"keyboard_device"`
	TouchDevice    string `mapstructure:"touch_device"`
	VirtualDevices bool   `mapstructure:"virtual_devices"` // Create uinput devices instead of opening nodes
	UinputPath     string `mapstructure:"uinput_path"`
}

// CaptureConfig controls the capture cadence
type CaptureConfig struct {
	MaxFPS         int `mapstructure:"max_fps"`
	ServeTimeoutMs int `mapstructure:"serve_timeout_ms"` // Pump timeout while a viewer is connected
	IdleTimeoutMs  int `mapstructure:"idle_timeout_ms"`  // Pump timeout while waiting for a viewer
}

// ServerConfig is handed to the protocol engine
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	DesktopName  string `mapstructure:"desktop_name"`
	AlwaysShared bool   `mapstructure:"always_shared"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Framebuffer: FramebufferConfig{
			Device:      "/dev/graphics/fb0",
			BufferCount: 2,
		},
		Input: InputConfig{
			KeyboardDevice: "/dev/input/event0",
			TouchDevice:    "/dev/input/event1",
			VirtualDevices: false,
			UinputPath:     "/dev/uinput",
		},
		Capture: CaptureConfig{
			MaxFPS:         5,
			ServeTimeoutMs: 100,
			IdleTimeoutMs:  1000,
		},
		Server: ServerConfig{
			Port:         5901, // 5900 is usually taken on Android
			DesktopName:  "Android",
			AlwaysShared: true,
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("fbvnc")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		// Add config paths in order of precedence
		viper.AddConfigPath("/etc/fbvnc")
		if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "fbvnc"))
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("FBVNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing --config file is created by Save
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	return nil
}

// setDefaults registers every field individually so file values merge over them
func setDefaults() {
	viper.SetDefault("framebuffer.device", DefaultConfig.Framebuffer.Device)
	viper.SetDefault("framebuffer.buffer_count", DefaultConfig.Framebuffer.BufferCount)

	viper.SetDefault("input.keyboard_device", DefaultConfig.Input.KeyboardDevice)
	viper.SetDefault("input.touch_device", DefaultConfig.Input.TouchDevice)
	viper.SetDefault("input.virtual_devices", DefaultConfig.Input.VirtualDevices)
	viper.SetDefault("input.uinput_path", DefaultConfig.Input.UinputPath)

	viper.SetDefault("capture.max_fps", DefaultConfig.Capture.MaxFPS)
	viper.SetDefault("capture.serve_timeout_ms", DefaultConfig.Capture.ServeTimeoutMs)
	viper.SetDefault("capture.idle_timeout_ms", DefaultConfig.Capture.IdleTimeoutMs)

	viper.SetDefault("server.port", DefaultConfig.Server.Port)
	viper.SetDefault("server.desktop_name", DefaultConfig.Server.DesktopName)
	viper.SetDefault("server.always_shared", DefaultConfig.Server.AlwaysShared)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)
}

// Validate rejects settings the capture and input paths cannot work with
func (c *Config) Validate() error {
	if c.Framebuffer.Device == "" {
		return fmt.Errorf("framebuffer.device must not be empty")
	}
	if c.Framebuffer.BufferCount < 0 {
		return fmt.Errorf("framebuffer.buffer_count must be >= 0, got %d", c.Framebuffer.BufferCount)
	}
	if !c.Input.VirtualDevices {
		if c.Input.KeyboardDevice == "" {
			return fmt.Errorf("input.keyboard_device must not be empty")
		}
		if c.Input.TouchDevice == "" {
			return fmt.Errorf("input.touch_device must not be empty")
		}
	}
	if c.Capture.MaxFPS <= 0 {
		return fmt.Errorf("capture.max_fps must be positive, got %d", c.Capture.MaxFPS)
	}
	if c.Capture.ServeTimeoutMs <= 0 || c.Capture.IdleTimeoutMs <= 0 {
		return fmt.Errorf("capture timeouts must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		d := DefaultConfig
		return &d
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		if os.IsPermission(err) && strings.Contains(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	if os.Getuid() == 0 {
		return "/etc/fbvnc/fbvnc.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/fbvnc/fbvnc.toml"
	}

	return filepath.Join(home, ".config", "fbvnc", "fbvnc.toml")
}

// SetInputDevices updates the keyboard and touch device paths in memory and in viper
func SetInputDevices(keyboard, touch string) {
	c := Get()
	if keyboard != "" {
		c.Input.KeyboardDevice = keyboard
		viper.Set("input.keyboard_device", keyboard)
	}
	if touch != "" {
		c.Input.TouchDevice = touch
		viper.Set("input.touch_device", touch)
	}
	cfg = c
}
