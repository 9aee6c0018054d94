package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/fbvnc/internal/config"
	"github.com/bnema/fbvnc/internal/input"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetCommandState clears the process-wide state one command run leaves behind
func resetCommandState(t *testing.T) {
	t.Helper()
	reset := func() {
		viper.Reset()
		config.Set(nil)
		config.SetConfigPath("")
		configPath = ""
		for _, c := range []*cobra.Command{rootCmd, configInitCmd, devicesSelectCmd} {
			resetFlags(c.PersistentFlags())
			resetFlags(c.Flags())
		}
	}
	reset()
	t.Cleanup(reset)
}

func resetFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

// executeCommand runs the root command and returns what it wrote to stdout
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	root.SetOut(nil)
	return out.String(), err
}

func TestConfigInit(t *testing.T) {
	resetCommandState(t)
	path := filepath.Join(t.TempDir(), "fbvnc.toml")

	t.Run("creates config file when it doesn't exist", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "config", "init", "--config", path)
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "max_fps")
		assert.Contains(t, string(content), "/dev/graphics/fb0")
	})

	t.Run("doesn't overwrite existing config without force", func(t *testing.T) {
		resetCommandState(t)
		require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 6000\n"), 0644))

		_, err := executeCommand(rootCmd, "config", "init", "--config", path)
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "[server]\nport = 6000\n", string(content))
	})

	t.Run("overwrites with force flag", func(t *testing.T) {
		resetCommandState(t)
		require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 6000\n"), 0644))

		_, err := executeCommand(rootCmd, "config", "init", "--config", path, "--force")
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "max_fps")
		// Values loaded from the file are kept
		assert.Contains(t, string(content), "6000")
	})
}

func TestConfigShow(t *testing.T) {
	resetCommandState(t)
	path := filepath.Join(t.TempDir(), "fbvnc.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\ndesktop_name = \"Tablet\"\n"), 0644))

	out, err := executeCommand(rootCmd, "config", "show", "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, path)
	assert.Contains(t, out, "[framebuffer]")
	assert.Contains(t, out, "Tablet")
	assert.Contains(t, out, "5901")
	assert.Contains(t, out, "100 ms")
}

func TestFlagsOverrideConfig(t *testing.T) {
	resetCommandState(t)
	path := filepath.Join(t.TempDir(), "fbvnc.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 6000\n"), 0644))

	out, err := executeCommand(rootCmd, "config", "show", "--config", path,
		"-p", "6100", "-t", "/dev/input/event7", "--max-fps", "12")
	require.NoError(t, err)

	cfg := config.Get()
	assert.Equal(t, 6100, cfg.Server.Port)
	assert.Equal(t, "/dev/input/event7", cfg.Input.TouchDevice)
	assert.Equal(t, 12, cfg.Capture.MaxFPS)
	assert.Equal(t, config.DefaultConfig.Input.KeyboardDevice, cfg.Input.KeyboardDevice)
	assert.Contains(t, out, "6100")
}

func TestConfigValidation(t *testing.T) {
	t.Run("validates TOML syntax", func(t *testing.T) {
		resetCommandState(t)
		path := filepath.Join(t.TempDir(), "fbvnc.toml")
		require.NoError(t, os.WriteFile(path, []byte("[server\nport = 5901\n"), 0644))

		_, err := executeCommand(rootCmd, "config", "show", "--config", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("rejects invalid flag values", func(t *testing.T) {
		resetCommandState(t)
		path := filepath.Join(t.TempDir(), "fbvnc.toml")

		_, err := executeCommand(rootCmd, "config", "show", "--config", path, "--max-fps", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_fps")
	})
}

func TestRunServer_MissingFramebuffer(t *testing.T) {
	resetCommandState(t)
	dir := t.TempDir()

	_, err := executeCommand(rootCmd,
		"--config", filepath.Join(dir, "fbvnc.toml"),
		"--fb", filepath.Join(dir, "fb0"))
	assert.Error(t, err)
}

func TestVersionSkipsConfig(t *testing.T) {
	resetCommandState(t)
	path := filepath.Join(t.TempDir(), "fbvnc.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\n"), 0644))

	_, err := executeCommand(rootCmd, "version", "--config", path)
	assert.NoError(t, err)
}

type fakeLister map[input.DeviceType][]input.DeviceInfo

func (f fakeLister) ListDevices(t input.DeviceType) ([]input.DeviceInfo, error) {
	return f[t], nil
}

func TestDeviceRows(t *testing.T) {
	rows, err := deviceRows(fakeLister{
		input.DeviceTypeKeyboard: {{Path: "/dev/input/event0", Name: "qwerty"}},
		input.DeviceTypeTouch: {{
			Path:    "/dev/input/event1",
			Name:    "touchscreen",
			Symlink: "/dev/input/by-path/platform-touch",
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"keyboard", "qwerty", "/dev/input/event0"},
		{"touch", "touchscreen", "/dev/input/by-path/platform-touch → /dev/input/event1"},
	}, rows)

	rows, err = deviceRows(fakeLister{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
