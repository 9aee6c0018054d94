package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/fbvnc/internal/config"
	"github.com/bnema/fbvnc/internal/logger"
	"github.com/bnema/fbvnc/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	configPath string

	rootCmd = &cobra.Command{
		Use:   "fbvnc",
		Short: "fbvnc - VNC server for the Linux framebuffer",
		Long: `fbvnc serves the Linux framebuffer over VNC and injects the remote
keyboard and pointer into the local input devices. It is meant for Android
devices and other systems without a display server.

Press F11 in the viewer to stop the server.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initConfig,
		RunE:              runServer,
	}
)

// flagBindings maps persistent flags onto config keys
var flagBindings = map[string]string{
	"keyboard": "input.keyboard_device",
	"touch":    "input.touch_device",
	"virtual":  "input.virtual_devices",
	"fb":       "framebuffer.device",
	"port":     "server.port",
	"max-fps":  "capture.max_fps",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	defaults := config.DefaultConfig
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default searches /etc/fbvnc, ~/.config/fbvnc, .)")

	rootCmd.PersistentFlags().StringP("keyboard", "k", defaults.Input.KeyboardDevice, "Keyboard event device")
	rootCmd.PersistentFlags().StringP("touch", "t", defaults.Input.TouchDevice, "Touch screen event device")
	rootCmd.PersistentFlags().Bool("virtual", defaults.Input.VirtualDevices, "Create uinput devices instead of opening event nodes")
	rootCmd.PersistentFlags().String("fb", defaults.Framebuffer.Device, "Framebuffer device")
	rootCmd.PersistentFlags().IntP("port", "p", defaults.Server.Port, "VNC port to listen on")
	rootCmd.PersistentFlags().Int("max-fps", defaults.Capture.MaxFPS, "Maximum captured frames per second")
}

// initConfig loads the configuration before any command runs
func initConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}

	// Bindings are registered here since viper may have been reset
	for flag, key := range flagBindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	if err := config.Init(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	if level := config.Get().Logging.LogLevel; level != "" {
		logger.SetLevel(level)
	}
	return nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	session, err := server.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Errorf("Failed to release devices: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	signals := server.NewSignalHandler(session, cancel)
	signals.Start()
	defer signals.Stop()

	logger.Infof("Serving %s on port %d", cfg.Framebuffer.Device, cfg.Server.Port)

	err = session.Run(ctx)
	if errors.Is(err, server.ErrShutdown) {
		logger.Info("Server stopped by viewer")
		return nil
	}
	return err
}
