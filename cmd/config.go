package cmd

import (
	"fmt"
	"os"

	"github.com/bnema/fbvnc/internal/config"
	"github.com/bnema/fbvnc/internal/logger"
	"github.com/bnema/fbvnc/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage fbvnc configuration",
	Long:  `Show, save or initialize the fbvnc configuration file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		lines := []string{
			ui.FormatHeader("Current Configuration"),
			ui.FormatKeyValue("Config file", config.GetConfigPath()),
			"",
			ui.FormatSection("framebuffer"),
			ui.FormatKeyValue("Device", cfg.Framebuffer.Device),
			ui.FormatKeyValue("Buffer Count", cfg.Framebuffer.BufferCount),
			"",
			ui.FormatSection("input"),
			ui.FormatKeyValue("Keyboard Device", cfg.Input.KeyboardDevice),
			ui.FormatKeyValue("Touch Device", cfg.Input.TouchDevice),
			ui.FormatKeyValue("Virtual Devices", cfg.Input.VirtualDevices),
			ui.FormatKeyValue("Uinput Path", cfg.Input.UinputPath),
			"",
			ui.FormatSection("capture"),
			ui.FormatKeyValue("Max FPS", cfg.Capture.MaxFPS),
			ui.FormatKeyValue("Serve Timeout", fmt.Sprintf("%d ms", cfg.Capture.ServeTimeoutMs)),
			ui.FormatKeyValue("Idle Timeout", fmt.Sprintf("%d ms", cfg.Capture.IdleTimeoutMs)),
			"",
			ui.FormatSection("server"),
			ui.FormatKeyValue("Port", cfg.Server.Port),
			ui.FormatKeyValue("Desktop Name", cfg.Server.DesktopName),
			ui.FormatKeyValue("Always Shared", cfg.Server.AlwaysShared),
			"",
			ui.FormatSection("logging"),
			ui.FormatKeyValue("Log Level", cfg.Logging.LogLevel),
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
		}
		return nil
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save current configuration to file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration saved to: %s", config.GetConfigPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.GetConfigPath()
		if _, err := os.Stat(configPath); err == nil {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				logger.Infof("Configuration file already exists at: %s", configPath)
				logger.Info("Use --force to overwrite")
				return nil
			}
		}

		if err := config.Save(); err != nil {
			return err
		}

		logger.Infof("Configuration initialized at: %s", configPath)
		logger.Info("You can now:")
		logger.Info("  - Edit the configuration file directly")
		logger.Info("  - Use 'fbvnc devices select' to pick the input devices")
		logger.Info("  - Use 'fbvnc config show' to view current settings")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().Bool("force", false, "Force overwrite existing configuration")
}
