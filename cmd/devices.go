package cmd

import (
	"fmt"

	"github.com/bnema/fbvnc/internal/config"
	"github.com/bnema/fbvnc/internal/input"
	"github.com/bnema/fbvnc/internal/setup"
	"github.com/bnema/fbvnc/internal/ui"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Configure input devices",
	Long:  `List, show and select the keyboard and touch devices fbvnc writes to.`,
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List keyboard and touch devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := deviceRows(input.NewDeviceSelector())
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), ui.FormatWarning("No keyboard or touch devices found"))
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), ui.Table([]string{"Type", "Device", "Path"}, rows))
		return err
	},
}

var devicesSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select input devices",
	Long:  `Interactively select the keyboard and touch devices and save them to the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deviceSetup := setup.NewDeviceSetup()

		var err error
		if yes, _ := cmd.Flags().GetBool("yes"); yes {
			err = deviceSetup.Reselect()
		} else {
			err = deviceSetup.PromptDeviceReselection()
		}
		if err != nil {
			return fmt.Errorf("device setup failed: %w", err)
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), ui.FormatStatus(true, "Device configuration updated"))
		return err
	},
}

var devicesSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Select only the devices that fail validation",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup.NewDeviceSetup().RunInteractiveSetup(); err != nil {
			return fmt.Errorf("device setup failed: %w", err)
		}
		return nil
	},
}

var devicesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current device configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		if _, err := fmt.Fprintln(out, ui.FormatHeader("Current Device Configuration")); err != nil {
			return err
		}
		if cfg.Input.VirtualDevices {
			_, err := fmt.Fprintln(out, ui.FormatKeyValue("Virtual devices", cfg.Input.UinputPath))
			return err
		}

		for _, dev := range []struct {
			label string
			path  string
			kind  input.DeviceType
		}{
			{"Keyboard", cfg.Input.KeyboardDevice, input.DeviceTypeKeyboard},
			{"Touch", cfg.Input.TouchDevice, input.DeviceTypeTouch},
		} {
			status := ui.FormatStatus(true, input.DescribeDevice(dev.path))
			if err := input.CheckDevice(dev.path, dev.kind); err != nil {
				status = ui.FormatStatus(false, err.Error())
			}
			if _, err := fmt.Fprintln(out, ui.FormatKeyValue(dev.label, status)); err != nil {
				return err
			}
		}
		return nil
	},
}

// deviceLister is the part of input.DeviceSelector the list command uses
type deviceLister interface {
	ListDevices(deviceType input.DeviceType) ([]input.DeviceInfo, error)
}

func deviceRows(lister deviceLister) ([][]string, error) {
	var rows [][]string
	for _, t := range []input.DeviceType{input.DeviceTypeKeyboard, input.DeviceTypeTouch} {
		devices, err := lister.ListDevices(t)
		if err != nil {
			return nil, err
		}
		for _, dev := range devices {
			path := dev.Path
			if dev.Symlink != "" {
				path = dev.Symlink + " → " + dev.Path
			}
			rows = append(rows, []string{t.String(), dev.Name, path})
		}
	}
	return rows, nil
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.AddCommand(devicesListCmd)
	devicesCmd.AddCommand(devicesSelectCmd)
	devicesCmd.AddCommand(devicesSetupCmd)
	devicesCmd.AddCommand(devicesShowCmd)

	devicesSelectCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
