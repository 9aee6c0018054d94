package cmd

import (
	"github.com/bnema/fbvnc/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Commit and Date are set by the main package
	Commit string
	Date   string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Version output does not depend on the configuration
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		logger.Infof("fbvnc %s", Version)
		logger.Infof("commit: %s", Commit)
		logger.Infof("built: %s", Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
