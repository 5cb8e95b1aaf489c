// Command feeder receives AIS-catcher JSON packets over HTTP and inserts the
// weather observations they carry into an ERDDAP dataset.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ais-weather-feeder",
	Short: "Feed AIS-catcher weather broadcasts into ERDDAP",
	Long: `ais-weather-feeder accepts the JSON packets AIS-catcher posts, keeps the
IMO 289 meteorological messages allowed by the configured acceptance rules,
and inserts each one into an ERDDAP tabledap dataset.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to the TOML configuration file (default <user config dir>/erddap-feeder/default-config.toml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
