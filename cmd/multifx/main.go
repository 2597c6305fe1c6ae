// Command multifx runs the reorderable multi-effect chain offline on audio
// files or live on the default audio device.
package main

import (
	"os"

	"github.com/cwbudde/algo-multifx/internal/config"
	"github.com/cwbudde/algo-multifx/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "multifx",
	Short: "Reorderable phaser, chorus, overdrive and ladder filter chain",
	Long: `multifx runs four effects (phaser, chorus, overdrive, ladder filter)
in a processing order that can be changed while audio is running.

An order lists effect names separated by '>' or ','. Effects left out
are skipped; an empty order is a bypass.

Examples:
  multifx render -i in.wav -o out.wav --order "overdrive>ladder>chorus"
  multifx live --http :8080 --midi "IAC Driver Bus 1"`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(optionsCmd)
}

// loadConfig reads the configuration and builds the logger it asks for.
func loadConfig() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, err
	}

	return cfg, log, nil
}
