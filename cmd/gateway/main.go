package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "quatt-gateway",
	Short: "Quatt heat pump gateway",
	Long: `quatt-gateway polls a Quatt CIC over its local feed and the mobile API,
publishes the readings to Home Assistant over MQTT and Prometheus, and serves
the house dashboard cards.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "./configs/gateway.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log_level)")
}

// prepare loads the config and configures logging for every subcommand.
func prepare(cmd *cobra.Command) (*Config, error) {
	config, err := loadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		config.LogLevel = flagLogLevel
	}
	setupLogging(config.LogLevel)
	return config, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
