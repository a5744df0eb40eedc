package cmd

import (
	"os"

	"example.com/backstage/services/picking/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "picking-service",
		Short: "Warehouse picking service",
		Long: `Picking service for warehouse inventory and order picking.

Functions:
- Maintain warehouses, storage locations and the products placed in them
- Generate randomized pick lists from the available stock
- Assign carriers to pick lists and track confirmation
- Issue short-lived invite codes for joining a warehouse`,
		SilenceUsage: true,
	}
)

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(migrateCmd)
}

func initLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// loadConfig reads the --config file, or searches the working directory
func loadConfig() (config.Config, error) {
	path := cfgFile
	if path == "" {
		path = "."
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return cfg, err
	}

	if cfg.Environment == "development" || cfg.Logging.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = log.Output(os.Stderr)
	}
	if !debug && cfg.Logging.Level != "" {
		if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}
	return cfg, nil
}
