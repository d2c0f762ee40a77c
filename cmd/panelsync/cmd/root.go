// Package cmd implements the panelsync command line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eastglh/panelsync/internal/config"
	"github.com/eastglh/panelsync/pkg/logging"
)

var (
	configFile string
	verbose    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "panelsync",
	Short: "Sync the test-directory database with PanelApp",
	Long: `Panelsync reconciles the local test-directory database with the
PanelApp gene panel registry.

Sync passes are dry-run by default: every change is previewed and logged
but nothing is written until --no-dry-run is given. A live pass applies
all changes inside one transaction, isolating each panel behind its own
checkpoint so a failing panel never corrupts the others.`,
	SilenceUsage: true,
}

// Execute runs the root command with signal-aware context.
func Execute(version string) {
	rootCmd.Version = version

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./panelsync.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
}

// initConfig reads in the config file and environment variables if set.
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("panelsync")
	}

	// Load .env before viper env binding, matching the deployment contract.
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	config.SetDefaults(viper.GetViper())

	// Missing config file is fine; env vars may carry everything.
	_ = viper.ReadInConfig()

	configureLogging()
}

// configureLogging sets the global log level from the verbosity flags.
func configureLogging() {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	logging.SetDefault(logging.Default().Level(level))
}
