package main

import (
	"fmt"
	"os"

	"github.com/ivlev/pagereel/internal/config"
	"github.com/ivlev/pagereel/internal/logger"
	"github.com/ivlev/pagereel/internal/system"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version задаётся при сборке: -ldflags "-X main.version=..."
var version = "dev"

var (
	configPath string
	logLevel   string

	cfg config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "pagereel",
	Short:         "Render and export paged, animated documents with audio tracks",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		cfg.BuildVersion = version

		log, err = logger.New(cfg.Log)
		if err != nil {
			return err
		}
		// Увеличиваем лимиты системы (для macOS/Linux)
		system.InitResourceLimits(log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.Version = version
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Ошибка: %v\n", err)
		os.Exit(1)
	}
}
