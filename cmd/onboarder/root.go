package main

import (
	"fmt"

	"github.com/mohammad-safakhou/onboarder/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "onboarder",
		Short:        "Generate and normalize business dashboard configurations",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")

	root.AddCommand(
		serveCMD(&cfgPath),
		migrateCMD(&cfgPath),
		normalizeCMD(&cfgPath),
		detectCMD(),
	)
	return root
}

// newLogger builds the process logger from the general config section.
func newLogger(g config.GeneralConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if g.Debug {
		zc = zap.NewDevelopmentConfig()
	}
	if g.LogLevel != "" {
		lvl, err := zapcore.ParseLevel(g.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("general.log_level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
