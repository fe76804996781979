package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:          "turret",
		Short:        "Host tools for the thermal turret",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		monitorCommand(),
		uiCommand(),
		simCommand(),
		portsCommand(),
		configCommand(),
	)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("error creating logger: %w", err)
	}
	return logger.Sugar(), nil
}
