package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonoromo/turret/controller"
)

// controllerFlags binds flags over the environment configuration
func controllerFlags(cmd *cobra.Command) *controller.Config {
	cfg := controller.ConfigFromEnv()
	flags := cmd.Flags()
	flags.StringVar(&cfg.SerialPort, "port", cfg.SerialPort, "serial port of the firmware console, 'none' to simulate (env TURRET_SERIAL_PORT)")
	flags.StringVar(&cfg.BaudRate, "baud", cfg.BaudRate, "serial baud rate (env TURRET_BAUD_RATE)")
	flags.StringVar(&cfg.ReportAddr, "report", cfg.ReportAddr, "report server address (env TURRET_REPORT_ADDR)")
	flags.StringVar(&cfg.Name, "name", cfg.Name, "engagement name for the report (env TURRET_NAME)")
	flags.StringVar(&cfg.SimConfig, "sim-config", cfg.SimConfig, "YAML config for the simulated firmware (env TURRET_SIM_CONFIG)")
	return &cfg
}

func monitorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Bridge the terminal to the firmware console",
	}
	cfg := controllerFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		c, err := controller.New(*cfg, logger)
		if err != nil {
			return err
		}
		defer c.Close()

		return c.Run(ctx, os.Stdin, os.Stdout)
	}
	return cmd
}
