package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonoromo/turret/config"
	"github.com/jonoromo/turret/controller"
)

func portsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List USB serial ports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := controller.GetSerialPorts()
			if errors.Is(err, controller.ErrNoUSBSerial) {
				fmt.Fprintln(cmd.ErrOrStderr(), "no USB serial ports found")
				return nil
			}
			if err != nil {
				return err
			}
			for _, port := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), port)
			}
			return nil
		},
	}
}

func configCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective simulation config as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			if path != "" {
				var err error
				cfg, err = config.Load(path)
				if err != nil {
					return err
				}
			}
			return config.Write(cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "YAML config file to merge over the defaults")
	return cmd
}
