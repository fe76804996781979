package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonoromo/turret/controller"
	"github.com/jonoromo/turret/ui"
)

func uiCommand() *cobra.Command {
	var configure bool
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the turret dashboard",
	}
	cfg := controllerFlags(cmd)
	cmd.Flags().BoolVar(&configure, "configure", false, "ask for the connection settings before connecting")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		turretUI := ui.New()
		var closer io.Closer

		connect := func() {
			c, err := startController(ctx, cancel, *cfg, turretUI, logger)
			if err != nil {
				logger.Errorw("error connecting", "error", err)
				cancel()
				return
			}
			closer = c
		}

		if configure {
			cw := ui.NewConfigWindow(turretUI.App())
			cw.OnSubmit = connect
			cw.Show(cfg)
		} else {
			connect()
		}

		turretUI.App().Run()
		cancel()

		if closer != nil {
			return closer.Close()
		}
		return nil
	}
	return cmd
}

// startController connects to the firmware and shows the dashboard. Stdin is still forwarded so
// commands can be typed in the terminal too.
func startController(ctx context.Context, cancel context.CancelFunc, cfg controller.Config, turretUI *ui.TurretUI, logger *zap.SugaredLogger) (*controller.Controller, error) {
	c, err := controller.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating controller: %w", err)
	}

	r, w := io.Pipe()

	// read from Stdin also
	go func() {
		_, _ = io.Copy(w, os.Stdin)
	}()

	go func() {
		defer cancel()
		err := c.Run(ctx, r, io.MultiWriter(os.Stdout, turretUI))
		if err != nil {
			logger.Errorw("controller stopped", "error", err)
		}
	}()

	turretUI.Show(ctx, w)
	return c, nil
}
