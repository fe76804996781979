package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jonoromo/turret/config"
	"github.com/jonoromo/turret/control"
	"github.com/jonoromo/turret/control/chart"
	"github.com/jonoromo/turret/sim"
)

func simCommand() *cobra.Command {
	var (
		configPath string
		duration   time.Duration
		realtime   bool
		record     config.RecordConfig
	)
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run an engagement against simulated hardware",
		Long: "Run the firmware tasks against a simulated pan motor, encoder and thermal camera. " +
			"Events are printed as the firmware prints them on its console.",
	}
	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "YAML config file")
	flags.DurationVarP(&duration, "duration", "d", 10*time.Second, "simulated time to run")
	flags.BoolVar(&realtime, "realtime", false, "pace the simulation with the wall clock")
	flags.StringVar(&record.CSV, "csv", "", "write the pan step response as CSV")
	flags.StringVar(&record.Chart, "chart", "", "plot the pan step response (png, svg or pdf)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}

		cfg := config.Default()
		if configPath != "" {
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
		}
		if record.CSV == "" {
			record.CSV = cfg.Record.CSV
		}
		if record.Chart == "" {
			record.Chart = cfg.Record.Chart
		}
		cfg.SetRecord(record)

		s, err := sim.New(cfg.Sim, cfg.Turret, os.Stdout)
		if err != nil {
			return fmt.Errorf("error creating simulation: %w", err)
		}

		if realtime {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, duration)
			defer cancel()

			err = s.Run(ctx, clock.New())
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
		} else {
			s.RunFor(duration)
			s.Turret().Halt()
		}

		status := s.Turret().Status()
		logger.Infow("simulation done",
			"elapsed", s.Now(),
			"pan", status.Pan,
			"position", status.Position,
			"setpoint", status.Setpoint,
			"fired", status.Fired,
			"pulses", s.Trigger().Pulses(),
			"camera", status.Camera,
		)

		return writeRecording(cfg.Record, s, logger)
	}
	return cmd
}

func writeRecording(record config.RecordConfig, s *sim.Sim, logger *zap.SugaredLogger) error {
	recorder := s.Turret().Pan().Recorder()
	if recorder == nil {
		return nil
	}

	if record.CSV != "" {
		err := writeCSV(record.CSV, recorder)
		if err != nil {
			return err
		}
		logger.Infow("wrote step response", "path", record.CSV, "samples", recorder.Len())
	}

	if record.Chart != "" {
		err := chart.SaveStepResponse(record.Chart, "pan step response", recorder.Samples())
		if err != nil {
			return fmt.Errorf("error saving chart: %w", err)
		}
		logger.Infow("saved chart", "path", record.Chart)
	}
	return nil
}

func writeCSV(path string, recorder *control.Recorder) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating CSV: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	err = recorder.WriteCSV(f)
	if err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	return nil
}
