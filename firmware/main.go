//go:build tinygo

package main

import (
	"context"
	"machine"
	"time"

	"github.com/jonoromo/turret"
	"github.com/jonoromo/turret/firmware/device"
	"github.com/jonoromo/turret/system"
	"github.com/jonoromo/turret/tasks"
)

// pwmPeriod is 20kHz, above hearing for both motors
const pwmPeriod = 50_000

func main() {
	// give the ST-LINK console time to attach
	time.Sleep(2 * time.Second)

	logger := device.NewConsoleLogger(machine.Serial)

	pan, err := device.NewHBridge(device.HBridgeConfig{
		Timer:   machine.TIM3,
		Period:  pwmPeriod,
		Forward: machine.PB4,
		Reverse: machine.PB5,
		Enable:  machine.PA10,
	})
	if err != nil {
		fatal(logger, "error creating pan motor: "+err.Error())
	}

	flywheel, err := device.NewHBridge(device.HBridgeConfig{
		Timer:   machine.TIM2,
		Period:  pwmPeriod,
		Forward: machine.PA0,
		Reverse: machine.PA1,
		Enable:  machine.PC1,
	})
	if err != nil {
		fatal(logger, "error creating flywheel motor: "+err.Error())
	}

	encoder, err := device.NewQuadrature(machine.PB6, machine.PB7)
	if err != nil {
		fatal(logger, "error creating encoder: "+err.Error())
	}

	t, err := system.New(config(), system.Hardware{
		Pan: tasks.AxisHardware{
			Motor:    pan,
			Encoder:  encoder,
			Flywheel: flywheel,
			Trigger:  device.NewOutput(machine.PC7),
			Sleep:    time.Sleep,
		},
		Camera:  device.NewThermalCamera(machine.I2C0),
		Console: machine.Serial,
		Guard:   &device.InterruptGuard{},
		Verbose: func(on bool) {
			if on {
				logger.SetLevel(turret.LevelDebug)
				return
			}
			logger.SetLevel(turret.LevelInfo)
		},
	}, logger)
	if err != nil {
		fatal(logger, "error creating turret: "+err.Error())
	}

	ticker := time.NewTicker(time.Millisecond)
	err = t.Run(context.Background(), ticker.C)
	if err != nil {
		fatal(logger, "turret stopped: "+err.Error())
	}
}

// config is the default configuration with the aim calibration rescaled for the 8 column
// AMG88xx. The camera publishes the hot column times 100, so the centre is 350 instead of 1450
// and one column is four times as many encoder counts.
func config() system.Config {
	cfg := system.DefaultConfig()
	cfg.Pan.Calibration = tasks.Calibration{
		Threshold:  350,
		BelowSlope: 0.22,
		AboveSlope: 0.3,
	}
	return cfg
}

func fatal(logger turret.Logger, msg string) {
	logger.Errorw("fatal", "error", msg)
	for {
		time.Sleep(time.Second)
	}
}
