//go:build tinygo

// Package device adapts the Nucleo-L476RG peripherals to the interfaces the turret tasks use.
package device

import (
	"errors"
	"machine"

	"github.com/jonoromo/turret/motor"
)

// Timer is a TinyGo PWM-capable timer such as machine.TIM3
type Timer interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Set(channel uint8, value uint32)
	Top() uint32
}

// HBridgeConfig has the device-level values for one H-bridge
type HBridgeConfig struct {
	Timer Timer
	// Period of the PWM signal in nanoseconds
	Period  uint64
	Forward machine.Pin
	Reverse machine.Pin
	// Enable is optional, use machine.NoPin when the bridge is always enabled
	Enable machine.Pin
}

// NewHBridge configures the timer and pins and returns a motor driver on them
func NewHBridge(cfg HBridgeConfig) (*motor.Driver, error) {
	if cfg.Timer == nil {
		return nil, errors.New("missing timer")
	}

	err := cfg.Timer.Configure(machine.PWMConfig{Period: cfg.Period})
	if err != nil {
		return nil, errors.New("error configuring timer: " + err.Error())
	}

	forward, err := cfg.Timer.Channel(cfg.Forward)
	if err != nil {
		return nil, errors.New("error configuring forward channel: " + err.Error())
	}
	reverse, err := cfg.Timer.Channel(cfg.Reverse)
	if err != nil {
		return nil, errors.New("error configuring reverse channel: " + err.Error())
	}

	motorCfg := motor.Config{
		PWM:     cfg.Timer,
		Forward: forward,
		Reverse: reverse,
	}
	if cfg.Enable != machine.NoPin {
		cfg.Enable.Configure(machine.PinConfig{Mode: machine.PinOutput})
		motorCfg.Enable = cfg.Enable
	}

	return motor.New(motorCfg)
}

// NewOutput configures pin as a digital output, driven low
func NewOutput(pin machine.Pin) machine.Pin {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return pin
}
