// Package motor drives a DC motor through an H-bridge with one PWM channel per direction.
package motor

import "errors"

// PWM is the peripheral surface the driver needs. TinyGo's machine PWM/timer peripherals satisfy it.
type PWM interface {
	Set(channel uint8, value uint32)
	Top() uint32
}

// Pin is a digital output such as machine.Pin
type Pin interface {
	Set(bool)
}

// Config describes the two direction channels of one H-bridge
type Config struct {
	PWM     PWM
	Forward uint8
	Reverse uint8
	// Enable is optional; it is driven high when the driver is created
	Enable Pin
}

// Driver converts a signed duty cycle into exactly one active direction channel
type Driver struct {
	pwm     PWM
	forward uint8
	reverse uint8
	duty    float64
}

// New creates a Driver and leaves both channels at zero
func New(cfg Config) (*Driver, error) {
	if cfg.PWM == nil {
		return nil, errors.New("missing PWM")
	}
	if cfg.Forward == cfg.Reverse {
		return nil, errors.New("forward and reverse must be different channels")
	}

	d := &Driver{
		pwm:     cfg.PWM,
		forward: cfg.Forward,
		reverse: cfg.Reverse,
	}
	d.Stop()

	if cfg.Enable != nil {
		cfg.Enable.Set(true)
	}

	return d, nil
}

// SetDutyCycle sets the signed duty cycle in percent. The magnitude is clamped to 100. The idle
// channel is always lowered before the active one is raised so both are never on together.
func (d *Driver) SetDutyCycle(percent float64) {
	if percent > 100 {
		percent = 100
	} else if percent < -100 {
		percent = -100
	}
	d.duty = percent

	switch {
	case percent > 0:
		d.pwm.Set(d.reverse, 0)
		d.pwm.Set(d.forward, d.level(percent))
	case percent < 0:
		d.pwm.Set(d.forward, 0)
		d.pwm.Set(d.reverse, d.level(-percent))
	default:
		d.pwm.Set(d.forward, 0)
		d.pwm.Set(d.reverse, 0)
	}
}

// Stop silences both channels
func (d *Driver) Stop() {
	d.SetDutyCycle(0)
}

// Duty returns the last (clamped) duty cycle
func (d *Driver) Duty() float64 {
	return d.duty
}

func (d *Driver) level(percent float64) uint32 {
	return uint32(float64(d.pwm.Top())*percent/100 + 0.5)
}
