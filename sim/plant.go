package sim

import (
	"math"
	"time"
)

// PWM is a two-channel PWM peripheral that remembers its channel levels. It records whether both
// channels were ever active at once.
type PWM struct {
	top        uint32
	channels   [2]uint32
	overlapped bool
}

func NewPWM(top uint32) *PWM {
	return &PWM{top: top}
}

func (p *PWM) Set(channel uint8, value uint32) {
	if int(channel) >= len(p.channels) {
		return
	}
	if value > p.top {
		value = p.top
	}
	p.channels[channel] = value
	if p.channels[0] > 0 && p.channels[1] > 0 {
		p.overlapped = true
	}
}

func (p *PWM) Top() uint32 { return p.top }

// Duty is the signed duty cycle in percent, channel 0 forward
func (p *PWM) Duty() float64 {
	return (float64(p.channels[0]) - float64(p.channels[1])) * 100 / float64(p.top)
}

// Overlapped reports whether both channels were ever active together
func (p *PWM) Overlapped() bool { return p.overlapped }

// PlantConfig describes a geared DC motor with a quadrature encoder
type PlantConfig struct {
	// MaxSpeed is the steady state speed at full duty in encoder counts per second
	MaxSpeed float64 `yaml:"max_speed"`
	// TimeConstant of the speed response
	TimeConstant time.Duration `yaml:"time_constant"`
	// Deadband is the duty in percent below which static friction holds the shaft
	Deadband float64 `yaml:"deadband"`
	// Origin is the raw counter value at start
	Origin  uint32 `yaml:"origin"`
	Modulus uint32 `yaml:"modulus"`
	PWMTop  uint32 `yaml:"pwm_top"`
}

// DefaultPlantConfig is a slow geared motor that covers the 730 count sweep in about 0.4s at full
// duty. The counter starts close to its wrap point so the sweep crosses it.
func DefaultPlantConfig() PlantConfig {
	return PlantConfig{
		MaxSpeed:     2000,
		TimeConstant: 5 * time.Millisecond,
		Deadband:     8,
		Origin:       65000,
		Modulus:      1 << 16,
		PWMTop:       4000,
	}
}

// Plant is a first-order motor model driven by its PWM and sampled through its counter
type Plant struct {
	cfg      PlantConfig
	pwm      *PWM
	velocity float64
	position float64
}

func NewPlant(cfg PlantConfig) *Plant {
	if cfg.Modulus == 0 {
		cfg.Modulus = 1 << 16
	}
	if cfg.PWMTop == 0 {
		cfg.PWMTop = 4000
	}
	if cfg.TimeConstant <= 0 {
		cfg.TimeConstant = time.Millisecond
	}
	return &Plant{cfg: cfg, pwm: NewPWM(cfg.PWMTop)}
}

func (p *Plant) PWM() *PWM { return p.pwm }

// Advance integrates the motion over dt
func (p *Plant) Advance(dt time.Duration) {
	duty := p.pwm.Duty()
	target := 0.0
	if math.Abs(duty) >= p.cfg.Deadband {
		target = duty / 100 * p.cfg.MaxSpeed
	}

	a := 1 - math.Exp(-float64(dt)/float64(p.cfg.TimeConstant))
	p.velocity += (target - p.velocity) * a
	p.position += p.velocity * dt.Seconds()
}

// Count is the raw encoder counter
func (p *Plant) Count() uint32 {
	raw := int64(p.cfg.Origin) + int64(math.Round(p.position))
	m := int64(p.cfg.Modulus)
	return uint32(((raw % m) + m) % m)
}

// Position in counts from the start position
func (p *Plant) Position() float64 { return p.position }

// Velocity in counts per second
func (p *Plant) Velocity() float64 { return p.velocity }
