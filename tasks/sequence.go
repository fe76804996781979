package tasks

import "time"

// Output is a single digital output such as the trigger servo pin
type Output interface {
	Set(high bool)
}

// OutputFunc adapts a function to Output
type OutputFunc func(bool)

func (f OutputFunc) Set(high bool) { f(high) }

// Sleeper blocks for a short fixed delay. The firmware passes time.Sleep.
type Sleeper func(time.Duration)

// Motor is anything driven by a signed duty cycle percentage, normally *motor.Driver
type Motor interface {
	SetDutyCycle(percent float64)
}

type noopMotor struct{}

func (noopMotor) SetDutyCycle(float64) {}

type noopOutput struct{}

func (noopOutput) Set(bool) {}

var (
	_ Motor  = noopMotor{}
	_ Output = noopOutput{}
)

// Pulse drives the output high for Width and then low for Gap. A zero Width still produces one
// high/low edge pair.
type Pulse struct {
	Width time.Duration `yaml:"width"`
	Gap   time.Duration `yaml:"gap"`
}

// Sequence is the open-loop trigger actuation. The output is driven low for Delay while the
// flywheel comes up to speed, then each Pulse is played in order.
type Sequence struct {
	Delay  time.Duration `yaml:"delay"`
	Pulses []Pulse       `yaml:"pulses"`
}

// DefaultSequence pulls the trigger servo back, releases it, and twitches it once more to clear
// a stuck dart
func DefaultSequence() Sequence {
	return Sequence{
		Delay: 120 * time.Millisecond,
		Pulses: []Pulse{
			{Width: 2000 * time.Microsecond, Gap: 318 * time.Millisecond},
			{},
			{Width: 500 * time.Microsecond, Gap: 119 * time.Millisecond},
			{Gap: 200 * time.Millisecond},
		},
	}
}

// Segments is the number of resumptions needed to play the whole sequence
func (s Sequence) Segments() int {
	return len(s.Pulses) + 1
}

// Duration is the total time spent sleeping
func (s Sequence) Duration() time.Duration {
	d := s.Delay
	for _, p := range s.Pulses {
		d += p.Width + p.Gap
	}
	return d
}

// play runs segment i. Segment 0 is the initial delay.
func (s Sequence) play(i int, out Output, sleep Sleeper) {
	if i == 0 {
		out.Set(false)
		sleep(s.Delay)
		return
	}

	p := s.Pulses[i-1]
	out.Set(true)
	if p.Width > 0 {
		sleep(p.Width)
	}
	out.Set(false)
	if p.Gap > 0 {
		sleep(p.Gap)
	}
}
