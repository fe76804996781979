// Package sim runs the turret against simulated hardware: a pan motor with a wrapping encoder, a
// thermal camera looking at one warm target, the flywheel, the trigger pin and the console.
// Simulated time advances one scheduler tick per pass and through every delay the tasks sleep, so
// a run is deterministic and can go faster than real time.
package sim

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/jonoromo/turret"
	"github.com/jonoromo/turret/motor"
	"github.com/jonoromo/turret/system"
	"github.com/jonoromo/turret/tasks"
)

type Config struct {
	// Tick is the simulated time per scheduler pass
	Tick   time.Duration `yaml:"tick"`
	Pan    PlantConfig   `yaml:"pan"`
	Camera CameraConfig  `yaml:"camera"`
}

func DefaultConfig() Config {
	return Config{
		Tick:   time.Millisecond,
		Pan:    DefaultPlantConfig(),
		Camera: DefaultCameraConfig(),
	}
}

type Sim struct {
	cfg Config
	now time.Duration

	pan      *Plant
	flywheel *PWM
	trigger  *Pin
	camera   *Camera
	console  *Console
	logger   *turret.EventLogger

	turret *system.Turret
}

// New builds the simulated hardware and the turret on top of it. Events and console output are
// written to out as the firmware would write them to its serial port.
func New(cfg Config, sys system.Config, out io.Writer) (*Sim, error) {
	if cfg.Tick <= 0 {
		return nil, errors.New("tick must be positive")
	}
	if out == nil {
		out = io.Discard
	}

	s := &Sim{cfg: cfg}
	s.pan = NewPlant(cfg.Pan)
	s.flywheel = NewPWM(s.pan.PWM().Top())
	s.trigger = &Pin{now: s.Now}
	s.camera = NewCamera(cfg.Camera, s.pan)
	s.console = NewConsole(out)
	s.logger = turret.NewEventLogger(out, s.Millis)

	panMotor, err := motor.New(motor.Config{PWM: s.pan.PWM(), Forward: 0, Reverse: 1})
	if err != nil {
		return nil, errors.New("error creating pan motor: " + err.Error())
	}
	flywheel, err := motor.New(motor.Config{PWM: s.flywheel, Forward: 0, Reverse: 1})
	if err != nil {
		return nil, errors.New("error creating flywheel motor: " + err.Error())
	}

	s.turret, err = system.New(sys, system.Hardware{
		Pan: tasks.AxisHardware{
			Motor:    panMotor,
			Encoder:  s.pan,
			Modulus:  cfg.Pan.Modulus,
			Flywheel: flywheel,
			Trigger:  s.trigger,
			Sleep:    s.sleep,
		},
		Camera:  s.camera,
		Console: s.console,
		Verbose: func(on bool) {
			if on {
				s.logger.SetLevel(turret.LevelDebug)
				return
			}
			s.logger.SetLevel(turret.LevelInfo)
		},
	}, s.logger)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Sim) Turret() *system.Turret      { return s.turret }
func (s *Sim) Pan() *Plant                 { return s.pan }
func (s *Sim) Flywheel() *PWM              { return s.flywheel }
func (s *Sim) Trigger() *Pin               { return s.trigger }
func (s *Sim) Camera() *Camera             { return s.camera }
func (s *Sim) Console() *Console           { return s.console }
func (s *Sim) Logger() *turret.EventLogger { return s.logger }

// Now is the simulated time since start
func (s *Sim) Now() time.Duration { return s.now }

// Millis is the simulated uptime in milliseconds, the event timestamp
func (s *Sim) Millis() uint32 { return uint32(s.now / time.Millisecond) }

// Step advances the hardware by one tick and runs one scheduler pass
func (s *Sim) Step() {
	s.advance(s.cfg.Tick)
	s.turret.Pass()
}

// RunFor steps until d of simulated time has passed
func (s *Sim) RunFor(d time.Duration) {
	end := s.now + d
	for s.now < end {
		s.Step()
	}
}

// RunUntil steps until done returns true or limit of simulated time has passed. It reports
// whether done was reached.
func (s *Sim) RunUntil(done func() bool, limit time.Duration) bool {
	end := s.now + limit
	for s.now < end {
		s.Step()
		if done() {
			return true
		}
	}
	return false
}

// Run steps once per tick of clk until ctx is cancelled, pacing the simulation in real time
func (s *Sim) Run(ctx context.Context, clk clock.Clock) error {
	ticker := clk.Ticker(s.cfg.Tick)
	defer ticker.Stop()
	return s.run(ctx, ticker.C)
}

func (s *Sim) run(ctx context.Context, ticks <-chan time.Time) error {
	s.logger.Infow("turret.start", "tasks", len(s.turret.Scheduler().Tasks()))
	for {
		select {
		case <-ctx.Done():
			s.turret.Halt()
			s.logger.Infow("turret.stop", "tick", s.turret.Scheduler().Tick())
			return ctx.Err()
		case <-ticks:
			s.Step()
		}
	}
}

func (s *Sim) advance(d time.Duration) {
	s.pan.Advance(d)
	s.now += d
}

// sleep is the tasks' blocking delay. The motor keeps moving while the scheduler is blocked.
func (s *Sim) sleep(d time.Duration) {
	for d > 0 {
		step := min(d, s.cfg.Tick)
		s.advance(step)
		d -= step
	}
}
