// Package system assembles the scheduler, the shared aim value and the turret tasks into one
// Turret. The same assembly runs on the microcontroller and in simulation; only the Hardware
// differs.
package system

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/jonoromo/turret"
	"github.com/jonoromo/turret/firmware/commands"
	"github.com/jonoromo/turret/scheduler"
	"github.com/jonoromo/turret/share"
	"github.com/jonoromo/turret/tasks"
)

// Console is the serial console. ReadByte must return an error instead of blocking when no input
// is buffered.
type Console interface {
	ReadByte() (byte, error)
	Write([]byte) (int, error)
}

// Hardware is everything the turret drives or samples
type Hardware struct {
	Pan    tasks.AxisHardware
	Camera tasks.Camera
	// Console is optional
	Console Console
	// Guard protects the shared aim value, nil uses a mutex
	Guard sync.Locker
	// Verbose is called when verbose output is toggled from the console
	Verbose func(bool)
}

// Status is a snapshot of the turret for display
type Status struct {
	Tick     uint32
	Pan      tasks.AxisState
	Position int64
	Setpoint float64
	Duty     float64
	Moves    int
	Fired    bool
	Gains    tasks.GainMode
	Aim      tasks.Aim
	Aimed    bool

	Camera        tasks.CameraState
	CameraFaulted bool
}

// Turret owns every task and the scheduler that runs them
type Turret struct {
	hw     Hardware
	logger turret.Logger

	scheduler *scheduler.Scheduler
	camera    *tasks.CameraTask
	pan       *tasks.AxisTask
	console   *commands.Console

	cameraTask *scheduler.Task
	verbose    bool
}

var _ commands.Controller = &Turret{}

func New(cfg Config, hw Hardware, logger turret.Logger) (*Turret, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = turret.NopLogger{}
	}

	t := &Turret{
		hw:        hw,
		logger:    logger,
		scheduler: scheduler.New(),
	}

	aimOut, aimIn := share.New[int16]("aim", hw.Guard)

	t.camera, err = tasks.NewCameraTask(cfg.Camera, hw.Camera, aimOut, logger)
	if err != nil {
		return nil, errors.New("error creating camera task: " + err.Error())
	}
	t.pan, err = tasks.NewAxisTask("pan", cfg.Pan, hw.Pan, aimIn, logger)
	if err != nil {
		return nil, errors.New("error creating pan task: " + err.Error())
	}

	t.cameraTask, err = t.add("camera", cfg.CameraSchedule, t.camera)
	if err != nil {
		return nil, err
	}
	_, err = t.add("pan", cfg.PanSchedule, t.pan)
	if err != nil {
		return nil, err
	}

	if hw.Console != nil {
		t.console = commands.NewConsole(t, logger)
		_, err = t.add("console", cfg.ConsoleSchedule, t.console)
		if err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Turret) add(name string, s Schedule, m scheduler.Machine) (*scheduler.Task, error) {
	task, err := scheduler.NewTask(name, s.Priority, s.Period, m)
	if err != nil {
		return nil, errors.New("error creating " + name + " task: " + err.Error())
	}
	err = t.scheduler.Add(task)
	if err != nil {
		return nil, errors.New("error adding " + name + " task: " + err.Error())
	}
	return task, nil
}

// Run dispatches tasks, one scheduler pass per tick, until ctx is cancelled
func (t *Turret) Run(ctx context.Context, ticks <-chan time.Time) error {
	t.logger.Infow("turret.start", "tasks", len(t.scheduler.Tasks()))
	err := t.scheduler.Run(ctx, ticks)
	t.pan.Halt()
	t.logger.Infow("turret.stop", "tick", t.scheduler.Tick())
	return err
}

// Pass runs a single scheduler pass
func (t *Turret) Pass() {
	t.scheduler.Pass()
}

func (t *Turret) Scheduler() *scheduler.Scheduler { return t.scheduler }
func (t *Turret) Pan() *tasks.AxisTask            { return t.pan }
func (t *Turret) Camera() *tasks.CameraTask       { return t.camera }

func (t *Turret) Status() Status {
	aim, aimed := t.pan.LastAim()
	return Status{
		Tick:          t.scheduler.Tick(),
		Pan:           t.pan.State(),
		Position:      t.pan.Position(),
		Setpoint:      t.pan.Setpoint(),
		Duty:          t.pan.Duty(),
		Moves:         t.pan.Moves(),
		Fired:         t.pan.Fired(),
		Gains:         t.pan.Mode(),
		Aim:           aim,
		Aimed:         aimed,
		Camera:        t.camera.State(),
		CameraFaulted: t.camera.Faulted(),
	}
}

func (t *Turret) Zero()                        { t.pan.Zero() }
func (t *Turret) Jog(counts int)               { t.pan.Jog(counts) }
func (t *Turret) SetGainMode(m tasks.GainMode) { t.pan.SetGainMode(m) }
func (t *Turret) ArmFire()                     { t.pan.ArmFire() }
func (t *Turret) Halt()                        { t.pan.Halt() }
func (t *Turret) Resume()                      { t.pan.Resume() }

// RearmCamera takes another picture and runs the camera task on the next pass
func (t *Turret) RearmCamera() {
	t.camera.Rearm()
	t.cameraTask.Trigger()
}

// Debug writes the task table to the console and logs a status event
func (t *Turret) Debug() {
	s := t.Status()
	if t.hw.Console != nil {
		_, _ = t.Write([]byte(t.scheduler.String()))
	}
	t.logger.Infow("status",
		"pan", s.Pan,
		"position", s.Position,
		"setpoint", roundCounts(s.Setpoint),
		"duty", s.Duty,
		"moves", s.Moves,
		"fired", s.Fired,
		"gains", s.Gains,
		"camera", s.Camera,
		"faulted", s.CameraFaulted,
	)
}

// Verbose toggles verbose output
func (t *Turret) Verbose() {
	t.verbose = !t.verbose
	if t.hw.Verbose != nil {
		t.hw.Verbose(t.verbose)
	}
	t.logger.Infow("verbose", "on", t.verbose)
}

func (t *Turret) ReadByte() (byte, error) {
	if t.hw.Console == nil {
		return 0, errNoConsole
	}
	return t.hw.Console.ReadByte()
}

func (t *Turret) Write(p []byte) (int, error) {
	if t.hw.Console == nil {
		return 0, errNoConsole
	}
	return t.hw.Console.Write(p)
}

var errNoConsole = errors.New("no console")

func roundCounts(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
