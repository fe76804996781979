package tasks

import (
	"errors"
	"math"
	"time"

	"github.com/jonoromo/turret"
	"github.com/jonoromo/turret/control"
	"github.com/jonoromo/turret/encoder"
	"github.com/jonoromo/turret/share"
)

// AxisHardware is everything an axis drives or samples. Flywheel and Trigger are optional for
// axes that never fire.
type AxisHardware struct {
	Motor   Motor
	Encoder encoder.Counter
	// Modulus of the encoder counter, 0 for encoder.DefaultModulus
	Modulus  uint32
	Flywheel Motor
	Trigger  Output
	Sleep    Sleeper
}

type AxisState int

const (
	AxisInit AxisState = iota
	AxisMove
	AxisFire
	AxisWait
	AxisHalted
)

func (s AxisState) String() string {
	switch s {
	case AxisInit:
		return "Init"
	case AxisMove:
		return "Move"
	case AxisFire:
		return "Fire"
	case AxisWait:
		return "Wait"
	case AxisHalted:
		return "Halted"
	default:
		return "Unknown"
	}
}

type GainMode int

const (
	GainCoarse GainMode = iota
	GainFine
)

func (m GainMode) String() string {
	switch m {
	case GainFine:
		return "fine"
	default:
		fallthrough
	case GainCoarse:
		return "coarse"
	}
}

// Aim records one translation of a camera value into a setpoint
type Aim struct {
	Value    int16
	Position int64
	Setpoint float64
}

// AxisTask closes the loop on one motor/encoder pair. It moves to Home, then alternates between
// waiting for a fresh camera value and moving to the setpoint computed from it, firing once along
// the way.
type AxisTask struct {
	name   string
	cfg    AxisConfig
	hw     AxisHardware
	in     *share.Reader[int16]
	logger turret.Logger

	tracker  *encoder.Tracker
	pi       *control.PI
	recorder *control.Recorder

	state    AxisState
	mode     GainMode
	resumed  uint32
	steps    int
	inBand   int
	moves    int
	waited   int
	segment  int
	fired    bool
	armed    bool
	aimed    bool
	lastAim  Aim
	lastDuty float64
}

func NewAxisTask(name string, cfg AxisConfig, hw AxisHardware, in *share.Reader[int16], logger turret.Logger) (*AxisTask, error) {
	if hw.Motor == nil {
		return nil, errors.New("axis " + name + " needs a motor")
	}
	if hw.Encoder == nil {
		return nil, errors.New("axis " + name + " needs an encoder")
	}
	if in == nil {
		return nil, errors.New("axis " + name + " needs an aim input")
	}
	err := cfg.Validate()
	if err != nil {
		return nil, errors.New("invalid config for axis " + name + ": " + err.Error())
	}

	if hw.Flywheel == nil {
		hw.Flywheel = noopMotor{}
	}
	if hw.Trigger == nil {
		hw.Trigger = noopOutput{}
	}
	if hw.Sleep == nil {
		hw.Sleep = time.Sleep
	}
	if logger == nil {
		logger = turret.NopLogger{}
	}

	a := &AxisTask{
		name:   name,
		cfg:    cfg,
		hw:     hw,
		in:     in,
		logger: logger,
	}
	if cfg.RecordSamples > 0 {
		a.recorder = control.NewRecorder(cfg.RecordSamples)
	}
	return a, nil
}

func (a *AxisTask) Name() string     { return a.name }
func (a *AxisTask) State() AxisState { return a.state }
func (a *AxisTask) Mode() GainMode   { return a.mode }
func (a *AxisTask) Moves() int       { return a.moves }
func (a *AxisTask) Fired() bool      { return a.fired }
func (a *AxisTask) Duty() float64    { return a.lastDuty }

// Recorder returns the step response log, nil unless RecordSamples is set
func (a *AxisTask) Recorder() *control.Recorder { return a.recorder }

// Position is the last sampled encoder position
func (a *AxisTask) Position() int64 {
	if a.tracker == nil {
		return 0
	}
	return a.tracker.Position()
}

func (a *AxisTask) Setpoint() float64 {
	if a.pi == nil {
		return a.cfg.Home
	}
	return a.pi.Setpoint()
}

// LastAim returns the most recent aim and whether there has been one
func (a *AxisTask) LastAim() (Aim, bool) {
	return a.lastAim, a.aimed
}

func (a *AxisTask) Step() {
	a.resumed++
	switch a.state {
	case AxisInit:
		a.init()
	case AxisMove:
		a.move()
	case AxisFire:
		a.fire()
	case AxisWait:
		a.wait()
	case AxisHalted:
	}
}

func (a *AxisTask) init() {
	a.tracker = encoder.New(a.hw.Encoder, a.hw.Modulus)
	a.pi = control.NewPI(a.cfg.Gains, a.cfg.Home, a.cfg.ErrorSumLimit)
	a.applyMode()
	if !a.fired {
		a.hw.Flywheel.SetDutyCycle(a.cfg.FlywheelDuty)
	}
	a.logger.Infow("axis.init", "axis", a.name, "home", a.cfg.Home, "position", a.tracker.Position())
	a.enterMove()
}

func (a *AxisTask) enterMove() {
	a.pi.ClearErrorSum(0)
	a.steps = 0
	a.inBand = 0
	a.state = AxisMove
	a.logger.Debugw("move.start", "axis", a.name, "setpoint", a.pi.Setpoint())
}

func (a *AxisTask) move() {
	pos := a.tracker.Read()
	sp := a.pi.Setpoint()

	if math.Abs(sp-float64(pos)) < a.cfg.Tolerance {
		a.inBand++
	} else {
		a.inBand = 0
	}
	if a.inBand > a.cfg.SettleSteps {
		a.finishMove(pos, true)
		return
	}

	a.drive(a.pi.Run(sp, float64(pos)))
	if a.recorder != nil {
		a.recorder.Record(control.Sample{Step: a.resumed, Setpoint: sp, Position: pos, Duty: a.lastDuty})
	}

	a.steps++
	if a.steps >= a.cfg.MaxSteps {
		a.finishMove(pos, false)
	}
}

func (a *AxisTask) drive(duty float64) {
	a.lastDuty = duty
	a.hw.Motor.SetDutyCycle(duty)
}

func (a *AxisTask) finishMove(pos int64, settled bool) {
	a.drive(0)
	a.moves++
	a.logger.Infow("move.done",
		"axis", a.name,
		"move", a.moves,
		"settled", settled,
		"steps", a.steps,
		"position", pos,
		"setpoint", a.pi.Setpoint(),
	)

	if a.fireDue() {
		a.segment = 0
		a.state = AxisFire
		a.logger.Infow("fire.start", "axis", a.name, "segments", a.cfg.Sequence.Segments())
		return
	}
	a.enterWait()
}

func (a *AxisTask) fireDue() bool {
	if a.fired {
		return false
	}
	return a.armed || (a.cfg.FireAfterMove > 0 && a.moves >= a.cfg.FireAfterMove)
}

// fire plays one segment per resumption so the scheduler regains control between pulses
func (a *AxisTask) fire() {
	a.cfg.Sequence.play(a.segment, a.hw.Trigger, a.hw.Sleep)
	a.segment++
	if a.segment < a.cfg.Sequence.Segments() {
		return
	}

	a.hw.Flywheel.SetDutyCycle(0)
	a.fired = true
	a.armed = false
	a.logger.Infow("fire.done", "axis", a.name, "move", a.moves)
	a.enterWait()
}

func (a *AxisTask) enterWait() {
	a.waited = 0
	a.state = AxisWait
}

func (a *AxisTask) wait() {
	if a.waited < a.cfg.WaitTicks {
		a.waited++
		return
	}

	// keep waiting until the camera publishes a value not aimed at yet
	if !a.in.Updated() {
		if a.waited == a.cfg.WaitTicks {
			a.waited++
			a.logger.Debugw("aim.stale", "axis", a.name, "setpoint", a.pi.Setpoint())
		}
		return
	}

	pos := a.tracker.Read()
	v := a.in.Get()
	sp := float64(pos) + a.cfg.Calibration.Offset(float64(v))
	a.pi.SetSetpoint(sp)
	if a.cfg.FineGains != nil {
		a.mode = GainFine
		a.applyMode()
	}
	a.lastAim = Aim{Value: v, Position: pos, Setpoint: sp}
	a.aimed = true
	a.logger.Infow("aim", "axis", a.name, "value", v, "position", pos, "setpoint", sp, "gains", a.mode)
	a.enterMove()
}

func (a *AxisTask) applyMode() {
	if a.pi == nil {
		return
	}
	if a.mode == GainFine && a.cfg.FineGains != nil {
		a.pi.SetGains(*a.cfg.FineGains)
		return
	}
	a.pi.SetGains(a.cfg.Gains)
}

// SetGainMode switches between the coarse and fine gain sets. The error sum is kept.
func (a *AxisTask) SetGainMode(m GainMode) {
	a.mode = m
	a.applyMode()
	a.logger.Infow("axis.gains", "axis", a.name, "gains", m)
}

// Zero makes the current position the origin. The setpoint moves with it so the axis does not
// jump.
func (a *AxisTask) Zero() {
	if a.tracker == nil {
		a.logger.Warnw("axis.zero", "axis", a.name, "error", "not initialized")
		return
	}
	pos := a.tracker.Read()
	a.tracker.Zero()
	a.pi.SetSetpoint(a.pi.Setpoint() - float64(pos))
	a.logger.Infow("axis.zero", "axis", a.name, "was", pos)
}

// Jog moves the setpoint by counts. A waiting or moving axis starts a new move right away.
func (a *AxisTask) Jog(counts int) {
	if a.pi == nil {
		a.logger.Warnw("axis.jog", "axis", a.name, "error", "not initialized")
		return
	}
	a.pi.SetSetpoint(a.pi.Setpoint() + float64(counts))
	a.logger.Infow("axis.jog", "axis", a.name, "counts", counts, "setpoint", a.pi.Setpoint())
	if a.state == AxisWait || a.state == AxisMove {
		a.enterMove()
	}
}

// ArmFire spins the flywheel up again and fires after the next completed move
func (a *AxisTask) ArmFire() {
	a.fired = false
	a.armed = true
	a.hw.Flywheel.SetDutyCycle(a.cfg.FlywheelDuty)
	a.logger.Infow("fire.armed", "axis", a.name)
}

// Halt stops every actuator and parks the task until Resume
func (a *AxisTask) Halt() {
	if a.state == AxisHalted {
		return
	}
	a.drive(0)
	a.hw.Trigger.Set(false)
	a.hw.Flywheel.SetDutyCycle(0)
	a.state = AxisHalted
	a.logger.Warnw("axis.halt", "axis", a.name, "position", a.Position())
}

// Resume restarts a halted axis with a move to its current setpoint. An interrupted fire sequence
// starts over after that move.
func (a *AxisTask) Resume() {
	if a.state != AxisHalted {
		return
	}
	a.logger.Infow("axis.resume", "axis", a.name)
	if a.pi == nil {
		a.state = AxisInit
		return
	}
	if !a.fired {
		a.hw.Flywheel.SetDutyCycle(a.cfg.FlywheelDuty)
	}
	a.enterMove()
}
