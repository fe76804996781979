package tasks

import (
	"math"
	"testing"
	"time"

	"github.com/jonoromo/turret/control"
	"github.com/jonoromo/turret/share"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// plant is an integrating motor: every duty cycle update moves the shaft by duty*gain counts. Its
// 16-bit counter starts at origin.
type plant struct {
	origin uint32
	gain   float64
	pos    float64
	duties []float64
}

func (p *plant) SetDutyCycle(d float64) {
	p.duties = append(p.duties, d)
	p.pos += d * p.gain
}

func (p *plant) Count() uint32 {
	return uint32(int64(p.origin)+int64(math.Round(p.pos))) & 0xFFFF
}

type dutyLog []float64

func (d *dutyLog) SetDutyCycle(v float64) { *d = append(*d, v) }

type edgeLog []bool

func (e *edgeLog) Set(high bool) { *e = append(*e, high) }

type axisFixture struct {
	axis     *AxisTask
	plant    *plant
	flywheel *dutyLog
	trigger  *edgeLog
	sleeps   []time.Duration
	aim      *share.Writer[int16]
}

func newAxis(t *testing.T, cfg AxisConfig) *axisFixture {
	t.Helper()
	f := &axisFixture{
		plant:    &plant{origin: 65000, gain: 10},
		flywheel: &dutyLog{},
		trigger:  &edgeLog{},
	}
	w, r := share.New[int16]("aim", nil)
	f.aim = w

	a, err := NewAxisTask("pan", cfg, AxisHardware{
		Motor:    f.plant,
		Encoder:  f.plant,
		Flywheel: f.flywheel,
		Trigger:  f.trigger,
		Sleep:    func(d time.Duration) { f.sleeps = append(f.sleeps, d) },
	}, r, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	f.axis = a
	return f
}

func (f *axisFixture) stepUntil(t *testing.T, max int, done func() bool) int {
	t.Helper()
	for i := 1; i <= max; i++ {
		f.axis.Step()
		if done() {
			return i
		}
	}
	t.Fatalf("condition not reached after %d steps, state %s", max, f.axis.State())
	return 0
}

func (f *axisFixture) home(t *testing.T) {
	t.Helper()
	f.stepUntil(t, 200, func() bool { return f.axis.Moves() == 1 })
}

func quietConfig() AxisConfig {
	cfg := DefaultAxisConfig()
	cfg.FireAfterMove = 0
	cfg.WaitTicks = 2
	return cfg
}

func TestCalibrationOffset(t *testing.T) {
	cal := DefaultAxisConfig().Calibration

	tests := []struct {
		value    float64
		expected float64
	}{
		{1500, 3.75},
		{1450, 0},
		{1350, -5.5},
		{0, -79.75},
		{3100, 123.75},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.InDelta(t, tt.expected, cal.Offset(tt.value), 1e-9)
		})
	}
}

func TestAxisHomeMove(t *testing.T) {
	cfg := quietConfig()
	cfg.RecordSamples = 200
	f := newAxis(t, cfg)

	f.axis.Step()
	assert.Equal(t, AxisMove, f.axis.State())
	assert.Equal(t, dutyLog{50}, *f.flywheel)

	f.home(t)
	assert.Equal(t, AxisWait, f.axis.State())
	assert.InDelta(t, 730, float64(f.axis.Position()), 10)
	assert.Equal(t, 0.0, f.plant.duties[len(f.plant.duties)-1])
	assert.Equal(t, 0.0, f.axis.Duty())

	// the counter wrapped through zero on the way
	assert.Less(t, f.plant.Count(), uint32(1000))

	// every step but the stop is recorded
	samples := f.axis.Recorder().Samples()
	assert.Len(t, samples, len(f.plant.duties)-1)
	assert.Equal(t, 730.0, samples[0].Setpoint)
	assert.Equal(t, int64(0), samples[0].Position)
	assert.InDelta(t, 0.075*730, samples[0].Duty, 1e-9)

	// samples are numbered by axis resumption; the first one is init
	assert.Equal(t, uint32(2), samples[0].Step)
	assert.Equal(t, uint32(3), samples[1].Step)
}

func TestAxisMaxSteps(t *testing.T) {
	cfg := quietConfig()
	f := newAxis(t, cfg)
	f.plant.gain = 0

	f.axis.Step()
	for i := 0; i < cfg.MaxSteps; i++ {
		assert.Equal(t, AxisMove, f.axis.State())
		f.axis.Step()
	}
	assert.Equal(t, AxisWait, f.axis.State())
	assert.Equal(t, 1, f.axis.Moves())
	assert.Len(t, f.plant.duties, cfg.MaxSteps+1)
}

func TestAxisAimsFromSharedValue(t *testing.T) {
	f := newAxis(t, quietConfig())
	f.home(t)
	pos := f.axis.Position()

	f.aim.Put(1500)

	f.axis.Step()
	f.axis.Step()
	_, aimed := f.axis.LastAim()
	assert.False(t, aimed)

	f.axis.Step()
	aim, aimed := f.axis.LastAim()
	require.True(t, aimed)
	assert.Equal(t, int16(1500), aim.Value)
	assert.Equal(t, pos, aim.Position)
	assert.InDelta(t, float64(pos)+3.75, aim.Setpoint, 1e-9)
	assert.InDelta(t, float64(pos)+3.75, f.axis.Setpoint(), 1e-9)

	assert.Equal(t, AxisMove, f.axis.State())
	assert.Equal(t, GainFine, f.axis.Mode())
	assert.Equal(t, control.Gains{Kp: 0.075, Ki: 0.1}, f.axis.pi.Gains())
	assert.Equal(t, 0.0, f.axis.pi.ErrorSum())
}

func TestAxisAimBelowThreshold(t *testing.T) {
	f := newAxis(t, quietConfig())
	f.home(t)
	pos := f.axis.Position()

	f.aim.Put(1350)
	f.stepUntil(t, 10, func() bool {
		_, ok := f.axis.LastAim()
		return ok
	})

	aim, _ := f.axis.LastAim()
	assert.InDelta(t, float64(pos)-5.5, aim.Setpoint, 1e-9)
}

func TestAxisWaitsForFreshAim(t *testing.T) {
	f := newAxis(t, quietConfig())
	f.home(t)

	for i := 0; i < 50; i++ {
		f.axis.Step()
	}
	assert.Equal(t, AxisWait, f.axis.State())
	_, aimed := f.axis.LastAim()
	assert.False(t, aimed)
	assert.Equal(t, 730.0, f.axis.Setpoint())
	assert.Equal(t, GainCoarse, f.axis.Mode())

	f.aim.Put(1450)
	f.axis.Step()
	assert.Equal(t, AxisMove, f.axis.State())
	_, aimed = f.axis.LastAim()
	assert.True(t, aimed)

	// the same value is only aimed at once
	f.stepUntil(t, 100, func() bool { return f.axis.Moves() == 2 })
	for i := 0; i < 50; i++ {
		f.axis.Step()
	}
	assert.Equal(t, AxisWait, f.axis.State())
	assert.Equal(t, 2, f.axis.Moves())
}

func TestAxisFiresOnce(t *testing.T) {
	cfg := DefaultAxisConfig()
	cfg.WaitTicks = 0
	f := newAxis(t, cfg)

	// the move home does not fire
	f.home(t)
	assert.Equal(t, AxisWait, f.axis.State())

	f.aim.Put(1450)
	f.stepUntil(t, 100, func() bool { return f.axis.State() == AxisFire })
	assert.Equal(t, 2, f.axis.Moves())
	assert.Empty(t, *f.trigger)

	f.stepUntil(t, cfg.Sequence.Segments(), func() bool { return f.axis.Fired() })
	assert.Equal(t, AxisWait, f.axis.State())

	fired := edgeLog{false, true, false, true, false, true, false, true, false}
	assert.Equal(t, fired, *f.trigger)
	assert.Equal(t, []time.Duration{
		120 * time.Millisecond,
		2 * time.Millisecond,
		318 * time.Millisecond,
		500 * time.Microsecond,
		119 * time.Millisecond,
		200 * time.Millisecond,
	}, f.sleeps)

	var slept time.Duration
	for _, d := range f.sleeps {
		slept += d
	}
	assert.Equal(t, cfg.Sequence.Duration(), slept)
	assert.Equal(t, dutyLog{50, 0}, *f.flywheel)

	// later moves never fire again
	for moves := 3; moves < 6; moves++ {
		f.aim.Put(1450)
		f.stepUntil(t, 100, func() bool { return f.axis.Moves() == moves })
	}
	f.axis.Step()
	assert.Equal(t, AxisWait, f.axis.State())
	assert.Equal(t, fired, *f.trigger)

	// until armed by hand
	f.axis.ArmFire()
	assert.False(t, f.axis.Fired())
	assert.Equal(t, dutyLog{50, 0, 50}, *f.flywheel)
	f.axis.Jog(1)
	f.stepUntil(t, 100, func() bool { return f.axis.Fired() })
	assert.Len(t, *f.trigger, 2*len(fired))
	assert.Equal(t, dutyLog{50, 0, 50, 0}, *f.flywheel)
}

func TestAxisHaltResume(t *testing.T) {
	f := newAxis(t, quietConfig())

	for i := 0; i < 5; i++ {
		f.axis.Step()
	}
	require.Equal(t, AxisMove, f.axis.State())

	f.axis.Halt()
	assert.Equal(t, AxisHalted, f.axis.State())
	assert.Equal(t, 0.0, f.plant.duties[len(f.plant.duties)-1])
	assert.Equal(t, dutyLog{50, 0}, *f.flywheel)
	assert.Equal(t, edgeLog{false}, *f.trigger)

	n := len(f.plant.duties)
	for i := 0; i < 10; i++ {
		f.axis.Step()
	}
	assert.Len(t, f.plant.duties, n)

	f.axis.Resume()
	assert.Equal(t, AxisMove, f.axis.State())
	assert.Equal(t, dutyLog{50, 0, 50}, *f.flywheel)

	f.home(t)
	assert.InDelta(t, 730, float64(f.axis.Position()), 10)
}

func TestAxisHaltBeforeInit(t *testing.T) {
	f := newAxis(t, quietConfig())

	f.axis.Halt()
	f.axis.Step()
	assert.Equal(t, AxisHalted, f.axis.State())

	f.axis.Resume()
	assert.Equal(t, AxisInit, f.axis.State())
	f.axis.Step()
	assert.Equal(t, AxisMove, f.axis.State())
}

func TestAxisJogAndZero(t *testing.T) {
	cfg := quietConfig()
	cfg.WaitTicks = 1000
	f := newAxis(t, cfg)

	// ignored before init
	f.axis.Jog(10)
	f.axis.Zero()

	f.home(t)
	require.Equal(t, AxisWait, f.axis.State())

	f.axis.Jog(100)
	assert.Equal(t, AxisMove, f.axis.State())
	assert.Equal(t, 830.0, f.axis.Setpoint())

	f.stepUntil(t, 200, func() bool { return f.axis.Moves() == 2 })
	pos := f.axis.Position()
	assert.InDelta(t, 830, float64(pos), 10)

	f.axis.Zero()
	assert.Equal(t, int64(0), f.axis.Position())
	assert.Equal(t, 830-float64(pos), f.axis.Setpoint())
	assert.Equal(t, AxisWait, f.axis.State())

	f.axis.Jog(-50)
	assert.Equal(t, 780-float64(pos), f.axis.Setpoint())
}

func TestAxisGainMode(t *testing.T) {
	f := newAxis(t, quietConfig())

	f.axis.SetGainMode(GainFine)
	f.axis.Step()
	assert.Equal(t, control.Gains{Kp: 0.075, Ki: 0.1}, f.axis.pi.Gains())

	f.axis.SetGainMode(GainCoarse)
	assert.Equal(t, control.Gains{Kp: 0.075, Ki: 0.001}, f.axis.pi.Gains())
	assert.Equal(t, "coarse", f.axis.Mode().String())
}

func TestNewAxisTaskErrors(t *testing.T) {
	p := &plant{}
	_, r := share.New[int16]("aim", nil)

	tests := []struct {
		name string
		cfg  func(*AxisConfig)
		hw   AxisHardware
		in   *share.Reader[int16]
	}{
		{"NoMotor", nil, AxisHardware{Encoder: p}, r},
		{"NoEncoder", nil, AxisHardware{Motor: p}, r},
		{"NoInput", nil, AxisHardware{Motor: p, Encoder: p}, nil},
		{"ZeroMaxSteps", func(c *AxisConfig) { c.MaxSteps = 0 }, AxisHardware{Motor: p, Encoder: p}, r},
		{"BadTolerance", func(c *AxisConfig) { c.Tolerance = 0 }, AxisHardware{Motor: p, Encoder: p}, r},
		{"BadFlywheel", func(c *AxisConfig) { c.FlywheelDuty = 120 }, AxisHardware{Motor: p, Encoder: p}, r},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAxisConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			_, err := NewAxisTask("pan", cfg, tt.hw, tt.in, nil)
			assert.Error(t, err)
		})
	}
}
