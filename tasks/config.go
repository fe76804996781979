package tasks

import (
	"errors"

	"github.com/jonoromo/turret/control"
	"github.com/jonoromo/turret/thermal"
)

// CameraConfig tunes the acquisition task. Tick counts are in task resumptions, so the wall time
// they represent depends on the task period.
type CameraConfig struct {
	// WaitTicks is how many resumptions to wait before polling for a frame
	WaitTicks int `yaml:"wait_ticks"`
	// MaxPolls bounds the polls for one frame before the camera is reconfigured; 0 polls forever
	MaxPolls int `yaml:"max_polls"`
	// MaxAttempts bounds configure attempts before the task gives up; 0 retries forever
	MaxAttempts int `yaml:"max_attempts"`
	// Scale converts the reduced value to the published integer
	Scale float64 `yaml:"scale"`

	// Reduction selects how a frame becomes the published value; empty means ReductionHotColumn
	Reduction      Reduction              `yaml:"reduction"`
	HotColumn      thermal.HotColumn      `yaml:"hot_column"`
	PercentileMean thermal.PercentileMean `yaml:"percentile_mean"`
}

// Reduction names a thermal.Reducer in the camera config
type Reduction string

const (
	ReductionHotColumn      Reduction = "hot_column"
	ReductionPercentileMean Reduction = "percentile_mean"
)

// Reducer returns the reducer Reduction selects
func (c CameraConfig) Reducer() (thermal.Reducer, error) {
	switch c.Reduction {
	case "", ReductionHotColumn:
		return c.HotColumn, nil
	case ReductionPercentileMean:
		if c.PercentileMean.Lo < 0 || c.PercentileMean.Hi > 100 || c.PercentileMean.Lo > c.PercentileMean.Hi {
			return nil, errors.New("percentile range must be within 0-100 and ordered")
		}
		return c.PercentileMean, nil
	default:
		return nil, errors.New("unknown reduction: " + string(c.Reduction))
	}
}

// DefaultCameraConfig waits 200 resumptions (4s at a 20ms period) before taking one picture and
// publishes the mean hot column times 100
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		WaitTicks:   200,
		MaxPolls:    500,
		MaxAttempts: 3,
		Scale:       100,
		Reduction:   ReductionHotColumn,
		HotColumn: thermal.HotColumn{
			Limits:    thermal.Limits{Lo: 0, Hi: 99},
			Threshold: 90,
		},
		PercentileMean: thermal.PercentileMean{Lo: 90, Hi: 100},
	}
}

func (c CameraConfig) Validate() error {
	if c.WaitTicks < 0 || c.MaxPolls < 0 || c.MaxAttempts < 0 {
		return errors.New("camera tick budgets must not be negative")
	}
	if c.Scale == 0 {
		return errors.New("camera scale must not be 0")
	}
	_, err := c.Reducer()
	return err
}

// Calibration maps a camera value onto an encoder offset with two linear segments that meet at
// Threshold (the camera value of a target dead ahead)
type Calibration struct {
	Threshold  float64 `yaml:"threshold"`
	BelowSlope float64 `yaml:"below_slope"`
	AboveSlope float64 `yaml:"above_slope"`
}

// Offset returns the encoder count offset for camera value v
func (c Calibration) Offset(v float64) float64 {
	if v < c.Threshold {
		return c.BelowSlope * (v - c.Threshold)
	}
	return c.AboveSlope * (v - c.Threshold)
}

// AxisConfig parameterizes one closed-loop axis: its gains, motion limits, aiming calibration and
// firing policy
type AxisConfig struct {
	Gains control.Gains `yaml:"gains"`
	// FineGains replace Gains after each aim; nil keeps Gains
	FineGains     *control.Gains `yaml:"fine_gains"`
	ErrorSumLimit float64        `yaml:"error_sum_limit"`

	// Home is the first setpoint, in encoder counts
	Home float64 `yaml:"home"`
	// MaxSteps bounds one move
	MaxSteps int `yaml:"max_steps"`
	// Tolerance is the settling band in encoder counts
	Tolerance float64 `yaml:"tolerance"`
	// SettleSteps is how many consecutive in-band steps must be exceeded to count as settled
	SettleSteps int `yaml:"settle_steps"`
	// WaitTicks is how many resumptions to wait between moves before aiming
	WaitTicks int `yaml:"wait_ticks"`

	Calibration Calibration `yaml:"calibration"`

	// FireAfterMove fires once when this many moves have completed; 0 never fires on its own
	FireAfterMove int           `yaml:"fire_after_move"`
	FlywheelDuty  float64       `yaml:"flywheel_duty"`
	Sequence      Sequence      `yaml:"sequence"`
	RecordSamples int           `yaml:"record_samples"`
}

// DefaultAxisConfig is the pan axis: a 180 degree sweep to 730 counts, then one camera-aimed
// correction with a higher integral gain, then a single shot
func DefaultAxisConfig() AxisConfig {
	return AxisConfig{
		Gains:         control.Gains{Kp: 0.075, Ki: 0.001},
		FineGains:     &control.Gains{Kp: 0.075, Ki: 0.1},
		ErrorSumLimit: control.DefaultErrorSumLimit,
		Home:          730,
		MaxSteps:      80,
		Tolerance:     10,
		SettleSteps:   5,
		WaitTicks:     350,
		Calibration: Calibration{
			Threshold:  1450,
			BelowSlope: 0.055,
			AboveSlope: 0.075,
		},
		FireAfterMove: 2,
		FlywheelDuty:  50,
		Sequence:      DefaultSequence(),
	}
}

func (c AxisConfig) Validate() error {
	if c.MaxSteps < 1 {
		return errors.New("axis max steps must be at least 1")
	}
	if c.Tolerance <= 0 {
		return errors.New("axis tolerance must be positive")
	}
	if c.SettleSteps < 0 || c.WaitTicks < 0 || c.FireAfterMove < 0 || c.RecordSamples < 0 {
		return errors.New("axis step counts must not be negative")
	}
	if c.FlywheelDuty < 0 || c.FlywheelDuty > 100 {
		return errors.New("flywheel duty must be within 0-100")
	}
	return nil
}
