// Package control implements the proportional-integral position controller used by the axis task.
package control

// DefaultErrorSumLimit is the anti-windup ceiling on the accumulated error, in encoder counts
const DefaultErrorSumLimit = 20000

// Gains is a proportional/integral gain pair
type Gains struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
}

// PI is a proportional-integral controller with a clamped error sum. The output is a signed duty
// cycle in percent and is not saturated here; the motor driver clamps it.
type PI struct {
	gains         Gains
	setpoint      float64
	errorSum      float64
	errorSumLimit float64
}

// NewPI creates a controller. A limit of 0 uses DefaultErrorSumLimit.
func NewPI(gains Gains, setpoint float64, errorSumLimit float64) *PI {
	if errorSumLimit <= 0 {
		errorSumLimit = DefaultErrorSumLimit
	}
	return &PI{
		gains:         gains,
		setpoint:      setpoint,
		errorSumLimit: errorSumLimit,
	}
}

// Run computes the duty cycle for the given setpoint and measured position. The integral term uses
// the error accumulated by previous calls, so the first Run after ClearErrorSum(0) is purely
// proportional. The current error is then added and the sum clamped to the ceiling.
func (c *PI) Run(setpoint, actual float64) float64 {
	err := setpoint - actual
	out := c.gains.Kp*err + c.gains.Ki*c.errorSum

	c.errorSum += err
	if c.errorSum > c.errorSumLimit {
		c.errorSum = c.errorSumLimit
	} else if c.errorSum < -c.errorSumLimit {
		c.errorSum = -c.errorSumLimit
	}

	return out
}

// Step runs the controller against the stored setpoint
func (c *PI) Step(actual float64) float64 {
	return c.Run(c.setpoint, actual)
}

// ClearErrorSum sets the accumulated error, normally to 0 at the start of a move
func (c *PI) ClearErrorSum(v float64) {
	c.errorSum = v
}

// ErrorSum returns the accumulated (clamped) error
func (c *PI) ErrorSum() float64 {
	return c.errorSum
}

// SetProportionalGain changes Kp; it applies from the next Run
func (c *PI) SetProportionalGain(kp float64) {
	c.gains.Kp = kp
}

// SetIntegralGain changes Ki; it applies from the next Run and does not touch the error sum
func (c *PI) SetIntegralGain(ki float64) {
	c.gains.Ki = ki
}

// SetGains replaces both gains
func (c *PI) SetGains(g Gains) {
	c.gains = g
}

func (c *PI) Gains() Gains {
	return c.gains
}

func (c *PI) SetSetpoint(sp float64) {
	c.setpoint = sp
}

func (c *PI) Setpoint() float64 {
	return c.setpoint
}
