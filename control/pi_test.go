package control

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunProportionalOnly(t *testing.T) {
	tests := []struct {
		name     string
		kp       float64
		setpoint float64
		actual   float64
	}{
		{"Positive", 0.075, 730, 0},
		{"Negative", 0.075, -200, 100},
		{"Zero", 0.2, 55, 55},
		{"Fractional", 0.075, 733.75, 730},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPI(Gains{Kp: tt.kp, Ki: 0.001}, 0, 0)
			c.ClearErrorSum(0)
			assert.Equal(t, tt.kp*(tt.setpoint-tt.actual), c.Run(tt.setpoint, tt.actual))
			assert.Equal(t, tt.setpoint-tt.actual, c.ErrorSum())
		})
	}
}

func TestClearThenRunIsProportional(t *testing.T) {
	c := NewPI(Gains{Kp: 0.075, Ki: 0.5}, 0, 0)
	for range 10 {
		c.Run(1000, 0)
	}
	c.ClearErrorSum(0)
	assert.Equal(t, 0.075*(730.0-12.0), c.Run(730, 12))
}

func TestAntiWindup(t *testing.T) {
	c := NewPI(Gains{Kp: 0, Ki: 1}, 0, 500)

	var out float64
	for range 100 {
		out = c.Run(1000, 0)
		assert.LessOrEqual(t, c.ErrorSum(), 500.0)
	}
	assert.Equal(t, 500.0, c.ErrorSum())
	assert.Equal(t, 500.0, out)

	for range 100 {
		out = c.Run(-1000, 0)
		assert.GreaterOrEqual(t, c.ErrorSum(), -500.0)
	}
	assert.Equal(t, -500.0, out)
}

func TestDefaultLimit(t *testing.T) {
	c := NewPI(Gains{Ki: 1}, 0, 0)
	for range 30 {
		c.Run(1000, 0)
	}
	assert.Equal(t, float64(DefaultErrorSumLimit), c.ErrorSum())
}

func TestGainChangeIsLive(t *testing.T) {
	c := NewPI(Gains{Kp: 0.075, Ki: 0.001}, 100, 0)

	c.ClearErrorSum(0)
	first := c.Step(0)
	assert.InDelta(t, 0.075*100, first, 1e-9)

	c.SetIntegralGain(0.1)
	second := c.Step(0)
	// error sum carries over untouched, only the gain changed
	assert.InDelta(t, 0.075*100+0.1*100, second, 1e-9)
	assert.Equal(t, Gains{Kp: 0.075, Ki: 0.1}, c.Gains())

	c.SetProportionalGain(1)
	c.SetSetpoint(50)
	assert.Equal(t, 50.0, c.Setpoint())
	assert.InDelta(t, 1*50+0.1*200, c.Step(0), 1e-9)
	assert.Equal(t, 250.0, c.ErrorSum())
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(3)
	assert.Equal(t, 0, r.Len())

	for i := range 5 {
		r.Record(Sample{Step: uint32(i), Setpoint: 10, Position: int64(i * 2), Duty: 1.5})
	}
	require.Equal(t, 3, r.Len())

	samples := r.Samples()
	assert.Equal(t, uint32(2), samples[0].Step)
	assert.Equal(t, uint32(4), samples[2].Step)

	var buf bytes.Buffer
	require.NoError(t, r.WriteCSV(&buf))
	assert.Equal(t, `step,setpoint,position,duty
2,10,4,1.500
3,10,6,1.500
4,10,8,1.500
`, buf.String())

	r.Reset()
	assert.Empty(t, r.Samples())
}
