package motor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPWM fails the test if both channels are ever non-zero at once
type recordingPWM struct {
	t        *testing.T
	top      uint32
	channels map[uint8]uint32
}

func newRecordingPWM(t *testing.T) *recordingPWM {
	return &recordingPWM{t: t, top: 1000, channels: map[uint8]uint32{}}
}

func (p *recordingPWM) Set(channel uint8, value uint32) {
	p.channels[channel] = value
	active := 0
	for _, v := range p.channels {
		if v > 0 {
			active++
		}
	}
	assert.LessOrEqual(p.t, active, 1, "both H-bridge channels active")
}

func (p *recordingPWM) Top() uint32 { return p.top }

type pin struct{ high bool }

func (p *pin) Set(v bool) { p.high = v }

func TestSetDutyCycle(t *testing.T) {
	tests := []struct {
		name     string
		duty     float64
		expected float64
		forward  uint32
		reverse  uint32
	}{
		{"Forward", 50, 50, 500, 0},
		{"Reverse", -25, -25, 0, 250},
		{"Off", 0, 0, 0, 0},
		{"ClampForward", 180, 100, 1000, 0},
		{"ClampReverse", -1e6, -100, 0, 1000},
		{"Fraction", 0.26, 0.26, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwm := newRecordingPWM(t)
			d, err := New(Config{PWM: pwm, Forward: 2, Reverse: 1})
			require.NoError(t, err)

			d.SetDutyCycle(tt.duty)
			assert.Equal(t, tt.expected, d.Duty())
			assert.Equal(t, tt.forward, pwm.channels[2])
			assert.Equal(t, tt.reverse, pwm.channels[1])
		})
	}
}

func TestDirectionChanges(t *testing.T) {
	pwm := newRecordingPWM(t)
	d, err := New(Config{PWM: pwm, Forward: 2, Reverse: 1})
	require.NoError(t, err)

	for _, duty := range []float64{100, -100, 40, -3, 0, 75} {
		d.SetDutyCycle(duty)
	}

	d.Stop()
	assert.Zero(t, pwm.channels[1])
	assert.Zero(t, pwm.channels[2])
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{PWM: newRecordingPWM(t), Forward: 1, Reverse: 1})
	assert.Error(t, err)

	enable := &pin{}
	_, err = New(Config{PWM: newRecordingPWM(t), Forward: 1, Reverse: 2, Enable: enable})
	require.NoError(t, err)
	assert.True(t, enable.high)
}
