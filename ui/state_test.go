package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonoromo/turret"
)

func TestPhaseNext(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected phase
	}{
		{"Start", []string{"@0 INFO turret.start tasks=3"}, phaseHoming},
		{"Homed", []string{"@0 INFO axis.init axis=pan", "@800 INFO move.done axis=pan move=1"}, phaseSearching},
		{"Aim", []string{"@0 INFO axis.init axis=pan", "@800 INFO move.done axis=pan move=1", "@4310 INFO aim axis=pan value=1850"}, phaseAiming},
		{"Engagement", []string{
			"@0 INFO axis.init axis=pan",
			"@800 INFO move.done axis=pan move=1",
			"@4310 INFO aim axis=pan value=1850",
			"@5110 INFO move.done axis=pan move=2",
			"@5110 INFO fire.start axis=pan segments=5",
			"@5920 INFO fire.done axis=pan move=2",
			"@6300 INFO aim axis=pan value=1850",
		}, phaseDone},
		{"Halt", []string{"@0 INFO axis.init axis=pan", "@10 WARN axis.halt axis=pan"}, phaseHalted},
		{"Resume", []string{"@10 WARN axis.halt axis=pan", "@20 INFO axis.resume axis=pan"}, phaseAiming},
		{"Fault", []string{"@0 INFO axis.init axis=pan", "@8560 ERROR camera.fault attempts=3"}, phaseFault},
		{"Rearm", []string{"@8560 ERROR camera.fault attempts=3", "@9000 INFO camera.rearm state=Init"}, phaseSearching},
		{"Ignored", []string{"@10 INFO status pan=Wait"}, phaseNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := phaseNone
			for _, line := range tt.lines {
				e, err := turret.ParseEvent(line)
				require.NoError(t, err)
				p = p.next(e)
			}
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		name       string
		millis     int64
		showMillis bool
		expected   string
	}{
		{"Zero", 0, false, "00:00"},
		{"Seconds", 59_999, false, "00:59"},
		{"Minutes", 125_000, false, "02:05"},
		{"Millis", 5_920, true, "00:05.920"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatElapsed(time.Duration(tt.millis)*time.Millisecond, tt.showMillis))
		})
	}
}
