package turret

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogger(t *testing.T) {
	var out bytes.Buffer
	millis := uint32(0)
	l := NewEventLogger(&out, func() uint32 { return millis })

	l.Debugw("hidden")
	millis = 20
	l.Infow("camera.publish", "value", int16(1500))
	millis = 4310
	l.Warnw("move.done", "settled", false, "setpoint", 733.75)
	l.Errorw("camera.fault", "attempts", 3)

	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.Level())
	l.Debugw("move.start")

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"@20 INFO camera.publish value=1500",
		"@4310 WARN move.done settled=false setpoint=733.75",
		"@4310 ERROR camera.fault attempts=3",
		"@4310 DEBUG move.start",
	}, lines)

	e, err := ParseEvent(lines[1])
	require.NoError(t, err)
	sp, ok := e.Float("setpoint")
	assert.True(t, ok)
	assert.Equal(t, 733.75, sp)
}
