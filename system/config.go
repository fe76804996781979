package system

import (
	"errors"

	"github.com/jonoromo/turret/tasks"
)

// Schedule is the priority and period of one task
type Schedule struct {
	Priority int    `yaml:"priority"`
	Period   uint32 `yaml:"period"`
}

// Config is the complete tunable configuration of the turret
type Config struct {
	Camera tasks.CameraConfig `yaml:"camera"`
	Pan    tasks.AxisConfig   `yaml:"pan"`

	CameraSchedule  Schedule `yaml:"camera_schedule"`
	PanSchedule     Schedule `yaml:"pan_schedule"`
	ConsoleSchedule Schedule `yaml:"console_schedule"`
}

// DefaultConfig runs the camera at priority 2 every 20 ticks and the pan axis at priority 1 every
// 10 ticks. With a 1ms tick the console is polled every 50ms below both.
func DefaultConfig() Config {
	return Config{
		Camera:          tasks.DefaultCameraConfig(),
		Pan:             tasks.DefaultAxisConfig(),
		CameraSchedule:  Schedule{Priority: 2, Period: 20},
		PanSchedule:     Schedule{Priority: 1, Period: 10},
		ConsoleSchedule: Schedule{Priority: 0, Period: 50},
	}
}

func (c Config) Validate() error {
	err := c.Camera.Validate()
	if err != nil {
		return errors.New("invalid camera config: " + err.Error())
	}
	err = c.Pan.Validate()
	if err != nil {
		return errors.New("invalid pan config: " + err.Error())
	}
	return nil
}
