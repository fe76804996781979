package sim

import (
	"errors"
	"math"

	"github.com/jonoromo/turret/thermal"
)

// CameraConfig describes a thermal camera mounted on the pan axis looking at one warm target
type CameraConfig struct {
	Rows    int     `yaml:"rows"`
	Cols    int     `yaml:"cols"`
	Ambient float32 `yaml:"ambient"`
	Hot     float32 `yaml:"hot"`
	// Target is the pan position, in encoder counts, that points straight at the target
	Target float64 `yaml:"target"`
	// Centre is the image column on the pan axis
	Centre float64 `yaml:"centre"`
	// CountsPerColumn is the pan motion that moves the image by one pixel
	CountsPerColumn float64 `yaml:"counts_per_column"`
	// ReadyAfter is how many polls a frame takes
	ReadyAfter int `yaml:"ready_after"`
	// FailConfigure makes the first configure attempts fail
	FailConfigure int `yaml:"fail_configure"`
}

// DefaultCameraConfig is a 24x32 sensor whose pixel pitch matches the aim calibration above the
// threshold, 7.5 counts per column, mounted so that column 14.5 looks along the barrel
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Rows:            24,
		Cols:            32,
		Ambient:         21,
		Hot:             34,
		Target:          700,
		Centre:          14.5,
		CountsPerColumn: 7.5,
		ReadyAfter:      3,
	}
}

// Camera renders the target as a two column wide warm stripe at the column it appears in from
// the current pan position
type Camera struct {
	cfg        CameraConfig
	pan        *Plant
	configures int
	polls      int
	frames     int
}

func NewCamera(cfg CameraConfig, pan *Plant) *Camera {
	return &Camera{cfg: cfg, pan: pan}
}

func (c *Camera) Configure() error {
	c.configures++
	if c.configures <= c.cfg.FailConfigure {
		return errors.New("camera did not acknowledge")
	}
	c.polls = 0
	return nil
}

func (c *Camera) ImageNonBlocking() (thermal.Frame, bool) {
	c.polls++
	if c.polls <= c.cfg.ReadyAfter {
		return thermal.Frame{}, false
	}
	c.polls = 0
	c.frames++
	return c.Render(), true
}

// SetTarget moves the target
func (c *Camera) SetTarget(counts float64) {
	c.cfg.Target = counts
}

// Frames is the number of frames delivered
func (c *Camera) Frames() int { return c.frames }

// Column is where the centre of the target appears from the current pan position
func (c *Camera) Column() float64 {
	return c.cfg.Centre + (c.cfg.Target-c.pan.Position())/c.cfg.CountsPerColumn
}

// Render draws the current view
func (c *Camera) Render() thermal.Frame {
	f := thermal.NewFrame(c.cfg.Rows, c.cfg.Cols)
	c0 := int(math.Floor(c.Column()))
	for r := 0; r < f.Rows; r++ {
		for col := 0; col < f.Cols; col++ {
			v := c.cfg.Ambient
			if col == c0 || col == c0+1 {
				v = c.cfg.Hot
			}
			f.Set(r, col, v)
		}
	}
	return f
}
