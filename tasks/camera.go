package tasks

import (
	"errors"
	"math"

	"github.com/jonoromo/turret"
	"github.com/jonoromo/turret/share"
	"github.com/jonoromo/turret/thermal"
)

// Camera is a thermal camera that can be polled without blocking
type Camera interface {
	Configure() error
	ImageNonBlocking() (thermal.Frame, bool)
}

type CameraState int

const (
	CameraInit CameraState = iota
	CameraCapture
	CameraReduce
	CameraIdle
)

func (s CameraState) String() string {
	switch s {
	case CameraInit:
		return "Init"
	case CameraCapture:
		return "WaitAndCapture"
	case CameraReduce:
		return "Reduce"
	case CameraIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// CameraTask takes one picture after a delay, reduces it to a single aim value and publishes it.
// Each call to Step does at most one camera operation.
type CameraTask struct {
	cfg     CameraConfig
	camera  Camera
	reducer thermal.Reducer
	out     *share.Writer[int16]
	logger  turret.Logger

	state    CameraState
	attempts int
	waited   int
	polls    int
	frame    thermal.Frame
	faulted  bool
	last     int16
	captures int
}

func NewCameraTask(cfg CameraConfig, camera Camera, out *share.Writer[int16], logger turret.Logger) (*CameraTask, error) {
	if camera == nil {
		return nil, errors.New("camera is required")
	}
	if out == nil {
		return nil, errors.New("camera output is required")
	}
	err := cfg.Validate()
	if err != nil {
		return nil, errors.New("invalid camera config: " + err.Error())
	}
	reducer, err := cfg.Reducer()
	if err != nil {
		return nil, errors.New("invalid camera config: " + err.Error())
	}
	if logger == nil {
		logger = turret.NopLogger{}
	}

	return &CameraTask{
		cfg:     cfg,
		camera:  camera,
		reducer: reducer,
		out:     out,
		logger:  logger,
	}, nil
}

// SetReducer replaces the configured reducer
func (c *CameraTask) SetReducer(r thermal.Reducer) {
	c.reducer = r
}

func (c *CameraTask) State() CameraState { return c.state }

// Faulted is true once the task gave up on the camera
func (c *CameraTask) Faulted() bool { return c.faulted }

// Last returns the most recently published value and whether one has been published
func (c *CameraTask) Last() (int16, bool) { return c.last, c.captures > 0 }

// Rearm schedules another picture. A faulted task starts over from configuration.
func (c *CameraTask) Rearm() {
	switch {
	case c.faulted:
		c.faulted = false
		c.attempts = 0
		c.state = CameraInit
	case c.state == CameraIdle:
		c.waited = 0
		c.polls = 0
		c.state = CameraCapture
	default:
		return
	}
	c.logger.Infow("camera.rearm", "state", c.state)
}

func (c *CameraTask) Step() {
	switch c.state {
	case CameraInit:
		c.configure()
	case CameraCapture:
		c.capture()
	case CameraReduce:
		c.reduce()
	case CameraIdle:
	}
}

func (c *CameraTask) configure() {
	c.attempts++
	err := c.camera.Configure()
	if err != nil {
		c.logger.Warnw("camera.configure", "attempt", c.attempts, "error", err)
		c.giveUpIfExhausted()
		return
	}

	c.waited = 0
	c.polls = 0
	c.state = CameraCapture
	c.logger.Infow("camera.ready", "attempt", c.attempts)
}

func (c *CameraTask) capture() {
	if c.waited < c.cfg.WaitTicks {
		c.waited++
		return
	}

	frame, ok := c.camera.ImageNonBlocking()
	if !ok {
		c.miss()
		return
	}

	c.frame = frame
	c.state = CameraReduce
}

func (c *CameraTask) reduce() {
	v, ok := c.reducer.Reduce(c.frame)
	if !ok {
		// nothing hot enough in view, look again
		c.logger.Warnw("camera.no_target")
		c.state = CameraCapture
		c.miss()
		return
	}

	c.last = toInt16(math.Round(v * c.cfg.Scale))
	c.captures++
	c.out.Put(c.last)
	c.state = CameraIdle
	c.logger.Infow("camera.publish", "value", c.last, "raw", v)
}

// miss counts a poll that produced nothing usable
func (c *CameraTask) miss() {
	c.polls++
	if c.cfg.MaxPolls == 0 || c.polls < c.cfg.MaxPolls {
		return
	}
	c.logger.Warnw("camera.timeout", "polls", c.polls, "attempt", c.attempts)
	c.state = CameraInit
	c.giveUpIfExhausted()
}

func (c *CameraTask) giveUpIfExhausted() {
	if c.cfg.MaxAttempts == 0 || c.attempts < c.cfg.MaxAttempts {
		return
	}
	c.faulted = true
	c.state = CameraIdle
	c.logger.Errorw("camera.fault", "attempts", c.attempts)
}

func toInt16(v float64) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}
