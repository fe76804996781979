//go:build tinygo

package device

import (
	"errors"
	"machine"
	"time"

	"tinygo.org/x/drivers/amg88xx"

	"github.com/jonoromo/turret/tasks"
	"github.com/jonoromo/turret/thermal"
)

const (
	cameraRows = 8
	cameraCols = 8

	// the AMG88xx produces a new frame every 100ms in its default 10 FPS mode
	cameraFramePeriod = 100 * time.Millisecond

	statusRegister = 0x04
)

// ThermalCamera is an AMG88xx 8x8 thermal sensor on I2C
type ThermalCamera struct {
	bus    *machine.I2C
	dev    amg88xx.Device
	pixels [cameraRows * cameraCols]int16
	frame  thermal.Frame
	last   time.Time
}

var _ tasks.Camera = &ThermalCamera{}

func NewThermalCamera(bus *machine.I2C) *ThermalCamera {
	return &ThermalCamera{
		bus:   bus,
		dev:   amg88xx.New(bus),
		frame: thermal.NewFrame(cameraRows, cameraCols),
	}
}

// Configure sets up the bus and checks the sensor answers before configuring it
func (c *ThermalCamera) Configure() error {
	err := c.bus.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})
	if err != nil {
		return errors.New("error configuring I2C: " + err.Error())
	}

	var status [1]byte
	err = c.bus.ReadRegister(uint8(c.dev.Address), statusRegister, status[:])
	if err != nil {
		return errors.New("camera not responding: " + err.Error())
	}

	c.dev.Configure(amg88xx.Config{})
	c.last = time.Now()
	return nil
}

// ImageNonBlocking returns a frame once a new one is due, converting millicelsius to Celsius
func (c *ThermalCamera) ImageNonBlocking() (thermal.Frame, bool) {
	if time.Since(c.last) < cameraFramePeriod {
		return thermal.Frame{}, false
	}
	c.last = time.Now()

	c.dev.ReadPixels(&c.pixels)
	for i, p := range c.pixels {
		c.frame.Pixels[i] = float32(p) / 1000
	}
	return c.frame, true
}
