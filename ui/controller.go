package ui

import (
	"fmt"
	"io"
	"time"
)

// controllerWrapper turns button presses into console commands
type controllerWrapper struct {
	writer         io.Writer
	lastEventTimer *timer
}

func (c *controllerWrapper) send(format string, args ...any) {
	c.lastEventTimer.Set(time.Now())
	fmt.Fprintf(c.writer, format+"\n", args...)
}

func (c *controllerWrapper) Zero() { c.send("Z") }

func (c *controllerWrapper) RearmCamera() { c.send("C") }

func (c *controllerWrapper) Jog(counts int) {
	if counts == 0 {
		return
	}
	c.send("J%+d", counts)
}

func (c *controllerWrapper) SetGainMode(mode string) {
	switch mode {
	case "coarse":
		c.send("G c")
	case "fine":
		c.send("G f")
	}
}

func (c *controllerWrapper) ArmFire() { c.send("A") }

func (c *controllerWrapper) Halt() { c.send("X") }

func (c *controllerWrapper) Resume() { c.send("R") }

func (c *controllerWrapper) Debug() { c.send("D") }

func (c *controllerWrapper) Verbose() { c.send("V") }
