//go:build tinygo

package device

import (
	"io"
	"time"

	"github.com/jonoromo/turret"
)

// NewConsoleLogger writes event lines to the serial console, stamped with the uptime
func NewConsoleLogger(w io.Writer) *turret.EventLogger {
	start := time.Now()
	return turret.NewEventLogger(w, func() uint32 {
		return uint32(time.Since(start) / time.Millisecond)
	})
}
