//go:build tinygo

package device

import "runtime/interrupt"

// InterruptGuard is a sync.Locker that masks interrupts
type InterruptGuard struct {
	state interrupt.State
}

func (g *InterruptGuard) Lock() {
	g.state = interrupt.Disable()
}

func (g *InterruptGuard) Unlock() {
	interrupt.Restore(g.state)
}
