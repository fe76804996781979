//go:build tinygo

package device

import (
	"errors"
	"machine"
	"sync/atomic"

	"github.com/jonoromo/turret/encoder"
)

// Quadrature decodes an incremental encoder on two pins with pin-change interrupts. It counts
// every edge of both channels (4x decoding) and wraps like a 16-bit hardware counter.
type Quadrature struct {
	a, b  machine.Pin
	count atomic.Uint32
}

var _ encoder.Counter = &Quadrature{}

func NewQuadrature(a, b machine.Pin) (*Quadrature, error) {
	q := &Quadrature{a: a, b: b}
	for _, p := range []machine.Pin{a, b} {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}

	err := a.SetInterrupt(machine.PinToggle, q.edgeA)
	if err != nil {
		return nil, errors.New("error setting interrupt on A: " + err.Error())
	}
	err = b.SetInterrupt(machine.PinToggle, q.edgeB)
	if err != nil {
		return nil, errors.New("error setting interrupt on B: " + err.Error())
	}
	return q, nil
}

func (q *Quadrature) edgeA(machine.Pin) {
	if q.a.Get() == q.b.Get() {
		q.count.Add(^uint32(0))
		return
	}
	q.count.Add(1)
}

func (q *Quadrature) edgeB(machine.Pin) {
	if q.a.Get() == q.b.Get() {
		q.count.Add(1)
		return
	}
	q.count.Add(^uint32(0))
}

func (q *Quadrature) Count() uint32 {
	return q.count.Load() % encoder.DefaultModulus
}
