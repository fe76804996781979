// Package encoder turns a free-running quadrature counter into an unbounded signed position.
package encoder

// DefaultModulus is the wrap period of a 16-bit hardware counter
const DefaultModulus = 1 << 16

// Counter is the raw hardware counter. Count returns a value in [0, modulus).
type Counter interface {
	Count() uint32
}

// CounterFunc adapts a function to Counter
type CounterFunc func() uint32

func (f CounterFunc) Count() uint32 { return f() }

// Tracker accumulates wrap-corrected deltas between consecutive counter samples. Correctness
// depends on the counter moving less than half the modulus between two calls to Read.
type Tracker struct {
	counter  Counter
	modulus  int64
	position int64
	last     int64
}

// New creates a Tracker for a counter with the given modulus. A modulus of 0 uses DefaultModulus.
// The counter is sampled once so the first Read only reflects motion after construction.
func New(counter Counter, modulus uint32) *Tracker {
	m := int64(modulus)
	if m == 0 {
		m = DefaultModulus
	}
	t := &Tracker{counter: counter, modulus: m}
	t.Sync()
	return t
}

// Read samples the counter, folds the delta into (-modulus/2, modulus/2) and returns the
// accumulated position
func (t *Tracker) Read() int64 {
	current := int64(t.counter.Count()) % t.modulus
	t.position += t.fold(current - t.last)
	t.last = current
	return t.position
}

func (t *Tracker) fold(delta int64) int64 {
	half := t.modulus / 2
	switch {
	case delta >= half:
		delta -= t.modulus
	case delta <= -half:
		delta += t.modulus
	}
	return delta
}

// Zero resets the position. The last raw sample is kept so wrap correction stays continuous.
func (t *Tracker) Zero() {
	t.position = 0
}

// Position returns the last accumulated position without sampling the counter
func (t *Tracker) Position() int64 {
	return t.position
}

// Sync re-seeds the last raw sample from the counter without changing the position. Use it after
// the counter has been reconfigured or reset underneath the tracker.
func (t *Tracker) Sync() {
	t.last = int64(t.counter.Count()) % t.modulus
}

// Modulus returns the counter wrap period
func (t *Tracker) Modulus() uint32 {
	return uint32(t.modulus)
}
