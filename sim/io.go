package sim

import (
	"errors"
	"io"
	"sync"
	"time"
)

// Edge is one level change of a Pin
type Edge struct {
	At   time.Duration
	High bool
}

// Pin is a digital output that records every write with the simulated time
type Pin struct {
	now   func() time.Duration
	high  bool
	edges []Edge
}

func (p *Pin) Set(high bool) {
	p.high = high
	p.edges = append(p.edges, Edge{At: p.now(), High: high})
}

func (p *Pin) High() bool { return p.high }

func (p *Pin) Edges() []Edge { return p.edges }

// Pulses counts the rising edges
func (p *Pin) Pulses() int {
	n := 0
	prev := false
	for _, e := range p.edges {
		if e.High && !prev {
			n++
		}
		prev = e.High
	}
	return n
}

var errNoInput = errors.New("no input")

// Console is a serial console. Input is queued with Type and read one byte at a time without
// blocking; output goes to the writer it was created with.
type Console struct {
	mu  sync.Mutex
	in  []byte
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = io.Discard
	}
	return &Console{out: out}
}

// Type queues input as if it were typed on the terminal
func (c *Console) Type(s string) {
	c.mu.Lock()
	c.in = append(c.in, s...)
	c.mu.Unlock()
}

func (c *Console) ReadByte() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.in) == 0 {
		return 0, errNoInput
	}
	b := c.in[0]
	c.in = c.in[1:]
	return b, nil
}

func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Write(p)
}
