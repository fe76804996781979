package controller

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/jonoromo/turret/config"
	"github.com/jonoromo/turret/sim"
)

// simPort runs the firmware on simulated hardware in real time and looks like a serial port:
// writes are typed on the simulated console and reads return what the firmware prints.
type simPort struct {
	sim *sim.Sim
	r   *io.PipeReader
	w   *io.PipeWriter

	cancel context.CancelFunc
	done   chan error
}

var _ io.ReadWriteCloser = &simPort{}

func newSimPort(cfg config.Config, clk clock.Clock) (*simPort, error) {
	r, w := io.Pipe()

	s, err := sim.New(cfg.Sim, cfg.Turret, w)
	if err != nil {
		return nil, fmt.Errorf("error creating simulation: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &simPort{
		sim:    s,
		r:      r,
		w:      w,
		cancel: cancel,
		done:   make(chan error, 1),
	}

	go func() {
		p.done <- s.Run(ctx, clk)
	}()

	return p, nil
}

func (p *simPort) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func (p *simPort) Write(b []byte) (int, error) {
	p.sim.Console().Type(string(b))
	return len(b), nil
}

// Close stops the simulation. The read side is closed first so the firmware's last events do
// not block on a pipe nobody reads anymore.
func (p *simPort) Close() error {
	err := p.r.Close()
	p.cancel()

	runErr := <-p.done
	if !errors.Is(runErr, context.Canceled) {
		err = multierr.Append(err, runErr)
	}
	return multierr.Append(err, p.w.Close())
}
