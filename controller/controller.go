// Package controller is the host side of the turret. It bridges a terminal (or the UI) to the
// firmware's serial console, parses the event lines the firmware writes, and uploads the
// engagement to a report server.
package controller

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/jonoromo/turret"
	"github.com/jonoromo/turret/config"
	"github.com/jonoromo/turret/report"
)

const defaultBaudRate = 115200

type Config struct {
	// SerialPort is the firmware console. Empty picks the first USB serial port and
	// SerialPortNone runs the firmware in simulation.
	SerialPort string
	BaudRate   string
	// ReportAddr is the report server. Empty disables reporting.
	ReportAddr string
	// Name is the engagement name sent to the report server
	Name string
	// SimConfig is a YAML file for the simulated firmware
	SimConfig string
}

// ConfigFromEnv reads TURRET_SERIAL_PORT, TURRET_BAUD_RATE, TURRET_REPORT_ADDR, TURRET_NAME and
// TURRET_SIM_CONFIG
func ConfigFromEnv() Config {
	return Config{
		SerialPort: os.Getenv("TURRET_SERIAL_PORT"),
		BaudRate:   os.Getenv("TURRET_BAUD_RATE"),
		ReportAddr: os.Getenv("TURRET_REPORT_ADDR"),
		Name:       os.Getenv("TURRET_NAME"),
		SimConfig:  os.Getenv("TURRET_SIM_CONFIG"),
	}
}

func (c Config) baudRate() (int, error) {
	if c.BaudRate == "" {
		return defaultBaudRate, nil
	}
	baud, err := strconv.Atoi(c.BaudRate)
	if err != nil || baud <= 0 {
		return 0, fmt.Errorf("invalid baud rate %q", c.BaudRate)
	}
	return baud, nil
}

// Controller owns the connection to the firmware
type Controller struct {
	cfg    Config
	port   io.ReadWriteCloser
	report reportClient
	logger *zap.SugaredLogger
	clock  clock.Clock

	mu     sync.Mutex
	result report.Result
}

func NewFromEnv(logger *zap.SugaredLogger) (*Controller, error) {
	return New(ConfigFromEnv(), logger)
}

func New(cfg Config, logger *zap.SugaredLogger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	port, err := open(cfg)
	if err != nil {
		return nil, err
	}

	return newWithPort(cfg, port, logger), nil
}

func open(cfg Config) (io.ReadWriteCloser, error) {
	if cfg.SerialPort == SerialPortNone {
		simCfg := config.Default()
		if cfg.SimConfig != "" {
			var err error
			simCfg, err = config.Load(cfg.SimConfig)
			if err != nil {
				return nil, err
			}
		}
		return newSimPort(simCfg, clock.New())
	}

	baud, err := cfg.baudRate()
	if err != nil {
		return nil, err
	}
	return openSerial(cfg.SerialPort, baud)
}

func newWithPort(cfg Config, port io.ReadWriteCloser, logger *zap.SugaredLogger) *Controller {
	var rc reportClient = noopReportClient{}
	if cfg.ReportAddr != "" {
		rc = report.NewClient(cfg.ReportAddr)
	}

	return &Controller{
		cfg:    cfg,
		port:   port,
		report: rc,
		logger: logger,
		clock:  clock.New(),
	}
}

// Result is what the controller has seen of the engagement so far
func (c *Controller) Result() report.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Run forwards lines from r to the firmware and copies the firmware's output to w until ctx is
// cancelled or the port fails. The end of r does not stop Run, so the UI can keep running when
// stdin is closed.
func (c *Controller) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	name := c.cfg.Name
	if name == "" {
		name = "engagement-" + c.clock.Now().Format("20060102-150405")
	}
	id, err := c.report.CreateEngagement(ctx, name, c.clock.Now())
	if err != nil {
		return fmt.Errorf("error creating engagement: %w", err)
	}
	if id != "" {
		c.logger.Infow("created engagement", "id", id, "name", name)
	}

	errs := make(chan error, 2)
	go func() {
		err := c.forward(ctx, r)
		if err != nil {
			errs <- err
		}
	}()
	go func() {
		errs <- c.read(ctx, w)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errs:
		return err
	}
}

// Send writes one console command to the firmware
func (c *Controller) Send(command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}
	_, err := io.WriteString(c.port, command+"\n")
	if err != nil {
		return fmt.Errorf("error writing command: %w", err)
	}
	c.logger.Debugw("sent command", "command", command)
	return nil
}

func (c *Controller) forward(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		err := c.Send(scanner.Text())
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}

// read splits the port output into lines itself because a serial read returns (0, nil) on timeout
func (c *Controller) read(ctx context.Context, w io.Writer) error {
	buf := make([]byte, 256)
	var pending []byte
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := c.port.Read(buf)
		pending = append(pending, buf[:n]...)
		for {
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			line := strings.TrimRight(string(pending[:i]), "\r")
			pending = pending[i+1:]
			c.handleLine(ctx, line, w)
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("error reading serial: %w", err)
		}
	}
}

func (c *Controller) handleLine(ctx context.Context, line string, w io.Writer) {
	_, err := fmt.Fprintln(w, line)
	if err != nil {
		c.logger.Warnw("error writing output", "error", err)
	}

	e, err := turret.ParseEvent(line)
	if err != nil {
		if strings.HasPrefix(line, string(turret.EventPrefix)) {
			c.logger.Warnw("invalid event", "line", line, "error", err)
		}
		return
	}
	c.handleEvent(ctx, e)
}

func (c *Controller) handleEvent(ctx context.Context, e turret.Event) {
	if e.Level < turret.LevelInfo {
		return
	}

	now := c.clock.Now()
	err := c.report.AddEvent(ctx, e, now)
	if err != nil {
		c.logger.Warnw("error reporting event", "msg", e.Msg, "error", err)
	}

	c.mu.Lock()
	switch e.Msg {
	case "aim":
		if v, ok := e.Float("value"); ok {
			c.result.Aim = int16(v)
		}
		if sp, ok := e.Float("setpoint"); ok {
			c.result.Setpoint = sp
		}
	case "move.done":
		if pos, ok := e.Float("position"); ok {
			c.result.Position = int64(pos)
		}
	case "fire.done":
		c.result.Fired = true
	}
	result := c.result
	c.mu.Unlock()

	switch e.Msg {
	case "fire.done":
		c.logger.Infow("engagement fired", "aim", result.Aim, "position", result.Position, "setpoint", result.Setpoint)
		err = c.report.SetResult(ctx, result)
		if err != nil {
			c.logger.Warnw("error reporting result", "error", err)
		}
	case "turret.stop":
		err = c.report.Done(ctx, now)
		if err != nil {
			c.logger.Warnw("error finishing engagement", "error", err)
		}
	}
}

func (c *Controller) Close() error {
	if c.port == nil {
		return nil
	}
	err := c.port.Close()
	if err != nil {
		return fmt.Errorf("error closing port: %w", err)
	}
	return nil
}
