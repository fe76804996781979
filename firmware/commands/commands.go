package commands

import (
	"errors"
	"strconv"

	"github.com/jonoromo/turret"
	"github.com/jonoromo/turret/tasks"
)

// HelpCommand is not in commands so its Run can range over them
const (
	helpFlag        = 'H'
	helpDescription = "Show all available commands and their descriptions."
)

// maxLine bounds a console line. Longer lines are dropped.
const maxLine = 16

type Command struct {
	Flag byte
	// InputSize is the maximum number of input bytes after the flag
	InputSize   uint
	Run         func(Controller, []byte) error
	Description string
}

// Controller is the turret as seen from the serial console
type Controller interface {
	Zero()
	RearmCamera()
	Jog(int)
	SetGainMode(tasks.GainMode)
	ArmFire()
	Halt()
	Resume()
	Debug()
	Verbose()

	// I/O
	ReadByte() (byte, error)
	Write([]byte) (int, error)
}

var (
	ZeroCommand = &Command{
		Flag: 'Z',
		Run: func(c Controller, _ []byte) error {
			c.Zero()
			return nil
		},
		Description: "Make the current pan position the origin.",
	}
	CameraCommand = &Command{
		Flag: 'C',
		Run: func(c Controller, _ []byte) error {
			c.RearmCamera()
			return nil
		},
		Description: "Take another thermal picture and publish a new aim value.",
	}
	JogCommand = &Command{
		Flag:      'J',
		InputSize: 6,
		Run: func(c Controller, input []byte) error {
			n, err := strconv.Atoi(string(input))
			if err != nil || n == 0 {
				return errors.New("invalid input: " + string(input))
			}
			c.Jog(n)
			return nil
		},
		Description: "Move the pan setpoint by encoder counts. Input: signed count, e.g. '+100' or '-25'.",
	}
	GainCommand = &Command{
		Flag:      'G',
		InputSize: 1,
		Run: func(c Controller, input []byte) error {
			if len(input) != 1 {
				return errors.New("invalid input: " + string(input))
			}
			switch input[0] {
			case 'c':
				c.SetGainMode(tasks.GainCoarse)
			case 'f':
				c.SetGainMode(tasks.GainFine)
			default:
				return errors.New("invalid input: " + string(input))
			}
			return nil
		},
		Description: "Switch controller gains. Input: 'c' (coarse) or 'f' (fine).",
	}
	ArmCommand = &Command{
		Flag: 'A',
		Run: func(c Controller, _ []byte) error {
			c.ArmFire()
			return nil
		},
		Description: "Spin up the flywheel and fire after the next move.",
	}
	HaltCommand = &Command{
		Flag: 'X',
		Run: func(c Controller, _ []byte) error {
			c.Halt()
			return nil
		},
		Description: "Stop all motors and hold.",
	}
	ResumeCommand = &Command{
		Flag: 'R',
		Run: func(c Controller, _ []byte) error {
			c.Resume()
			return nil
		},
		Description: "Resume after a halt.",
	}
	DebugCommand = &Command{
		Flag: 'D',
		Run: func(c Controller, _ []byte) error {
			c.Debug()
			return nil
		},
		Description: "Print the task table and current state.",
	}
	VerboseCommand = &Command{
		Flag: 'V',
		Run: func(c Controller, _ []byte) error {
			c.Verbose()
			return nil
		},
		Description: "Toggle verbose output.",
	}
	HelpCommand = &Command{
		Flag:        helpFlag,
		Description: helpDescription,
		Run: func(c Controller, _ []byte) error {
			_, err := c.Write([]byte("Available Commands:\n"))
			if err != nil {
				return err
			}
			for _, cmd := range commands {
				err = writeHelp(c, cmd)
				if err != nil {
					return err
				}
			}
			return writeHelp(c, &Command{Flag: helpFlag, Description: helpDescription})
		},
	}
)

var commands = []*Command{
	ZeroCommand,
	CameraCommand,
	JogCommand,
	GainCommand,
	ArmCommand,
	HaltCommand,
	ResumeCommand,
	DebugCommand,
	VerboseCommand,
}

func writeHelp(c Controller, cmd *Command) error {
	_, err := c.Write([]byte(string(cmd.Flag) + ": " + cmd.Description + "\n"))
	return err
}

// Commands returns every command including help
func Commands() []*Command {
	return append(append([]*Command{}, commands...), HelpCommand)
}

// Parse splits a console line into its command and input. Spaces are ignored.
func Parse(line []byte) (*Command, []byte, error) {
	line = trimSpace(line)
	if len(line) == 0 {
		return nil, nil, errors.New("empty command")
	}

	var cmd *Command
	for _, c := range Commands() {
		if c.Flag == line[0] {
			cmd = c
			break
		}
	}
	if cmd == nil {
		return nil, nil, errors.New("unknown command: " + string(line[0]))
	}

	input := trimSpace(line[1:])
	if uint(len(input)) > cmd.InputSize {
		return nil, nil, errors.New("input too long for " + string(cmd.Flag) + ": " + string(input))
	}
	return cmd, input, nil
}

func trimSpace(b []byte) []byte {
	for len(b) > 0 && b[0] == ' ' {
		b = b[1:]
	}
	for len(b) > 0 && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}
	return b
}

// Console reads commands from the controller without blocking. It is a scheduler task: each Step
// drains the available bytes and runs at most one complete command.
type Console struct {
	c      Controller
	logger turret.Logger

	buf      [maxLine]byte
	n        int
	overflow bool
}

func NewConsole(c Controller, logger turret.Logger) *Console {
	if logger == nil {
		logger = turret.NopLogger{}
	}
	return &Console{c: c, logger: logger}
}

func (s *Console) Step() {
	for {
		b, err := s.c.ReadByte()
		if err != nil {
			return
		}

		if b != '\n' && b != '\r' {
			s.append(b)
			continue
		}

		if s.overflow {
			s.logger.Warnw("console.overflow", "max", maxLine)
			s.reset()
			continue
		}
		if s.n == 0 {
			continue
		}

		line := make([]byte, s.n)
		copy(line, s.buf[:s.n])
		s.reset()
		s.run(line)
		return
	}
}

func (s *Console) append(b byte) {
	if s.n == len(s.buf) {
		s.overflow = true
		return
	}
	s.buf[s.n] = b
	s.n++
}

func (s *Console) reset() {
	s.n = 0
	s.overflow = false
}

func (s *Console) run(line []byte) {
	cmd, input, err := Parse(line)
	if err != nil {
		s.logger.Warnw("console.error", "error", err)
		return
	}

	s.logger.Debugw("console.command", "command", string(cmd.Flag), "input", string(input))
	err = cmd.Run(s.c, input)
	if err != nil {
		s.logger.Warnw("console.error", "command", string(cmd.Flag), "error", err)
	}
}
