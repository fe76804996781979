package scheduler

import "errors"

// ErrInvalidPeriod is returned for a task period of 0 ticks
var ErrInvalidPeriod = errors.New("task period must be at least 1 tick")

// Machine is a task's state machine. Step advances it by one state transition or wait and returns
// control to the scheduler; it must never loop without returning.
type Machine interface {
	Step()
}

// MachineFunc adapts a function to Machine
type MachineFunc func()

func (f MachineFunc) Step() { f() }

// State is the scheduling state of a Task
type State int

const (
	StateReady State = iota
	StateRunning
	StateSuspended
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateSuspended:
		return "Suspended"
	default:
		return "Unknown"
	}
}

// Stats are the run statistics of a Task
type Stats struct {
	Runs    uint32
	LastRun uint32
	// Late is the total number of ticks runs started after they were due
	Late uint32
	// MaxLate is the worst single lateness in ticks
	MaxLate uint32
}

// Task is one cooperatively scheduled state machine with a fixed priority and period
type Task struct {
	id       int
	name     string
	priority int
	period   uint32
	machine  Machine

	state     State
	started   bool
	triggered bool
	stats     Stats
}

// NewTask creates a task. Higher priority values are more urgent; period is the minimum number of
// ticks between two resumptions.
func NewTask(name string, priority int, period uint32, m Machine) (*Task, error) {
	if period < 1 {
		return nil, ErrInvalidPeriod
	}
	if m == nil {
		return nil, errors.New("task " + name + " has no state machine")
	}
	return &Task{
		id:       -1,
		name:     name,
		priority: priority,
		period:   period,
		machine:  m,
		state:    StateReady,
	}, nil
}

func (t *Task) ID() int          { return t.id }
func (t *Task) Name() string     { return t.name }
func (t *Task) Priority() int    { return t.priority }
func (t *Task) Period() uint32   { return t.period }
func (t *Task) State() State     { return t.state }
func (t *Task) Stats() Stats     { return t.stats }
func (t *Task) Machine() Machine { return t.machine }

// Trigger makes the task due on the next pass regardless of its period. It is safe to call from
// another task's Step.
func (t *Task) Trigger() {
	t.triggered = true
}

// due reports whether the task may run at tick now and how many ticks past its due time it is. A
// suspended task becomes ready again once it is due.
func (t *Task) due(now uint32) (bool, uint32) {
	if !t.started || t.triggered {
		t.state = StateReady
		return true, 0
	}
	elapsed := now - t.stats.LastRun
	if elapsed < t.period {
		return false, 0
	}
	t.state = StateReady
	return true, elapsed - t.period
}

func (t *Task) run(now uint32, late uint32) {
	t.state = StateRunning
	t.machine.Step()

	t.state = StateSuspended
	t.started = true
	t.triggered = false
	t.stats.Runs++
	t.stats.LastRun = now
	t.stats.Late += late
	if late > t.stats.MaxLate {
		t.stats.MaxLate = late
	}
}
