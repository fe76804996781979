// Package scheduler runs a fixed set of tasks cooperatively: each pass resumes the highest-priority
// task whose period has elapsed for exactly one step. There is no preemption and no task is ever
// created or removed after startup.
package scheduler

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// MaxTasks bounds the task set so the scheduler never allocates after startup
const MaxTasks = 8

var (
	ErrTaskListFull = errors.New("task list is full")
	ErrRunning      = errors.New("tasks cannot be added after the scheduler has started")
)

// Scheduler owns the task set and the tick counter
type Scheduler struct {
	tasks   [MaxTasks]*Task
	n       int
	tick    uint32
	started bool
}

// New creates an empty Scheduler
func New() *Scheduler {
	return &Scheduler{}
}

// Add registers a task. Registration order breaks priority ties: the first registered wins.
func (s *Scheduler) Add(t *Task) error {
	if s.started {
		return ErrRunning
	}
	if s.n == MaxTasks {
		return ErrTaskListFull
	}
	for _, existing := range s.tasks[:s.n] {
		if existing == t {
			return errors.New("task " + t.name + " is already registered")
		}
	}

	t.id = s.n
	s.tasks[s.n] = t
	s.n++
	return nil
}

// Tasks returns the registered tasks in registration order
func (s *Scheduler) Tasks() []*Task {
	return s.tasks[:s.n]
}

// Tick returns the current tick counter
func (s *Scheduler) Tick() uint32 {
	return s.tick
}

// Next returns the task the next pass would resume, or nil if none is due
func (s *Scheduler) Next() *Task {
	t, _ := s.next()
	return t
}

func (s *Scheduler) next() (*Task, uint32) {
	var (
		selected *Task
		late     uint32
	)
	for _, t := range s.tasks[:s.n] {
		ok, l := t.due(s.tick)
		if !ok {
			continue
		}
		if selected == nil || t.priority > selected.priority {
			selected = t
			late = l
		}
	}
	return selected, late
}

// Pass performs one scheduler pass: it resumes the highest-priority due task for one step, then
// advances the tick. It returns the task that ran, or nil when no task was due.
func (s *Scheduler) Pass() *Task {
	s.started = true

	t, late := s.next()
	if t != nil {
		t.run(s.tick, late)
	}
	s.tick++
	return t
}

// Run performs one pass per value received on ticks until ctx is cancelled. A nil ticks channel runs
// passes back to back. Tasks are not cleaned up on return.
func (s *Scheduler) Run(ctx context.Context, ticks <-chan time.Time) error {
	for {
		if ticks == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticks:
			}
		}

		s.Pass()
	}
}

// String renders a status table of the task set
func (s *Scheduler) String() string {
	out := "tick=" + strconv.FormatUint(uint64(s.tick), 10) + "\n"
	out += "id name             pri period runs     late max_late state\n"
	for _, t := range s.tasks[:s.n] {
		out += pad(strconv.Itoa(t.id), 3) +
			pad(t.name, 17) +
			pad(strconv.Itoa(t.priority), 4) +
			pad(strconv.FormatUint(uint64(t.period), 10), 7) +
			pad(strconv.FormatUint(uint64(t.stats.Runs), 10), 9) +
			pad(strconv.FormatUint(uint64(t.stats.Late), 10), 5) +
			pad(strconv.FormatUint(uint64(t.stats.MaxLate), 10), 9) +
			t.state.String() + "\n"
	}
	return out
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}
	for len(s) < width {
		s += " "
	}
	return s
}
