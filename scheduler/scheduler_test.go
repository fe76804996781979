package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter is a Machine counting its resumptions and recording the order of execution
type counter struct {
	name  string
	steps int
	log   *[]string
}

func (c *counter) Step() {
	c.steps++
	if c.log != nil {
		*c.log = append(*c.log, c.name)
	}
}

func mustTask(t *testing.T, name string, priority int, period uint32, m Machine) *Task {
	t.Helper()
	task, err := NewTask(name, priority, period, m)
	require.NoError(t, err)
	return task
}

func TestNewTask(t *testing.T) {
	_, err := NewTask("zero", 1, 0, &counter{})
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = NewTask("nil", 1, 1, nil)
	assert.Error(t, err)

	task := mustTask(t, "ok", 3, 20, &counter{})
	assert.Equal(t, "ok", task.Name())
	assert.Equal(t, 3, task.Priority())
	assert.Equal(t, uint32(20), task.Period())
	assert.Equal(t, StateReady, task.State())
	assert.Equal(t, -1, task.ID())
}

func TestHigherPriorityStarvesLower(t *testing.T) {
	a := &counter{name: "A"}
	b := &counter{name: "B"}

	s := New()
	require.NoError(t, s.Add(mustTask(t, "B", 1, 1, b)))
	require.NoError(t, s.Add(mustTask(t, "A", 2, 1, a)))

	for range 100 {
		s.Pass()
	}

	assert.Equal(t, 100, a.steps)
	assert.Equal(t, 0, b.steps)
	assert.Equal(t, uint32(100), s.Tick())
}

func TestPeriods(t *testing.T) {
	var log []string
	camera := &counter{name: "camera", log: &log}
	pan := &counter{name: "pan", log: &log}

	s := New()
	require.NoError(t, s.Add(mustTask(t, "camera", 2, 20, camera)))
	require.NoError(t, s.Add(mustTask(t, "pan", 1, 10, pan)))

	for range 200 {
		s.Pass()
	}

	// both run once per period; collisions only delay the lower priority task by one pass
	assert.Equal(t, 10, camera.steps)
	assert.Equal(t, 20, pan.steps)
	assert.Equal(t, []string{"camera", "pan", "pan", "camera", "pan"}, log[:5])

	for _, task := range s.Tasks() {
		assert.LessOrEqual(t, task.Stats().MaxLate, uint32(1), task.Name())
	}
}

func TestTieBreakByRegistrationOrder(t *testing.T) {
	var log []string
	s := New()
	require.NoError(t, s.Add(mustTask(t, "first", 1, 2, &counter{name: "first", log: &log})))
	require.NoError(t, s.Add(mustTask(t, "second", 1, 2, &counter{name: "second", log: &log})))

	for range 6 {
		s.Pass()
	}

	assert.Equal(t, []string{"first", "second", "first", "second", "first", "second"}, log)
}

func TestIdlePass(t *testing.T) {
	c := &counter{}
	s := New()
	require.NoError(t, s.Add(mustTask(t, "slow", 1, 5, c)))

	assert.NotNil(t, s.Pass())
	for range 4 {
		assert.Nil(t, s.Pass())
	}
	assert.NotNil(t, s.Pass())
	assert.Equal(t, 2, c.steps)
}

func TestTrigger(t *testing.T) {
	c := &counter{}
	s := New()
	task := mustTask(t, "console", 1, 100, c)
	require.NoError(t, s.Add(task))

	s.Pass()
	assert.Nil(t, s.Next())
	assert.Equal(t, StateSuspended, task.State())

	task.Trigger()
	assert.Equal(t, task, s.Next())
	assert.Equal(t, StateReady, task.State())
	s.Pass()
	assert.Equal(t, 2, c.steps)
	assert.Nil(t, s.Next())
}

func TestReadyWhenDue(t *testing.T) {
	s := New()
	task := mustTask(t, "slow", 1, 3, &counter{})
	require.NoError(t, s.Add(task))

	assert.Equal(t, task, s.Pass())
	assert.Equal(t, StateSuspended, task.State())

	for range 2 {
		assert.Nil(t, s.Pass())
		assert.Equal(t, StateSuspended, task.State())
	}

	// period elapsed
	assert.Equal(t, task, s.Next())
	assert.Equal(t, StateReady, task.State())

	assert.Equal(t, task, s.Pass())
	assert.Equal(t, StateSuspended, task.State())
}

func TestStateWhileRunning(t *testing.T) {
	s := New()
	var task *Task
	var observed State
	task = mustTask(t, "self", 1, 1, MachineFunc(func() { observed = task.State() }))
	require.NoError(t, s.Add(task))

	s.Pass()
	assert.Equal(t, StateRunning, observed)
	assert.Equal(t, StateSuspended, task.State())
}

func TestAdd(t *testing.T) {
	s := New()
	task := mustTask(t, "t0", 1, 1, &counter{})
	require.NoError(t, s.Add(task))
	assert.Equal(t, 0, task.ID())
	assert.Error(t, s.Add(task))

	for i := 1; i < MaxTasks; i++ {
		require.NoError(t, s.Add(mustTask(t, "t", 1, 1, &counter{})))
	}
	assert.ErrorIs(t, s.Add(mustTask(t, "extra", 1, 1, &counter{})), ErrTaskListFull)

	s2 := New()
	s2.Pass()
	assert.ErrorIs(t, s2.Add(mustTask(t, "late", 1, 1, &counter{})), ErrRunning)
}

func TestRunStopsOnCancel(t *testing.T) {
	mock := clock.NewMock()
	ticker := mock.Ticker(time.Millisecond)
	defer ticker.Stop()

	ran := make(chan struct{}, 1)
	s := New()
	require.NoError(t, s.Add(mustTask(t, "t", 1, 1, MachineFunc(func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- s.Run(ctx, ticker.C)
	}()

	mock.Add(time.Millisecond)
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("no pass on tick")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRunFreeRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New()
	require.NoError(t, s.Add(mustTask(t, "stopper", 1, 1, MachineFunc(func() {
		if s.Tick() == 50 {
			cancel()
		}
	}))))

	err := s.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(51), s.Tick())
}

func TestString(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(mustTask(t, "camera", 2, 20, &counter{})))
	require.NoError(t, s.Add(mustTask(t, "a_very_long_task_name", 1, 10, &counter{})))
	s.Pass()

	out := s.String()
	assert.True(t, strings.HasPrefix(out, "tick=1\n"))
	assert.Contains(t, out, "camera")
	assert.Contains(t, out, "a_very_long_task_name 1")
	assert.Equal(t, 4, strings.Count(out, "\n"))
}
