package turret

import (
	"io"
	"sync"
)

// EventLogger writes every log call as an Event line. The firmware points it at the serial
// console and the simulator at whatever stands in for one.
type EventLogger struct {
	mu    sync.Mutex
	w     io.Writer
	now   func() uint32
	level Level
	buf   []byte
}

var _ Logger = &EventLogger{}

// NewEventLogger logs at LevelInfo and above. now returns the timestamp in milliseconds.
func NewEventLogger(w io.Writer, now func() uint32) *EventLogger {
	return &EventLogger{w: w, now: now, level: LevelInfo, buf: make([]byte, 0, 128)}
}

// SetLevel sets the lowest level that is written
func (l *EventLogger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *EventLogger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *EventLogger) Debugw(msg string, keysAndValues ...any) {
	l.log(LevelDebug, msg, keysAndValues)
}

func (l *EventLogger) Infow(msg string, keysAndValues ...any) {
	l.log(LevelInfo, msg, keysAndValues)
}

func (l *EventLogger) Warnw(msg string, keysAndValues ...any) {
	l.log(LevelWarn, msg, keysAndValues)
}

func (l *EventLogger) Errorw(msg string, keysAndValues ...any) {
	l.log(LevelError, msg, keysAndValues)
}

func (l *EventLogger) log(level Level, msg string, keysAndValues []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	l.buf = AppendEvent(l.buf[:0], Event{
		Millis: l.now(),
		Level:  level,
		Msg:    msg,
		Fields: Fields(keysAndValues...),
	})
	l.buf = append(l.buf, '\n')
	_, _ = l.w.Write(l.buf)
}
