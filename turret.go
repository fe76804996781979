package turret

import (
	"errors"
	"strconv"
	"strings"
)

// EventPrefix starts every event line the firmware writes to the serial console
const EventPrefix = '@'

// Level is the severity of an Event
type Level int

const (
	LevelUnknown Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		fallthrough
	case LevelUnknown:
		return "UNKNOWN"
	}
}

// ParseLevel is the inverse of Level.String
func ParseLevel(s string) Level {
	switch s {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelUnknown
	}
}

// Logger is the key/value logging surface shared by the firmware and host code. It is the subset
// of *zap.SugaredLogger used by the tasks, so the host passes zap directly and the firmware
// provides a println-based implementation.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

// NopLogger discards everything
type NopLogger struct{}

var _ Logger = NopLogger{}

func (NopLogger) Debugw(string, ...any) {}
func (NopLogger) Infow(string, ...any)  {}
func (NopLogger) Warnw(string, ...any)  {}
func (NopLogger) Errorw(string, ...any) {}

// Field is one key=value pair of an Event
type Field struct {
	Key   string
	Value string
}

// Event is one structured log line sent from the firmware to the host:
//
//	@<millis> <LEVEL> <msg> key=value key=value
type Event struct {
	Millis uint32
	Level  Level
	Msg    string
	Fields []Field
}

var errNotEvent = errors.New("not an event line")

// values are space-separated on the wire, so spaces and '=' inside a value are replaced
var valueReplacer = strings.NewReplacer(" ", "_", "=", ":", "\n", "_", "\r", "")

// Get returns the value of the named field
func (e Event) Get(key string) (string, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Float returns the named field parsed as a float64
func (e Event) Float(key string) (float64, bool) {
	v, ok := e.Get(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Bool returns the named field parsed as a bool
func (e Event) Bool(key string) (bool, bool) {
	v, ok := e.Get(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// AppendEvent formats e as a single line (without the line terminator)
func AppendEvent(dst []byte, e Event) []byte {
	dst = append(dst, EventPrefix)
	dst = strconv.AppendUint(dst, uint64(e.Millis), 10)
	dst = append(dst, ' ')
	dst = append(dst, e.Level.String()...)
	dst = append(dst, ' ')
	dst = append(dst, e.Msg...)
	for _, f := range e.Fields {
		dst = append(dst, ' ')
		dst = append(dst, f.Key...)
		dst = append(dst, '=')
		dst = append(dst, f.Value...)
	}
	return dst
}

// ParseEvent parses a line produced by AppendEvent. Lines that are not events (plain println
// output, help text) return an error so the caller can pass them through untouched.
func ParseEvent(line string) (Event, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) == 0 || line[0] != EventPrefix {
		return Event{}, errNotEvent
	}

	parts := strings.Fields(line[1:])
	if len(parts) < 3 {
		return Event{}, errors.New("short event line: " + line)
	}

	millis, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Event{}, errors.New("invalid event timestamp: " + parts[0])
	}

	e := Event{
		Millis: uint32(millis),
		Level:  ParseLevel(parts[1]),
		Msg:    parts[2],
	}
	for _, kv := range parts[3:] {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return Event{}, errors.New("invalid event field: " + kv)
		}
		e.Fields = append(e.Fields, Field{Key: key, Value: value})
	}
	return e, nil
}

// Fields converts zap-style alternating key/value arguments into Fields. Values are formatted
// without fmt so the firmware can use this too.
func Fields(keysAndValues ...any) []Field {
	fields := make([]Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = "?"
		}
		fields = append(fields, Field{Key: key, Value: FormatValue(keysAndValues[i+1])})
	}
	return fields
}

// FormatValue renders the value types the tasks log
func FormatValue(v any) string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return `""`
		}
		return valueReplacer.Replace(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case error:
		return FormatValue(t.Error())
	case interface{ String() string }:
		return FormatValue(t.String())
	default:
		return "?"
	}
}
