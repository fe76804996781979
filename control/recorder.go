package control

import (
	"io"
	"strconv"
)

// Sample is one point of a step response
type Sample struct {
	// Step is the resumption of the sampled task, not the scheduler tick
	Step     uint32
	Setpoint float64
	Position int64
	Duty     float64
}

// Recorder keeps the most recent samples of a control loop in a fixed-size ring so it can run on
// the microcontroller without allocating after construction
type Recorder struct {
	samples []Sample
	next    int
	full    bool
}

// NewRecorder allocates room for size samples
func NewRecorder(size int) *Recorder {
	if size < 1 {
		size = 1
	}
	return &Recorder{samples: make([]Sample, size)}
}

// Record stores s, overwriting the oldest sample when full
func (r *Recorder) Record(s Sample) {
	r.samples[r.next] = s
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

// Len returns the number of stored samples
func (r *Recorder) Len() int {
	if r.full {
		return len(r.samples)
	}
	return r.next
}

// Reset drops all samples
func (r *Recorder) Reset() {
	r.next = 0
	r.full = false
}

// Samples returns the stored samples, oldest first
func (r *Recorder) Samples() []Sample {
	if !r.full {
		return append([]Sample(nil), r.samples[:r.next]...)
	}
	out := make([]Sample, 0, len(r.samples))
	out = append(out, r.samples[r.next:]...)
	return append(out, r.samples[:r.next]...)
}

// WriteCSV writes "step,setpoint,position,duty" rows, oldest first
func (r *Recorder) WriteCSV(w io.Writer) error {
	buf := []byte("step,setpoint,position,duty\n")
	if _, err := w.Write(buf); err != nil {
		return err
	}
	for _, s := range r.Samples() {
		buf = buf[:0]
		buf = strconv.AppendUint(buf, uint64(s.Step), 10)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, s.Setpoint, 'f', -1, 64)
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, s.Position, 10)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, s.Duty, 'f', 3, 64)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
