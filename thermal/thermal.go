// Package thermal reduces a thermal camera frame to the single scalar the aiming task consumes.
package thermal

import (
	"errors"
	"math"
	"slices"
)

// Frame is one thermal image in row-major order, in degrees Celsius
type Frame struct {
	Rows   int
	Cols   int
	Pixels []float32
}

// NewFrame allocates a zeroed frame
func NewFrame(rows, cols int) Frame {
	return Frame{Rows: rows, Cols: cols, Pixels: make([]float32, rows*cols)}
}

// Validate checks the pixel count matches the dimensions
func (f Frame) Validate() error {
	if f.Rows <= 0 || f.Cols <= 0 {
		return errors.New("frame has no pixels")
	}
	if len(f.Pixels) != f.Rows*f.Cols {
		return errors.New("frame pixel count does not match its dimensions")
	}
	return nil
}

func (f Frame) At(row, col int) float32 {
	return f.Pixels[row*f.Cols+col]
}

func (f Frame) Set(row, col int, v float32) {
	f.Pixels[row*f.Cols+col] = v
}

// Limits is an inclusive output range
type Limits struct {
	Lo int `yaml:"lo"`
	Hi int `yaml:"hi"`
}

// Scale maps v linearly from [min, max] of the frame onto the inclusive limits, rounding to the
// nearest integer. A flat frame maps everything to Lo.
func Scale(v, min, max float32, l Limits) int {
	if max <= min {
		return l.Lo
	}
	s := float64(l.Lo) + float64(v-min)*float64(l.Hi-l.Lo)/float64(max-min)
	return int(math.Round(s))
}

// Reducer turns a frame into one scalar. It returns false when the frame holds no usable signal.
type Reducer interface {
	Reduce(Frame) (float64, bool)
}

// Trim is the number of edge rows and columns ignored on each side
type Trim struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// HotColumn returns the mean column index of the hot pixels. Pixels are scaled onto Limits, and
// those at or above Threshold count as hot. Column indices are in full-frame coordinates even when
// edges are trimmed, so the frame centre stays at (Cols-1)/2.
type HotColumn struct {
	Limits    Limits `yaml:"limits"`
	Threshold int    `yaml:"threshold"`
	Trim      Trim   `yaml:"trim"`
}

var _ Reducer = HotColumn{}

func (h HotColumn) Reduce(f Frame) (float64, bool) {
	if f.Validate() != nil {
		return 0, false
	}

	r0, r1 := h.Trim.Rows, f.Rows-h.Trim.Rows
	c0, c1 := h.Trim.Cols, f.Cols-h.Trim.Cols
	if r0 >= r1 || c0 >= c1 {
		return 0, false
	}

	min, max := float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			v := f.At(r, c)
			min = float32(math.Min(float64(min), float64(v)))
			max = float32(math.Max(float64(max), float64(v)))
		}
	}
	if max <= min {
		return 0, false
	}

	var sum float64
	var n int
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			if Scale(f.At(r, c), min, max, h.Limits) >= h.Threshold {
				sum += float64(c)
				n++
			}
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// PercentileMean averages the pixel values whose percentile rank lies in the inclusive range
// [Lo, Hi] (0-100)
type PercentileMean struct {
	Lo float64 `yaml:"lo"`
	Hi float64 `yaml:"hi"`
}

var _ Reducer = PercentileMean{}

func (p PercentileMean) Reduce(f Frame) (float64, bool) {
	if f.Validate() != nil || p.Lo > p.Hi {
		return 0, false
	}

	sorted := slices.Clone(f.Pixels)
	slices.Sort(sorted)

	n := len(sorted)
	if n == 1 {
		return float64(sorted[0]), true
	}

	var sum float64
	var count int
	for i, v := range sorted {
		rank := 100 * float64(i) / float64(n-1)
		if rank >= p.Lo && rank <= p.Hi {
			sum += float64(v)
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
