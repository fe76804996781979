package thermal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// blob returns a rows x cols frame at ambient with a hot vertical stripe over the given columns
func blob(rows, cols int, hot ...int) Frame {
	f := NewFrame(rows, cols)
	for r := range rows {
		for c := range cols {
			f.Set(r, c, 21)
		}
		for _, c := range hot {
			f.Set(r, c, 35)
		}
	}
	return f
}

func TestScale(t *testing.T) {
	l := Limits{Lo: 0, Hi: 99}
	assert.Equal(t, 0, Scale(20, 20, 30, l))
	assert.Equal(t, 99, Scale(30, 20, 30, l))
	assert.Equal(t, 50, Scale(25, 20, 30, l))
	assert.Equal(t, 0, Scale(25, 25, 25, l))
}

func TestHotColumn(t *testing.T) {
	reducer := HotColumn{Limits: Limits{0, 99}, Threshold: 90}

	tests := []struct {
		name     string
		frame    Frame
		expected float64
		ok       bool
	}{
		{"Centre", blob(24, 32, 14, 15), 14.5, true},
		{"Right", blob(24, 32, 20), 20, true},
		{"Left", blob(8, 8, 0, 1), 0.5, true},
		{"Flat", blob(8, 8), 0, false},
		{"Invalid", Frame{Rows: 2, Cols: 2, Pixels: []float32{1}}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := reducer.Reduce(tt.frame)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestHotColumnTrim(t *testing.T) {
	// a hot pixel on the border is ignored once edges are trimmed
	f := blob(8, 8, 5)
	f.Set(0, 0, 80)

	v, ok := HotColumn{Limits: Limits{0, 99}, Threshold: 90}.Reduce(f)
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	v, ok = HotColumn{Limits: Limits{0, 99}, Threshold: 90, Trim: Trim{Rows: 1, Cols: 1}}.Reduce(f)
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)

	_, ok = HotColumn{Trim: Trim{Rows: 4}}.Reduce(f)
	assert.False(t, ok)
}

func TestPercentileMean(t *testing.T) {
	f := Frame{Rows: 1, Cols: 5, Pixels: []float32{50, 10, 40, 20, 30}}

	v, ok := PercentileMean{Lo: 0, Hi: 100}.Reduce(f)
	assert.True(t, ok)
	assert.Equal(t, 30.0, v)

	v, ok = PercentileMean{Lo: 50, Hi: 100}.Reduce(f)
	assert.True(t, ok)
	assert.Equal(t, 40.0, v)

	v, ok = PercentileMean{Lo: 0, Hi: 0}.Reduce(f)
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = PercentileMean{Lo: 60, Hi: 70}.Reduce(f)
	assert.False(t, ok)

	assert.Equal(t, []float32{50, 10, 40, 20, 30}, f.Pixels, "frame is not reordered")
}
