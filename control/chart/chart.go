// Package chart renders recorded step responses on the host. It is kept out of package control so
// the firmware does not pull gonum into the TinyGo build.
package chart

import (
	"errors"
	"fmt"

	"github.com/jonoromo/turret/control"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoSamples is returned when there is nothing to plot
var ErrNoSamples = errors.New("no samples recorded")

// StepResponse builds a position/setpoint plot of the samples. The x axis is the control step.
func StepResponse(title string, samples []control.Sample) (*plot.Plot, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	position := make(plotter.XYs, len(samples))
	setpoint := make(plotter.XYs, len(samples))
	for i, s := range samples {
		position[i].X = float64(s.Step)
		position[i].Y = float64(s.Position)
		setpoint[i].X = float64(s.Step)
		setpoint[i].Y = s.Setpoint
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "step"
	p.Y.Label.Text = "encoder counts"
	p.Add(plotter.NewGrid())

	posLine, err := plotter.NewLine(position)
	if err != nil {
		return nil, fmt.Errorf("error creating position line: %w", err)
	}
	spLine, err := plotter.NewLine(setpoint)
	if err != nil {
		return nil, fmt.Errorf("error creating setpoint line: %w", err)
	}
	spLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(posLine, spLine)
	p.Legend.Add("position", posLine)
	p.Legend.Add("setpoint", spLine)

	return p, nil
}

// SaveStepResponse writes the plot to path; the format follows the file extension
func SaveStepResponse(path, title string, samples []control.Sample) error {
	p, err := StepResponse(title, samples)
	if err != nil {
		return err
	}

	err = p.Save(6*vg.Inch, 4*vg.Inch, path)
	if err != nil {
		return fmt.Errorf("error saving plot: %w", err)
	}
	return nil
}
