// Package ui is a desktop dashboard for the turret. It reads the console output the controller
// copies to it and sends console commands when buttons are pressed.
package ui

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/jonoromo/turret"
)

const maxLogLines = 200

type TurretUI struct {
	app fyne.App

	mtx     sync.Mutex
	pending []byte
	phase   phase
	lines   []string

	phaseLabel    *widget.Label
	positionLabel *widget.Label
	setpointLabel *widget.Label
	aimLabel      *widget.Label
	cameraLabel   *widget.Label
	logContent    *widget.Label
	logScroll     *container.Scroll

	uptime         *timer
	lastEventTimer *timer
}

var _ io.Writer = &TurretUI{}

func New() *TurretUI {
	logContent := widget.NewLabel("")
	return &TurretUI{
		app:            app.NewWithID("io.github.jonoromo.turret"),
		phaseLabel:     widget.NewLabel(phaseNone.String()),
		positionLabel:  widget.NewLabel("-"),
		setpointLabel:  widget.NewLabel("-"),
		aimLabel:       widget.NewLabel("-"),
		cameraLabel:    widget.NewLabel("-"),
		logContent:     logContent,
		logScroll:      container.NewVScroll(logContent),
		uptime:         newTimer(false),
		lastEventTimer: newTimer(true),
	}
}

// App is the fyne application, shared with the ConfigWindow
func (ui *TurretUI) App() fyne.App {
	return ui.app
}

// Write receives the console output. Complete lines are logged and events update the status.
func (ui *TurretUI) Write(p []byte) (int, error) {
	ui.mtx.Lock()
	ui.pending = append(ui.pending, p...)
	var lines []string
	for {
		i := bytes.IndexByte(ui.pending, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, strings.TrimRight(string(ui.pending[:i]), "\r"))
		ui.pending = ui.pending[i+1:]
	}
	ui.mtx.Unlock()

	for _, line := range lines {
		ui.handleLine(line)
	}
	return len(p), nil
}

func (ui *TurretUI) handleLine(line string) {
	ui.mtx.Lock()
	ui.lines = append(ui.lines, line)
	if len(ui.lines) > maxLogLines {
		ui.lines = ui.lines[len(ui.lines)-maxLogLines:]
	}
	logText := strings.Join(ui.lines, "\n")

	e, err := turret.ParseEvent(line)
	isEvent := err == nil
	if isEvent {
		ui.phase = ui.phase.next(e)
	}
	current := ui.phase
	ui.mtx.Unlock()

	if isEvent && e.Msg == "turret.start" {
		ui.uptime.Set(time.Now().Add(-time.Duration(e.Millis) * time.Millisecond))
	}

	fyne.Do(func() {
		ui.logContent.SetText(logText)
		ui.logScroll.ScrollToBottom()
		if isEvent {
			ui.phaseLabel.SetText(current.String())
			ui.updateStatus(e)
		}
	})
}

func (ui *TurretUI) updateStatus(e turret.Event) {
	setFloat := func(label *widget.Label, key string) {
		if v, ok := e.Float(key); ok {
			label.SetText(strconv.FormatFloat(v, 'f', 1, 64))
		}
	}

	switch e.Msg {
	case "move.done", "axis.halt", "axis.init", "status":
		setFloat(ui.positionLabel, "position")
		setFloat(ui.setpointLabel, "setpoint")
	case "aim":
		setFloat(ui.positionLabel, "position")
		setFloat(ui.setpointLabel, "setpoint")
		if v, ok := e.Get("value"); ok {
			ui.aimLabel.SetText(v)
		}
	case "axis.jog":
		setFloat(ui.setpointLabel, "setpoint")
	case "camera.publish":
		if v, ok := e.Get("value"); ok {
			ui.cameraLabel.SetText(v)
		}
	case "camera.fault":
		ui.cameraLabel.SetText("fault")
	}
}

func createJog(c *controllerWrapper) *fyne.Container {
	jogEntry := widget.NewEntry()
	jogEntry.SetPlaceHolder("+100")
	jogEntry.OnSubmitted = func(s string) {
		jogEntry.SetText("")

		counts, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || counts == 0 {
			fmt.Println("Invalid input. Please enter a signed count.")
			return
		}
		c.Jog(counts)
	}

	return container.NewGridWithColumns(4,
		widget.NewButton("-10", func() { c.Jog(-10) }),
		widget.NewButton("+10", func() { c.Jog(10) }),
		jogEntry,
		widget.NewButton("Jog", func() {
			jogEntry.OnSubmitted(jogEntry.Text)
		}),
	)
}

func (ui *TurretUI) createLogAccordion() *widget.Accordion {
	ui.logScroll.SetMinSize(fyne.NewSize(300, 150))

	return widget.NewAccordion(
		widget.NewAccordionItem("Logs", ui.logScroll),
	)
}

// Show opens the dashboard. Commands are written to w. It does not block; call Run or run the
// App to start the event loop.
func (ui *TurretUI) Show(ctx context.Context, w io.Writer) {
	window := ui.app.NewWindow("Turret")

	c := &controllerWrapper{writer: w, lastEventTimer: ui.lastEventTimer}

	ui.uptime.Go(ctx)
	ui.lastEventTimer.Go(ctx)
	ui.phaseLabel.TextStyle = fyne.TextStyle{Bold: true}

	gains := widget.NewRadioGroup([]string{"coarse", "fine"}, c.SetGainMode)
	gains.Horizontal = true

	haltButton := widget.NewButton("Halt", c.Halt)
	haltButton.Importance = widget.DangerImportance

	status := container.NewGridWithColumns(2,
		widget.NewLabel("Position:"), ui.positionLabel,
		widget.NewLabel("Setpoint:"), ui.setpointLabel,
		widget.NewLabel("Aim:"), ui.aimLabel,
		widget.NewLabel("Camera:"), ui.cameraLabel,
	)

	ui.lastEventTimer.text.Color = color.Gray{Y: 128}

	contentContainer := container.NewVBox(
		container.NewHBox(
			container.NewPadded(ui.uptime.text),
			ui.phaseLabel,
			layout.NewSpacer(),
			container.NewPadded(ui.lastEventTimer.text),
		),
		status,
		container.NewGridWithColumns(3,
			widget.NewButton("Zero", c.Zero),
			widget.NewButton("Camera", c.RearmCamera),
			widget.NewButton("Arm Fire", c.ArmFire),
			haltButton,
			widget.NewButton("Resume", c.Resume),
			widget.NewButton("Status", c.Debug),
		),
		createJog(c),
		container.NewHBox(
			widget.NewLabel("Gains"),
			gains,
			layout.NewSpacer(),
			widget.NewCheck("Verbose", func(bool) { c.Verbose() }),
		),
		ui.createLogAccordion(),
	)

	go func() {
		<-ctx.Done()
		fyne.Do(func() {
			ui.app.Quit()
		})
	}()

	window.SetContent(contentContainer)
	window.Resize(fyne.NewSize(420, 360))
	window.Show()
}

// Run shows the dashboard and blocks until the window is closed or ctx is done
func (ui *TurretUI) Run(ctx context.Context, w io.Writer) {
	ui.Show(ctx, w)
	ui.app.Run()
}
