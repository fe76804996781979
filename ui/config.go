package ui

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/jonoromo/turret/controller"
)

// ConfigWindow asks for the controller settings before connecting. Values are remembered in the
// app preferences.
type ConfigWindow struct {
	app      fyne.App
	OnSubmit func()
}

func NewConfigWindow(app fyne.App) *ConfigWindow {
	return &ConfigWindow{
		app: app,
	}
}

func (cw *ConfigWindow) loadConfigFromPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	cfg.SerialPort = prefs.StringWithFallback("serialPort", cfg.SerialPort)
	cfg.BaudRate = prefs.StringWithFallback("baudRate", "115200")
	cfg.ReportAddr = prefs.StringWithFallback("reportAddr", cfg.ReportAddr)
	cfg.Name = prefs.StringWithFallback("engagementName", cfg.Name)
	cfg.SimConfig = prefs.StringWithFallback("simConfig", cfg.SimConfig)
}

func (cw *ConfigWindow) saveConfigToPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	prefs.SetString("serialPort", cfg.SerialPort)
	prefs.SetString("baudRate", cfg.BaudRate)
	prefs.SetString("reportAddr", cfg.ReportAddr)
	prefs.SetString("engagementName", cfg.Name)
	prefs.SetString("simConfig", cfg.SimConfig)
}

func (cw *ConfigWindow) Show(cfg *controller.Config) {
	window := cw.app.NewWindow("Turret - Configuration")
	window.Resize(fyne.NewSize(400, 250))
	window.SetCloseIntercept(func() {
		window.Close()
		cw.app.Quit()
	})
	window.Show()

	cw.loadConfigFromPreferences(cfg)

	serialPorts, err := controller.GetSerialPorts()
	if err != nil && !errors.Is(err, controller.ErrNoUSBSerial) {
		showError(cw.app, window, fmt.Errorf("error getting serial ports: %w", err))
		return
	}

	serialPorts = append(serialPorts, controller.SerialPortNone)

	serialEntry := widget.NewSelect(serialPorts, nil)
	if cfg.SerialPort == "" {
		cfg.SerialPort = serialPorts[0]
	}
	serialEntry.Bind(binding.BindString(&cfg.SerialPort))

	baudRateEntry := widget.NewEntry()
	baudRateEntry.Bind(binding.BindString(&cfg.BaudRate))

	reportAddrEntry := widget.NewEntry()
	reportAddrEntry.SetPlaceHolder("optional")
	reportAddrEntry.Bind(binding.BindString(&cfg.ReportAddr))

	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("optional")
	nameEntry.Bind(binding.BindString(&cfg.Name))

	simConfigEntry := widget.NewEntry()
	simConfigEntry.SetPlaceHolder("YAML file, simulation only")
	simConfigEntry.Bind(binding.BindString(&cfg.SimConfig))

	submitButton := widget.NewButton("Connect", func() {
		cw.saveConfigToPreferences(cfg)
		cw.OnSubmit()
		window.Close()
	})
	submitButton.Disable()

	validateForm := func() {
		if cfg.SerialPort != "" && cfg.BaudRate != "" {
			submitButton.Enable()
			return
		}
		submitButton.Disable()
	}

	serialEntry.OnChanged = func(_ string) { validateForm() }
	baudRateEntry.OnChanged = func(_ string) { validateForm() }

	validateForm()

	form := container.NewVBox(
		widget.NewCard("Configuration", "", container.NewVBox(
			container.NewGridWithColumns(2,
				widget.NewLabel("Serial Port:"),
				serialEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Baud Rate:"),
				baudRateEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Report Address:"),
				reportAddrEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Engagement Name:"),
				nameEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Simulation Config:"),
				simConfigEntry,
			),
		)),
		container.NewHBox(
			widget.NewButton("Cancel", func() {
				window.Close()
				cw.app.Quit()
			}),
			submitButton,
		),
	)

	window.SetContent(form)
}

func showError(app fyne.App, window fyne.Window, err error) {
	d := dialog.NewError(err, window)
	d.SetOnClosed(func() {
		app.Quit()
	})
	d.Show()
}
