package controller

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/multierr"
)

// SerialPortNone runs the firmware in simulation instead of opening a serial port
const SerialPortNone = "none"

var ErrNoUSBSerial = errors.New("no USB serial ports found")

// readTimeout bounds each serial read so Run notices cancellation
const readTimeout = 100 * time.Millisecond

// GetSerialPorts lists the USB serial ports, which is where the Nucleo's ST-LINK console shows up
func GetSerialPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var names []string
	for _, port := range ports {
		if port.IsUSB {
			names = append(names, port.Name)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoUSBSerial
	}
	return names, nil
}

func openSerial(name string, baudRate int) (serial.Port, error) {
	if name == "" {
		ports, err := GetSerialPorts()
		if err != nil {
			return nil, err
		}
		name = ports[0]
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("error opening serial port %q: %w", name, err)
	}

	err = port.SetReadTimeout(readTimeout)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("error setting read timeout: %w", err), port.Close())
	}
	return port, nil
}
