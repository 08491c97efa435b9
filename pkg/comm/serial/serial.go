// Package serial opens the modem control link on a serial port.
package serial

import (
	"fmt"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/robotalks/modem.go/pkg/comm/stream"
)

// DefaultBaudRate is used when Config.BaudRate is zero.
const DefaultBaudRate = 115200

// Config selects the serial port.
type Config struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baudRate"`
}

// Link is a length-prefixed packet link over a serial port.
type Link struct {
	*stream.ReadWriter
	Port serial.Port
}

// Open opens the port in 8N1 mode.
func Open(conf Config) (*Link, error) {
	baud := conf.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(conf.Port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", conf.Port, describe(err))
	}
	glog.Infof("serial link %s opened at %d baud", conf.Port, baud)
	return &Link{ReadWriter: stream.New(port), Port: port}, nil
}

// Close implements io.Closer.
func (l *Link) Close() error {
	return l.Port.Close()
}

// Ports lists serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

func describe(err error) error {
	if portErr, ok := err.(*serial.PortError); ok {
		switch portErr.Code() {
		case serial.PortNotFound:
			return fmt.Errorf("port not found")
		case serial.PortBusy:
			return fmt.Errorf("port busy")
		case serial.PermissionDenied:
			return fmt.Errorf("permission denied")
		}
	}
	return err
}
