package iodev

import (
	"github.com/golang/glog"

	"github.com/robotalks/modem.go/pkg/mif/sipc"
)

var (
	// NetifStop stops the transmit queue of network devices.
	NetifStop = ActionFunc(func(dev *IoDevice) error {
		if dev.IoType == IoTypeNet && dev.NetIf != nil {
			dev.NetIf.StopQueue()
			glog.V(1).Infof("%s: tx queue stopped", dev.Name)
		}
		return nil
	})

	// NetifWake wakes the transmit queue of network devices.
	NetifWake = ActionFunc(func(dev *IoDevice) error {
		if dev.IoType == IoTypeNet && dev.NetIf != nil {
			dev.NetIf.WakeQueue()
			glog.V(1).Infof("%s: tx queue woken", dev.Name)
		}
		return nil
	})
)

// SetTxLink moves raw-format devices connected to link onto it.
func SetTxLink(link sipc.LinkType, linkName string) Action {
	return ActionFunc(func(dev *IoDevice) error {
		if dev.Format == sipc.FormatRaw && dev.IsConnected(link) {
			dev.SetTxLink(link)
			glog.Infof("%s -> %s", dev.Name, linkName)
		}
		return nil
	})
}
