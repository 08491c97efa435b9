// Package iodev provides IO devices and the registry indexing them by
// format and by channel.
package iodev

import (
	"fmt"
	"sync/atomic"

	"github.com/robotalks/modem.go/pkg/mif/sipc"
)

// IoType tells how an IO device is backed.
type IoType int

// IO types
const (
	IoTypeMisc IoType = iota
	IoTypeNet
	IoTypeDummy
)

// String implements fmt.Stringer.
func (t IoType) String() string {
	switch t {
	case IoTypeMisc:
		return "misc"
	case IoTypeNet:
		return "net"
	case IoTypeDummy:
		return "dummy"
	}
	return fmt.Sprintf("iotype(%d)", int(t))
}

// NetInterface is the transmit queue of a network-backed IO device.
// Both calls are synchronous and can't fail.
type NetInterface interface {
	StopQueue()
	WakeQueue()
}

// IoDevice is one logical channel multiplexed over link devices.
// Links only names link types; the link devices are resolved through the
// owning context.
type IoDevice struct {
	Name    string
	Channel uint8
	Format  sipc.Format
	IoType  IoType
	NetIf   NetInterface
	Links   sipc.LinkMask

	txLink int32
}

// IsConnected checks the device is attached to the link type.
func (d *IoDevice) IsConnected(t sipc.LinkType) bool {
	return d.Links.Has(t)
}

// TxLink returns the link type currently used to transmit.
func (d *IoDevice) TxLink() sipc.LinkType {
	return sipc.LinkType(atomic.LoadInt32(&d.txLink))
}

// SetTxLink selects the link type used to transmit.
func (d *IoDevice) SetTxLink(t sipc.LinkType) {
	atomic.StoreInt32(&d.txLink, int32(t))
}

// String implements fmt.Stringer.
func (d *IoDevice) String() string {
	return fmt.Sprintf("%s(ch=%d fmt=%v)", d.Name, d.Channel, d.Format)
}
