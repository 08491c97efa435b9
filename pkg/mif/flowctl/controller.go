package flowctl

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/modem.go/pkg/mif/iodev"
	"github.com/robotalks/modem.go/pkg/mif/sipc"
)

// Control codes sent by CP.
const (
	CmdSuspend uint16 = 0x00CA
	CmdResume  uint16 = 0x00CB
)

// Stats reports counters of a Controller.
type Stats struct {
	Commands uint64
	Unknown  uint64
	Resumes  uint64
}

// Controller keeps the flow-control state of one link device.
type Controller struct {
	// Name is the link name used in logs.
	Name string
	// DefaultChannel must be registered for global sweeps to touch
	// any queue.
	DefaultChannel uint8

	registry *iodev.Registry

	lock        sync.Mutex
	stopMask    ChannelMask
	stopped     bool
	txSuspended bool
	resumeCh    chan struct{}
	stats       Stats
}

// New creates a running Controller for the link.
func New(name string, registry *iodev.Registry) *Controller {
	c := &Controller{
		Name:           name,
		DefaultChannel: sipc.ChPDP0,
		registry:       registry,
		resumeCh:       make(chan struct{}),
	}
	close(c.resumeCh)
	return c
}

// StopChannel stops the tx queue of one channel. It returns false when
// the channel was already stopped or has no device.
func (c *Controller) StopChannel(ch uint8) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.stopMask.Test(ch) {
		glog.Warningf("%s: channel %d was already stopped", c.Name, ch)
		return false
	}
	dev, ok := c.registry.LookupByChannel(ch)
	if !ok {
		glog.Errorf("%s: stop channel %d: %v", c.Name, ch, iodev.ErrNotFound)
		return false
	}
	iodev.NetifStop.Apply(dev)
	c.stopMask.Set(ch)
	return true
}

// ResumeChannel wakes the tx queue of one channel. It returns false when
// the channel was not stopped or has no device.
func (c *Controller) ResumeChannel(ch uint8) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.stopMask.Test(ch) {
		glog.Warningf("%s: channel %d was already resumed", c.Name, ch)
		return false
	}
	dev, ok := c.registry.LookupByChannel(ch)
	if !ok {
		glog.Errorf("%s: resume channel %d: %v", c.Name, ch, iodev.ErrNotFound)
		return false
	}
	iodev.NetifWake.Apply(dev)
	c.stopMask.Clear(ch)
	return true
}

// StopAll stops the tx queues of all registered devices.
// It returns false if the link was already stopped.
func (c *Controller) StopAll() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stopAllLocked()
}

// ResumeAll wakes the tx queues of all registered devices and releases
// waiters of WaitResumed. It returns false if the link was running.
func (c *Controller) ResumeAll() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.resumeAllLocked()
}

func (c *Controller) stopAllLocked() bool {
	if c.stopped {
		glog.V(1).Infof("%s: already stopped", c.Name)
		return false
	}
	c.sweep(iodev.NetifStop)
	c.stopped = true
	c.resumeCh = make(chan struct{})
	return true
}

func (c *Controller) resumeAllLocked() bool {
	if !c.stopped {
		glog.V(1).Infof("%s: already running", c.Name)
		return false
	}
	c.sweep(iodev.NetifWake)
	c.stopped = false
	close(c.resumeCh)
	c.stats.Resumes++
	return true
}

func (c *Controller) sweep(action iodev.Action) {
	if _, ok := c.registry.LookupByChannel(c.DefaultChannel); !ok {
		glog.Warningf("%s: default channel %d not registered, queues untouched", c.Name, c.DefaultChannel)
		return
	}
	if err := c.registry.ForEach(action); err != nil {
		glog.Errorf("%s: sweep: %v", c.Name, err)
	}
}

// HandleCommand applies one control code from CP.
func (c *Controller) HandleCommand(code uint16) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.stats.Commands++
	switch code {
	case CmdSuspend:
		c.stopAllLocked()
		c.txSuspended = true
		glog.Infof("%s: flowctl CMD_SUSPEND(%04X)", c.Name, code)
	case CmdResume:
		c.resumeAllLocked()
		c.txSuspended = false
		glog.Infof("%s: flowctl CMD_RESUME(%04X)", c.Name, code)
	default:
		c.stats.Unknown++
		glog.Errorf("%s: flowctl BAD CMD: %04X", c.Name, code)
	}
}

// Resumed returns a channel closed once the link is running.
func (c *Controller) Resumed() <-chan struct{} {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.resumeCh
}

// WaitResumed blocks until the link is running or ctx is done.
// false means the link is still stopped.
func (c *Controller) WaitResumed(ctx context.Context) bool {
	select {
	case <-c.Resumed():
		return true
	case <-ctx.Done():
		return false
	}
}

// IsChannelStopped checks the stop bit of a channel.
func (c *Controller) IsChannelStopped(ch uint8) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stopMask.Test(ch)
}

// StoppedChannels lists channels stopped individually.
func (c *Controller) StoppedChannels() []uint8 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stopMask.Channels()
}

// IsStopped checks the global stop state.
func (c *Controller) IsStopped() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stopped
}

// IsTxSuspended checks whether CP suspended outgoing traffic.
func (c *Controller) IsTxSuspended() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.txSuspended
}

// Stats returns a snapshot of the counters.
func (c *Controller) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stats
}
