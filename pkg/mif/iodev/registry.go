package iodev

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/btree"

	fx "github.com/robotalks/modem.go/pkg/framework"
	"github.com/robotalks/modem.go/pkg/mif/sipc"
)

// ErrNotFound indicates no device is registered for the key.
var ErrNotFound = errors.New("io device not found")

// ErrChannelRegistered rejects a second device on one channel.
type ErrChannelRegistered struct {
	Channel  uint8
	Existing string
}

// Error implements error.
func (e *ErrChannelRegistered) Error() string {
	return fmt.Sprintf("channel %d already registered by %s", e.Channel, e.Existing)
}

// Action is applied to devices by Registry.ForEach.
type Action interface {
	Apply(*IoDevice) error
}

// ActionFunc is func form of Action.
type ActionFunc func(*IoDevice) error

// Apply implements Action.
func (f ActionFunc) Apply(dev *IoDevice) error {
	return f(dev)
}

// Registry indexes IO devices by format and by channel.
// Each format maps to the first device registered with it. Channels are
// kept in registration order.
type Registry struct {
	lock     sync.RWMutex
	formats  *btree.BTreeG[*IoDevice]
	channels [sipc.MaxChannels]*IoDevice
	order    []uint8
}

func formatLess(a, b *IoDevice) bool {
	return a.Format < b.Format
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{formats: btree.NewG[*IoDevice](2, formatLess)}
}

// RegisterByFormat adds dev to the format index. If the format is taken,
// the existing device is returned and the index is unchanged.
func (r *Registry) RegisterByFormat(dev *IoDevice) *IoDevice {
	r.lock.Lock()
	defer r.lock.Unlock()
	if existing, ok := r.formats.Get(dev); ok {
		return existing
	}
	r.formats.ReplaceOrInsert(dev)
	return nil
}

// LookupByFormat finds the device representing format.
func (r *Registry) LookupByFormat(format sipc.Format) (*IoDevice, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.formats.Get(&IoDevice{Format: format})
}

// RegisterByChannel appends dev to the channel order.
func (r *Registry) RegisterByChannel(dev *IoDevice) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if existing := r.channels[dev.Channel]; existing != nil {
		return &ErrChannelRegistered{Channel: dev.Channel, Existing: existing.Name}
	}
	r.channels[dev.Channel] = dev
	r.order = append(r.order, dev.Channel)
	return nil
}

// LookupByChannel finds the device on channel ch.
func (r *Registry) LookupByChannel(ch uint8) (*IoDevice, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	dev := r.channels[ch]
	return dev, dev != nil
}

// Channels returns registered channels in registration order.
func (r *Registry) Channels() []uint8 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]uint8(nil), r.order...)
}

// Formats returns registered formats in ascending order.
func (r *Registry) Formats() []sipc.Format {
	r.lock.RLock()
	defer r.lock.RUnlock()
	formats := make([]sipc.Format, 0, r.formats.Len())
	r.formats.Ascend(func(dev *IoDevice) bool {
		formats = append(formats, dev.Format)
		return true
	})
	return formats
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.order)
}

// ForEach applies action to every registered channel in registration
// order. The sweep always completes: a failing action doesn't stop it,
// and all failures are returned together afterwards.
// Devices registered while the sweep runs are not visited.
func (r *Registry) ForEach(action Action) error {
	r.lock.RLock()
	devs := make([]*IoDevice, len(r.order))
	for n, ch := range r.order {
		devs[n] = r.channels[ch]
	}
	r.lock.RUnlock()

	var errs fx.AggregatedError
	for _, dev := range devs {
		if err := action.Apply(dev); err != nil {
			errs.Add(fmt.Errorf("%s: %v", dev.Name, err))
		}
	}
	return errs.Aggregate()
}
