// Package mif holds the state shared by all link and IO devices of one
// modem interface: the IPC log store, the device registry and the link
// devices with their flow controllers.
package mif

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/modem.go/pkg/mif/flowctl"
	"github.com/robotalks/modem.go/pkg/mif/iodev"
	"github.com/robotalks/modem.go/pkg/mif/logstore"
	"github.com/robotalks/modem.go/pkg/mif/sipc"
)

// Config creates a Shared.
type Config struct {
	// LogCapacity is the number of slots in the log store.
	LogCapacity int
	// DefaultChannel gates global flow-control sweeps of each link.
	DefaultChannel uint8
	// Debug selects the packets printed by LogIPCPacket.
	Debug DebugFlags
}

// DefaultConfig returns the config used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		LogCapacity:    logstore.DefaultCapacity,
		DefaultChannel: sipc.ChPDP0,
	}
}

// ErrLinkExists is returned when adding a link type twice.
var ErrLinkExists = errors.New("link already exists")

// Link is a link device with its flow-control state.
type Link struct {
	Name string
	Type sipc.LinkType
	Flow *flowctl.Controller
}

// Shared is created once and passed to every component.
type Shared struct {
	Log      *logstore.Store
	Registry *iodev.Registry

	config Config

	lock  sync.RWMutex
	links map[sipc.LinkType]*Link
}

// New creates a Shared. It fails when the log store can't be allocated.
func New(conf Config) (*Shared, error) {
	store, err := logstore.New(conf.LogCapacity)
	if err != nil {
		return nil, fmt.Errorf("log store: %w", err)
	}
	return &Shared{
		Log:      store,
		Registry: iodev.NewRegistry(),
		config:   conf,
		links:    make(map[sipc.LinkType]*Link),
	}, nil
}

// Config returns the config the Shared was created with.
func (s *Shared) Config() Config {
	return s.config
}

// AddLink creates a link device of type t.
func (s *Shared) AddLink(name string, t sipc.LinkType) (*Link, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("link %s: invalid type %v", name, t)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.links[t]; ok {
		return nil, fmt.Errorf("link %s(%v): %w", name, t, ErrLinkExists)
	}
	flow := flowctl.New(name, s.Registry)
	flow.DefaultChannel = s.config.DefaultChannel
	link := &Link{Name: name, Type: t, Flow: flow}
	s.links[t] = link
	glog.Infof("link %s(%v) added", name, t)
	return link, nil
}

// Link finds the link device of type t.
func (s *Shared) Link(t sipc.LinkType) (*Link, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	link, ok := s.links[t]
	return link, ok
}

// Links lists link devices ordered by type.
func (s *Shared) Links() []*Link {
	s.lock.RLock()
	links := make([]*Link, 0, len(s.links))
	for _, link := range s.links {
		links = append(links, link)
	}
	s.lock.RUnlock()
	sort.Slice(links, func(i, j int) bool { return links[i].Type < links[j].Type })
	return links
}

// Attach registers an IO device by format and channel.
func (s *Shared) Attach(dev *iodev.IoDevice) error {
	if existing := s.Registry.RegisterByFormat(dev); existing != nil {
		glog.V(1).Infof("%s: format %v already served by %s", dev.Name, dev.Format, existing.Name)
	}
	if err := s.Registry.RegisterByChannel(dev); err != nil {
		return err
	}
	glog.V(1).Infof("attached %v", dev)
	return nil
}

// RawDevsSetTxLink moves raw IO devices connected to link type t onto it.
func (s *Shared) RawDevsSetTxLink(t sipc.LinkType) error {
	link, ok := s.Link(t)
	if !ok {
		return fmt.Errorf("link %v: %w", t, iodev.ErrNotFound)
	}
	return s.Registry.ForEach(iodev.SetTxLink(t, link.Name))
}

// LogIPCPacket prints a packet on ch if the debug flags select it.
// It returns whether the packet was printed.
func (s *Shared) LogIPCPacket(layer Layer, ch uint8, data []byte) bool {
	if data == nil {
		return false
	}
	n := s.config.Debug.ipcLogLen(layer, ch)
	if n == 0 {
		return false
	}
	printIPC(layer, ch, data, n)
	return true
}
