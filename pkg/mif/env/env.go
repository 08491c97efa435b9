// Package env builds the modem interface runtime from command line flags,
// MIF_* environment variables and an optional YAML file.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"

	"github.com/robotalks/modem.go/pkg/comm/file"
	"github.com/robotalks/modem.go/pkg/comm/serial"
	"github.com/robotalks/modem.go/pkg/mif"
	"github.com/robotalks/modem.go/pkg/mif/iodev"
	"github.com/robotalks/modem.go/pkg/mif/logstore"
	"github.com/robotalks/modem.go/pkg/mif/sipc"
)

// LinkConfig declares a link device.
type LinkConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// DeviceConfig declares an IO device.
type DeviceConfig struct {
	Name    string   `yaml:"name"`
	Channel uint8    `yaml:"channel"`
	Format  string   `yaml:"format"`
	IoType  string   `yaml:"ioType"`
	Links   []string `yaml:"links"`
	TxLink  string   `yaml:"txLink"`
}

// Config provides options to set up the runtime.
type Config struct {
	// NodeID identifies this modem interface in dumps and on MQTT.
	NodeID string `yaml:"nodeId"`

	LogCapacity    int    `yaml:"logCapacity"`
	DefaultChannel uint8  `yaml:"defaultChannel"`
	Debug          string `yaml:"debug"`

	Links   []LinkConfig   `yaml:"links"`
	Devices []DeviceConfig `yaml:"devices"`

	// Control is the serial port carrying flow-control commands.
	Control serial.Config `yaml:"control"`
	// ControlLink is the link type the control port belongs to.
	ControlLink string `yaml:"controlLink"`

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `yaml:"mqtt"`
	// DumpFile enables rotating dump files when Path is set.
	DumpFile file.Config `yaml:"dumpFile"`
	// DumpListen is the address serving dumps over websocket, e.g. :8090.
	DumpListen string `yaml:"dumpListen"`
}

var defaultConfig = Config{
	LogCapacity:    logstore.DefaultCapacity,
	DefaultChannel: sipc.ChPDP0,
	ControlLink:    "shmem",
	MQTTBrokerURL:  "mqtt://localhost:1883/mif/",
	Links: []LinkConfig{
		{Name: "shmem", Type: "shmem"},
	},
	Devices: []DeviceConfig{
		{Name: "umts_ipc0", Channel: sipc.ChFmt0, Format: "fmt", Links: []string{"shmem"}},
		{Name: "umts_rfs0", Channel: sipc.ChRFS0, Format: "rfs", Links: []string{"shmem"}},
		{Name: "rmnet0", Channel: sipc.ChPDP0, Format: "raw", IoType: "net", Links: []string{"shmem"}},
		{Name: "rmnet1", Channel: sipc.ChPDP0 + 1, Format: "raw", IoType: "net", Links: []string{"shmem"}},
	},
}

// ConfigFileEnv names the YAML file loaded by LoadDefaultFile.
const ConfigFileEnv = "MIF_CONFIG"

func init() {
	applyEnv(&defaultConfig)
	if defaultConfig.NodeID == "" {
		defaultConfig.NodeID = MachineID()
	}
}

func applyEnv(c *Config) {
	if val := os.Getenv("MIF_NODE_ID"); val != "" {
		c.NodeID = val
	}
	if val := os.Getenv("MIF_MQTT_URL"); val != "" {
		c.MQTTBrokerURL = val
	}
	if val := os.Getenv("MIF_CONTROL_PORT"); val != "" {
		c.Control.Port = val
	}
	if val := os.Getenv("MIF_DEBUG"); val != "" {
		c.Debug = val
	}
	if val := os.Getenv("MIF_LOG_CAPACITY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.LogCapacity = n
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.NodeID, "node", defaultConfig.NodeID, "Node ID")
	flag.IntVar(&defaultConfig.LogCapacity, "log-slots", defaultConfig.LogCapacity, "Number of IPC log slots")
	flag.StringVar(&defaultConfig.Debug, "debug", defaultConfig.Debug, "IPC packet debug flags, e.g. fmt,rfs or all")
	flag.StringVar(&defaultConfig.Control.Port, "control", defaultConfig.Control.Port, "Serial port of the control link")
	flag.IntVar(&defaultConfig.Control.BaudRate, "baud", defaultConfig.Control.BaudRate, "Baud rate of the control link")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.DumpFile.Path, "dump-file", defaultConfig.DumpFile.Path, "Write dumps to rotating files")
	flag.StringVar(&defaultConfig.DumpListen, "dump-listen", defaultConfig.DumpListen, "Serve dumps over websocket on this address")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadFile overlays a YAML file on the config. Fields missing from the
// file keep their values.
func (c *Config) LoadFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config: %v", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %v", filename, err)
	}
	return nil
}

// LoadDefaultFile loads the file named by MIF_CONFIG, if set. Environment
// variables take precedence over the file.
func (c *Config) LoadDefaultFile() error {
	filename := os.Getenv(ConfigFileEnv)
	if filename == "" {
		return nil
	}
	if err := c.LoadFile(filename); err != nil {
		return err
	}
	applyEnv(c)
	return nil
}

// SharedConfig converts to mif.Config.
func (c *Config) SharedConfig() (mif.Config, error) {
	debug, err := mif.ParseDebugFlags(c.Debug)
	if err != nil {
		return mif.Config{}, err
	}
	return mif.Config{
		LogCapacity:    c.LogCapacity,
		DefaultChannel: c.DefaultChannel,
		Debug:          debug,
	}, nil
}

// NewShared creates the runtime with all declared links and devices.
func (c *Config) NewShared() (*mif.Shared, error) {
	conf, err := c.SharedConfig()
	if err != nil {
		return nil, err
	}
	s, err := mif.New(conf)
	if err != nil {
		return nil, err
	}
	for _, l := range c.Links {
		t, ok := sipc.ParseLinkType(l.Type)
		if !ok {
			return nil, fmt.Errorf("link %s: unknown type %q", l.Name, l.Type)
		}
		if _, err := s.AddLink(l.Name, t); err != nil {
			return nil, err
		}
	}
	for _, d := range c.Devices {
		dev, err := d.newDevice()
		if err != nil {
			return nil, err
		}
		if err := s.Attach(dev); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustNewShared creates the runtime and fails on error.
func (c *Config) MustNewShared() *mif.Shared {
	s, err := c.NewShared()
	if err != nil {
		log.Fatalln(err)
	}
	return s
}

func (d *DeviceConfig) newDevice() (*iodev.IoDevice, error) {
	format, ok := sipc.ParseFormat(d.Format)
	if !ok {
		return nil, fmt.Errorf("device %s: unknown format %q", d.Name, d.Format)
	}
	dev := &iodev.IoDevice{Name: d.Name, Channel: d.Channel, Format: format}
	switch d.IoType {
	case "", "misc":
		dev.IoType = iodev.IoTypeMisc
	case "net":
		dev.IoType = iodev.IoTypeNet
		dev.NetIf = &iodev.TxQueue{Name: d.Name}
	case "dummy":
		dev.IoType = iodev.IoTypeDummy
	default:
		return nil, fmt.Errorf("device %s: unknown io type %q", d.Name, d.IoType)
	}
	var links []sipc.LinkType
	for _, name := range d.Links {
		t, ok := sipc.ParseLinkType(name)
		if !ok {
			return nil, fmt.Errorf("device %s: unknown link %q", d.Name, name)
		}
		links = append(links, t)
	}
	dev.Links = sipc.MaskOf(links...)
	if d.TxLink != "" {
		t, ok := sipc.ParseLinkType(d.TxLink)
		if !ok {
			return nil, fmt.Errorf("device %s: unknown tx link %q", d.Name, d.TxLink)
		}
		dev.SetTxLink(t)
	} else if len(links) > 0 {
		dev.SetTxLink(links[0])
	}
	return dev, nil
}
