// Package sh provides an interactive console driving a modem interface
// runtime.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/modem.go/pkg/comm/mqtt"
	"github.com/robotalks/modem.go/pkg/comm/serial"
	"github.com/robotalks/modem.go/pkg/mif"
	"github.com/robotalks/modem.go/pkg/mif/env"
	"github.com/robotalks/modem.go/pkg/mif/iodev"
	"github.com/robotalks/modem.go/pkg/mif/sipc"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *env.Config
	MIF    *mif.Shared
	// Link is the link commands apply to when none is given.
	Link *mif.Link
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&LinksCmd,
		&DevicesCmd,
		&UseCmd,
		&NodesCmd,
		&PortsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell on a runtime.
func New(conf *env.Config, shared *mif.Shared) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
		MIF:    shared,
	}
	if links := shared.Links(); len(links) > 0 {
		s.Link = links[0]
	}
	s.Shell.Set(shellKey, s)
	s.updatePrompt()
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustHaveLink wraps command func requires a current link.
func MustHaveLink(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Link == nil {
			c.Err(fmt.Errorf("no link"))
			return
		}
		fn(c)
	}
}

// Output prints v as JSON if requested, otherwise calls text.
func (s *Shell) Output(c *ishell.Context, v interface{}, text func()) {
	if !s.OutputJSON {
		text()
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// UseLink selects the current link by name or type.
func (s *Shell) UseLink(name string) error {
	for _, link := range s.MIF.Links() {
		if link.Name == name || link.Type.String() == name {
			s.Link = link
			s.updatePrompt()
			return nil
		}
	}
	return fmt.Errorf("link %q: %v", name, iodev.ErrNotFound)
}

func (s *Shell) updatePrompt() {
	if s.Link == nil {
		s.Shell.SetPrompt("[none] > ")
		return
	}
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", s.Link.Name))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// ParseChannel parses a channel id.
func ParseChannel(str string) (uint8, error) {
	val, err := strconv.ParseUint(str, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid channel %q", str)
	}
	return uint8(val), nil
}

// ParseHex parses bytes written as hex, e.g. "ca 00 cb 00" or "ca00cb00".
func ParseHex(args ...string) ([]byte, error) {
	parts := make([]string, len(args))
	for n, arg := range args {
		parts[n] = strings.TrimPrefix(strings.ReplaceAll(arg, ":", ""), "0x")
	}
	str := strings.Join(parts, "")
	if len(str)%2 != 0 {
		return nil, fmt.Errorf("odd number of hex digits")
	}
	data := make([]byte, len(str)/2)
	for i := range data {
		val, err := strconv.ParseUint(str[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex %q", str[i*2:i*2+2])
		}
		data[i] = byte(val)
	}
	return data, nil
}

// LinkState is the displayed state of a link.
type LinkState struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Stopped     bool    `json:"stopped"`
	TxSuspended bool    `json:"tx_suspended"`
	Channels    []uint8 `json:"stopped_channels,omitempty"`
	Commands    uint64  `json:"commands"`
	Unknown     uint64  `json:"unknown"`
	Resumes     uint64  `json:"resumes"`
}

// DeviceState is the displayed state of an IO device.
type DeviceState struct {
	Name    string `json:"name"`
	Channel uint8  `json:"channel"`
	Format  string `json:"format"`
	IoType  string `json:"io_type"`
	TxLink  string `json:"tx_link"`
	Stopped *bool  `json:"stopped,omitempty"`
}

var (
	// LinksCmd lists link devices.
	LinksCmd = ishell.Cmd{
		Name:    "links",
		Aliases: []string{"l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var states []LinkState
			for _, link := range s.MIF.Links() {
				stats := link.Flow.Stats()
				states = append(states, LinkState{
					Name:        link.Name,
					Type:        link.Type.String(),
					Stopped:     link.Flow.IsStopped(),
					TxSuspended: link.Flow.IsTxSuspended(),
					Channels:    link.Flow.StoppedChannels(),
					Commands:    stats.Commands,
					Unknown:     stats.Unknown,
					Resumes:     stats.Resumes,
				})
			}
			s.Output(c, states, func() {
				for _, st := range states {
					state := "running"
					if st.Stopped {
						state = "stopped"
					}
					c.Printf("%s(%s): %s suspended=%v stopped_channels=%v cmds=%d unknown=%d resumes=%d\n",
						st.Name, st.Type, state, st.TxSuspended, st.Channels, st.Commands, st.Unknown, st.Resumes)
				}
			})
		},
	}

	// DevicesCmd lists IO devices in channel registration order.
	DevicesCmd = ishell.Cmd{
		Name:    "devices",
		Aliases: []string{"devs"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var states []DeviceState
			s.MIF.Registry.ForEach(iodev.ActionFunc(func(dev *iodev.IoDevice) error {
				st := DeviceState{
					Name:    dev.Name,
					Channel: dev.Channel,
					Format:  dev.Format.String(),
					IoType:  dev.IoType.String(),
					TxLink:  dev.TxLink().String(),
				}
				if q, ok := dev.NetIf.(*iodev.TxQueue); ok {
					stopped := q.Stopped()
					st.Stopped = &stopped
				}
				states = append(states, st)
				return nil
			}))
			s.Output(c, states, func() {
				for _, st := range states {
					c.Printf("%3d %-12s %-9s %-5s tx=%s", st.Channel, st.Name, st.Format, st.IoType, st.TxLink)
					if st.Stopped != nil && *st.Stopped {
						c.Print(" [stopped]")
					}
					c.Println()
				}
			})
		},
	}

	// UseCmd selects the current link.
	UseCmd = ishell.Cmd{
		Name: "use",
		Help: "LINK",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("LINK required"))
				return
			}
			if err := ShellFrom(c).UseLink(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// NodesCmd discovers running nodes on the MQTT broker.
	NodesCmd = ishell.Cmd{
		Name:    "nodes",
		Aliases: []string{"discover"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			q, err := mqtt.NewQueueFromURL(s.Config.MQTTBrokerURL)
			if err != nil {
				c.Err(err)
				return
			}
			if err := q.Connect(); err != nil {
				c.Err(err)
				return
			}
			defer q.Close()
			nodes, err := mqtt.Discover(context.Background(), q, 0)
			if err != nil {
				c.Err(err)
				return
			}
			if nodes == nil {
				nodes = []mqtt.NodeInfo{}
			}
			s.Output(c, nodes, func() {
				if len(nodes) == 0 {
					c.Println("No nodes found")
					return
				}
				for _, info := range nodes {
					c.Printf("%s: %s links=%v\n", info.Node, info.Meta.Description, info.Meta.Links)
				}
			})
		},
	}

	// PortsCmd lists serial ports usable as control links.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := serial.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Output(c, ports, func() {
				for _, port := range ports {
					c.Println(port)
				}
			})
		},
	}
)

// LinkArg resolves an optional link name argument at index n.
func LinkArg(c *ishell.Context, n int) (*mif.Link, error) {
	s := ShellFrom(c)
	if len(c.Args) <= n {
		if s.Link == nil {
			return nil, fmt.Errorf("no link")
		}
		return s.Link, nil
	}
	t, ok := sipc.ParseLinkType(c.Args[n])
	if ok {
		if link, found := s.MIF.Link(t); found {
			return link, nil
		}
	}
	for _, link := range s.MIF.Links() {
		if link.Name == c.Args[n] {
			return link, nil
		}
	}
	return nil, fmt.Errorf("link %q: %v", c.Args[n], iodev.ErrNotFound)
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := env.NewConfig()
	if err := conf.LoadDefaultFile(); err != nil {
		log.Fatalln(err)
	}
	New(conf, conf.MustNewShared()).Run(flag.Args()...)
}
