// Package node assembles a modem interface daemon from its config: the
// control link receiver, dump exporters and the MQTT presence.
package node

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/modem.go/pkg/comm"
	"github.com/robotalks/modem.go/pkg/comm/file"
	"github.com/robotalks/modem.go/pkg/comm/mqtt"
	"github.com/robotalks/modem.go/pkg/comm/serial"
	wscomm "github.com/robotalks/modem.go/pkg/comm/websocket"
	"github.com/robotalks/modem.go/pkg/dump"
	fx "github.com/robotalks/modem.go/pkg/framework"
	"github.com/robotalks/modem.go/pkg/mif"
	"github.com/robotalks/modem.go/pkg/mif/env"
	"github.com/robotalks/modem.go/pkg/mif/flowctl"
	"github.com/robotalks/modem.go/pkg/mif/sipc"
)

// DumpPath is the websocket path serving dumps.
const DumpPath = "/dump"

// Control requests accepted on the MQTT ctrl topic.
const (
	RequestDump = "dump"
)

// Node is a configured modem interface daemon.
type Node struct {
	Config    *env.Config
	MIF       *mif.Shared
	Harvester *dump.Harvester

	dumpLock  sync.Mutex
	dumpFile  *file.Writer
	exporters comm.MultiWriter
	runners   []fx.Runnable
}

// New creates the runtime and the configured exporters. Transports that
// need a connection are opened when the node runs.
func New(conf *env.Config) (*Node, error) {
	shared, err := conf.NewShared()
	if err != nil {
		return nil, err
	}
	n := &Node{
		Config:    conf,
		MIF:       shared,
		Harvester: dump.NewHarvester(shared.Log, conf.NodeID, env.MachineID()),
	}
	if conf.DumpFile.Path != "" {
		w := file.NewWriter(conf.DumpFile)
		n.dumpFile = w
		n.exporters.Add(w)
		n.runners = append(n.runners, fx.NamedRun("dump-file", fx.RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return w.Close()
		})))
	}
	if conf.Control.Port != "" {
		if err := n.addControl(); err != nil {
			return nil, err
		}
	}
	if conf.MQTTBrokerURL != "" {
		if err := n.addMQTT(); err != nil {
			return nil, err
		}
	}
	if conf.DumpListen != "" {
		server := &http.Server{Addr: conf.DumpListen, Handler: n.Handler()}
		n.runners = append(n.runners, fx.NamedRun("dump-ws", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, server, func() error {
				if err := server.ListenAndServe(); err != http.ErrServerClosed {
					return err
				}
				return nil
			})
		})))
	}
	return n, nil
}

func (n *Node) addControl() error {
	t, ok := sipc.ParseLinkType(n.Config.ControlLink)
	if !ok {
		return fmt.Errorf("control link: unknown type %q", n.Config.ControlLink)
	}
	link, ok := n.MIF.Link(t)
	if !ok {
		return fmt.Errorf("control link %v not configured", t)
	}
	conf := n.Config.Control
	n.runners = append(n.runners, fx.NamedRun("control", fx.RunFunc(func(ctx context.Context) error {
		port, err := serial.Open(conf)
		if err != nil {
			return err
		}
		r := &flowctl.Receiver{Reader: port, Decoder: flowctl.NewDecoder(link.Flow)}
		return r.Run(ctx)
	})))
	return nil
}

func (n *Node) addMQTT() error {
	meta := mqtt.NodeMeta{
		Description: "modem interface",
		Channels:    n.MIF.Registry.Channels(),
	}
	for _, link := range n.MIF.Links() {
		meta.Links = append(meta.Links, link.Name)
	}
	announcer, err := mqtt.NewAnnouncer(n.Config.MQTTBrokerURL, n.Config.NodeID, meta)
	if err != nil {
		return fmt.Errorf("create MQTT announcer error: %v", err)
	}
	rw := mqtt.NewPacketReadWriter(announcer.Queue).ForNode(n.Config.NodeID)
	n.exporters.Add(rw)
	n.runners = append(n.runners,
		fx.NamedRun("mqtt", announcer),
		fx.NamedRun("mqtt-ctrl", rw),
		fx.NamedRun("mqtt-requests", fx.RunFunc(func(ctx context.Context) error {
			return n.ServeRequests(ctx, rw)
		})),
	)
	return nil
}

// Runnables returns everything to run.
func (n *Node) Runnables() []fx.Runnable {
	return n.runners
}

// Dump harvests the log store into every configured exporter. Each dump
// starts a new dump file.
func (n *Node) Dump() (string, error) {
	n.dumpLock.Lock()
	defer n.dumpLock.Unlock()
	if n.dumpFile != nil {
		if err := n.dumpFile.Rotate(); err != nil {
			return "", fmt.Errorf("rotate dump file: %v", err)
		}
	}
	return n.Harvester.Harvest(&n.exporters)
}

// DumpTo harvests the log store into w. Dumps are serialized.
func (n *Node) DumpTo(w comm.PacketWriter) (string, error) {
	n.dumpLock.Lock()
	defer n.dumpLock.Unlock()
	return n.Harvester.Harvest(w)
}

// ServeRequests handles text requests read from r until it ends.
func (n *Node) ServeRequests(ctx context.Context, r comm.PacketReader) error {
	return fx.RunWithContextCancel(ctx, nil, func() error {
		for {
			pkt, err := r.ReadPacket()
			if err != nil {
				return nil
			}
			n.handleRequest(strings.TrimSpace(string(pkt)))
		}
	})
}

func (n *Node) handleRequest(req string) {
	switch req {
	case RequestDump:
		if _, err := n.Dump(); err != nil {
			glog.Errorf("dump request: %v", err)
		}
	default:
		glog.Warningf("unknown request %q", req)
	}
}

// Handler serves one dump session per websocket connection.
func (n *Node) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(DumpPath, websocket.Handler(func(conn *websocket.Conn) {
		defer conn.Close()
		if _, err := n.DumpTo(wscomm.New(conn)); err != nil {
			glog.Warningf("websocket dump to %s: %v", conn.Request().RemoteAddr, err)
		}
	}))
	return mux
}
