package mif

import (
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/modem.go/pkg/mif/sipc"
)

// Layer is where an IPC packet is observed.
type Layer int

// Layers
const (
	LayerLinkRx Layer = iota
	LayerLinkTx
	LayerIodRx
	LayerIodTx
)

var layerNames = [...]string{
	LayerLinkRx: "LNK-RX",
	LayerLinkTx: "LNK-TX",
	LayerIodRx:  "IOD-RX",
	LayerIodTx:  "IOD-TX",
}

// String implements fmt.Stringer.
func (l Layer) String() string {
	if l >= 0 && int(l) < len(layerNames) {
		return layerNames[l]
	}
	return fmt.Sprintf("layer(%d)", int(l))
}

// DebugFlags selects which packets LogIPCPacket prints.
type DebugFlags uint32

// Debug flags
const (
	DebugIOD DebugFlags = 1 << iota
	DebugPS
	DebugFmt
	DebugRFS
	DebugCSVT
	DebugLog
	DebugBoot
	DebugDump
	DebugUnknown

	DebugAll = DebugIOD | DebugPS | DebugFmt | DebugRFS | DebugCSVT |
		DebugLog | DebugBoot | DebugDump | DebugUnknown
)

var debugFlagNames = []struct {
	flag DebugFlags
	name string
}{
	{DebugIOD, "iod"},
	{DebugPS, "ps"},
	{DebugFmt, "fmt"},
	{DebugRFS, "rfs"},
	{DebugCSVT, "csvt"},
	{DebugLog, "log"},
	{DebugBoot, "boot"},
	{DebugDump, "dump"},
	{DebugUnknown, "unknown"},
}

// ParseDebugFlags parses a comma separated list of flag names.
// "all" enables every flag.
func ParseDebugFlags(s string) (DebugFlags, error) {
	var flags DebugFlags
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == "all" {
			flags |= DebugAll
			continue
		}
		found := false
		for _, f := range debugFlagNames {
			if f.name == name {
				flags |= f.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown debug flag %q", name)
		}
	}
	return flags, nil
}

// String implements fmt.Stringer.
func (f DebugFlags) String() string {
	var names []string
	for _, n := range debugFlagNames {
		if f&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

// Packet dump lengths.
const (
	dumpShort = 16
	dumpPS    = 64
)

// ipcLogLen returns how many bytes of a packet on ch should be printed,
// or 0 if the packet is filtered out.
func (f DebugFlags) ipcLogLen(layer Layer, ch uint8) int {
	if layer == LayerIodRx || layer == LayerIodTx {
		if f&DebugIOD == 0 {
			return 0
		}
		return dumpShort
	}
	if sipc.IsPSChannel(ch) && f&DebugPS != 0 {
		return dumpPS
	}
	switch {
	case sipc.IsFmtChannel(ch) && f&DebugFmt != 0,
		sipc.IsRFSChannel(ch) && f&DebugRFS != 0,
		sipc.IsCSDChannel(ch) && f&DebugCSVT != 0,
		sipc.IsLogChannel(ch) && f&DebugLog != 0,
		sipc.IsBootChannel(ch) && f&DebugBoot != 0,
		sipc.IsDumpChannel(ch) && f&DebugDump != 0,
		f&DebugUnknown != 0:
		return dumpShort
	}
	return 0
}

func dumpHex(data []byte, max int) string {
	if len(data) > max {
		return fmt.Sprintf("% x ...", data[:max])
	}
	return fmt.Sprintf("% x", data)
}

func printIPC(layer Layer, ch uint8, data []byte, max int) {
	glog.Infof("mif: %s(ch=%d len=%d): %s", layer, ch, len(data), dumpHex(data, max))
}
