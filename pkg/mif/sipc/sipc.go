package sipc

import "fmt"

// Format identifies the protocol family served by an IO device.
type Format int

// Formats
const (
	FormatFmt Format = iota
	FormatRaw
	FormatRFS
	FormatMultiRaw
	FormatBoot
	FormatDump
	FormatCmd
	FormatDebug
)

var formatNames = [...]string{
	FormatFmt:      "fmt",
	FormatRaw:      "raw",
	FormatRFS:      "rfs",
	FormatMultiRaw: "multi-raw",
	FormatBoot:     "boot",
	FormatDump:     "dump",
	FormatCmd:      "cmd",
	FormatDebug:    "debug",
}

// String implements fmt.Stringer.
func (f Format) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat converts a format name back to Format.
func ParseFormat(name string) (Format, bool) {
	for f, n := range formatNames {
		if n == name {
			return Format(f), true
		}
	}
	return 0, false
}

// Channel ids.
const (
	ChCSVTData    uint8 = 1
	ChCSVTControl uint8 = 2
	ChCSVTAudio   uint8 = 3
	ChCSVTVideo   uint8 = 4
	ChPDP0        uint8 = 10
	ChPDP14       uint8 = 24
	ChBTDUN       uint8 = 25
	ChCPLog1      uint8 = 29
	ChCPLog2      uint8 = 30
	ChBoot0       uint8 = 215
	ChDump0       uint8 = 225
	ChFmt0        uint8 = 235
	ChFmt9        uint8 = 244
	ChRFS0        uint8 = 245
	ChRFS9        uint8 = 254
)

// MaxChannels is the size of the channel id space.
const MaxChannels = 256

// IsPSChannel reports whether ch carries packet-switched data.
func IsPSChannel(ch uint8) bool {
	return ch >= ChPDP0 && ch <= ChPDP14
}

// IsCSDChannel reports whether ch carries circuit-switched video telephony.
func IsCSDChannel(ch uint8) bool {
	return ch >= ChCSVTData && ch <= ChCSVTVideo
}

// IsLogChannel reports whether ch carries CP logs.
func IsLogChannel(ch uint8) bool {
	return ch == ChCPLog1 || ch == ChCPLog2
}

// IsBootChannel reports whether ch is a boot channel.
func IsBootChannel(ch uint8) bool {
	return ch >= ChBoot0 && ch < ChDump0
}

// IsDumpChannel reports whether ch is a crash dump channel.
func IsDumpChannel(ch uint8) bool {
	return ch >= ChDump0 && ch < ChFmt0
}

// IsFmtChannel reports whether ch carries IPC format messages.
func IsFmtChannel(ch uint8) bool {
	return ch >= ChFmt0 && ch <= ChFmt9
}

// IsRFSChannel reports whether ch carries remote file system requests.
func IsRFSChannel(ch uint8) bool {
	return ch >= ChRFS0 && ch <= ChRFS9
}

// LinkType identifies the physical link a link device drives.
type LinkType int

// Link types
const (
	LinkUndefined LinkType = iota
	LinkMIPI
	LinkUSB
	LinkHSIC
	LinkDPRAM
	LinkPLD
	LinkC2C
	LinkShmem
	LinkSPI
	linkTypeMax
)

var linkNames = [...]string{
	LinkUndefined: "undefined",
	LinkMIPI:      "mipi",
	LinkUSB:       "usb",
	LinkHSIC:      "hsic",
	LinkDPRAM:     "dpram",
	LinkPLD:       "pld",
	LinkC2C:       "c2c",
	LinkShmem:     "shmem",
	LinkSPI:       "spi",
}

// String implements fmt.Stringer.
func (t LinkType) String() string {
	if t >= 0 && t < linkTypeMax {
		return linkNames[t]
	}
	return fmt.Sprintf("link(%d)", int(t))
}

// IsValid checks the link type is a known, defined link.
func (t LinkType) IsValid() bool {
	return t > LinkUndefined && t < linkTypeMax
}

// ParseLinkType converts a link name back to LinkType.
func ParseLinkType(name string) (LinkType, bool) {
	for t, n := range linkNames {
		if n == name && LinkType(t).IsValid() {
			return LinkType(t), true
		}
	}
	return LinkUndefined, false
}

// LinkMask is a set of link types.
type LinkMask uint32

// MaskOf builds a LinkMask from link types.
func MaskOf(types ...LinkType) LinkMask {
	var m LinkMask
	for _, t := range types {
		m |= 1 << uint(t)
	}
	return m
}

// Has checks whether t is in the mask.
func (m LinkMask) Has(t LinkType) bool {
	return m&(1<<uint(t)) != 0
}
