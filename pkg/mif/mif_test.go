package mif

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/modem.go/pkg/mif/iodev"
	"github.com/robotalks/modem.go/pkg/mif/logstore"
	"github.com/robotalks/modem.go/pkg/mif/sipc"
)

func newShared(t *testing.T, debug DebugFlags) *Shared {
	conf := DefaultConfig()
	conf.LogCapacity = 16
	conf.Debug = debug
	s, err := New(conf)
	require.NoError(t, err)
	return s
}

func TestNewBadCapacity(t *testing.T) {
	conf := DefaultConfig()
	conf.LogCapacity = 0
	_, err := New(conf)
	require.ErrorIs(t, err, logstore.ErrResourceExhausted)
}

func TestAddLink(t *testing.T) {
	s := newShared(t, 0)
	shmem, err := s.AddLink("shmem", sipc.LinkShmem)
	require.NoError(t, err)
	require.Equal(t, sipc.ChPDP0, shmem.Flow.DefaultChannel)

	_, err = s.AddLink("shmem1", sipc.LinkShmem)
	require.ErrorIs(t, err, ErrLinkExists)
	_, err = s.AddLink("bad", sipc.LinkUndefined)
	require.Error(t, err)

	_, err = s.AddLink("usb", sipc.LinkUSB)
	require.NoError(t, err)

	link, ok := s.Link(sipc.LinkShmem)
	require.True(t, ok)
	require.Same(t, shmem, link)
	_, ok = s.Link(sipc.LinkHSIC)
	require.False(t, ok)
	links := s.Links()
	require.Len(t, links, 2)
	require.Equal(t, sipc.LinkUSB, links[0].Type)
}

func TestAttach(t *testing.T) {
	s := newShared(t, 0)
	ipc0 := &iodev.IoDevice{Name: "umts_ipc0", Channel: sipc.ChFmt0, Format: sipc.FormatFmt}
	ipc1 := &iodev.IoDevice{Name: "umts_ipc1", Channel: sipc.ChFmt0 + 1, Format: sipc.FormatFmt}
	require.NoError(t, s.Attach(ipc0))
	require.NoError(t, s.Attach(ipc1))
	require.Error(t, s.Attach(&iodev.IoDevice{Name: "dup", Channel: sipc.ChFmt0, Format: sipc.FormatBoot}))

	dev, ok := s.Registry.LookupByFormat(sipc.FormatFmt)
	require.True(t, ok)
	require.Same(t, ipc0, dev)
	dev, ok = s.Registry.LookupByChannel(sipc.ChFmt0 + 1)
	require.True(t, ok)
	require.Same(t, ipc1, dev)
	require.Equal(t, []uint8{sipc.ChFmt0, sipc.ChFmt0 + 1}, s.Registry.Channels())
}

func TestRawDevsSetTxLink(t *testing.T) {
	s := newShared(t, 0)
	_, err := s.AddLink("shmem", sipc.LinkShmem)
	require.NoError(t, err)

	both := sipc.MaskOf(sipc.LinkShmem, sipc.LinkUSB)
	rmnet0 := &iodev.IoDevice{Name: "rmnet0", Channel: sipc.ChPDP0, Format: sipc.FormatRaw, Links: both}
	rmnet1 := &iodev.IoDevice{Name: "rmnet1", Channel: sipc.ChPDP0 + 1, Format: sipc.FormatRaw, Links: sipc.MaskOf(sipc.LinkUSB)}
	ipc0 := &iodev.IoDevice{Name: "umts_ipc0", Channel: sipc.ChFmt0, Format: sipc.FormatFmt, Links: both}
	for _, dev := range []*iodev.IoDevice{rmnet0, rmnet1, ipc0} {
		dev.SetTxLink(sipc.LinkUSB)
		require.NoError(t, s.Attach(dev))
	}

	require.NoError(t, s.RawDevsSetTxLink(sipc.LinkShmem))
	require.Equal(t, sipc.LinkShmem, rmnet0.TxLink())
	require.Equal(t, sipc.LinkUSB, rmnet1.TxLink())
	require.Equal(t, sipc.LinkUSB, ipc0.TxLink())

	require.ErrorIs(t, s.RawDevsSetTxLink(sipc.LinkHSIC), iodev.ErrNotFound)
}

func TestLogIPCPacket(t *testing.T) {
	pkt := []byte{1, 2, 3}
	testCases := []struct {
		name   string
		flags  DebugFlags
		layer  Layer
		ch     uint8
		logged bool
	}{
		{name: "iod filtered", flags: DebugAll &^ DebugIOD, layer: LayerIodRx, ch: sipc.ChFmt0},
		{name: "iod", flags: DebugIOD, layer: LayerIodTx, ch: sipc.ChFmt0, logged: true},
		{name: "ps", flags: DebugPS, layer: LayerLinkRx, ch: sipc.ChPDP0, logged: true},
		{name: "fmt", flags: DebugFmt, layer: LayerLinkTx, ch: sipc.ChFmt9, logged: true},
		{name: "fmt filtered", flags: DebugRFS, layer: LayerLinkTx, ch: sipc.ChFmt0},
		{name: "rfs", flags: DebugRFS, layer: LayerLinkRx, ch: sipc.ChRFS0, logged: true},
		{name: "csvt", flags: DebugCSVT, layer: LayerLinkRx, ch: sipc.ChCSVTAudio, logged: true},
		{name: "log", flags: DebugLog, layer: LayerLinkRx, ch: sipc.ChCPLog1, logged: true},
		{name: "boot", flags: DebugBoot, layer: LayerLinkRx, ch: sipc.ChBoot0, logged: true},
		{name: "dump", flags: DebugDump, layer: LayerLinkRx, ch: sipc.ChDump0, logged: true},
		{name: "unknown", flags: DebugUnknown, layer: LayerLinkRx, ch: 100, logged: true},
		{name: "none", layer: LayerLinkRx, ch: 100},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newShared(t, tc.flags)
			require.Equal(t, tc.logged, s.LogIPCPacket(tc.layer, tc.ch, pkt))
		})
	}
	require.False(t, newShared(t, DebugAll).LogIPCPacket(LayerLinkRx, 0, nil))
}

func TestParseDebugFlags(t *testing.T) {
	flags, err := ParseDebugFlags("fmt, rfs,,ps")
	require.NoError(t, err)
	require.Equal(t, DebugFmt|DebugRFS|DebugPS, flags)
	require.Equal(t, "ps,fmt,rfs", flags.String())

	flags, err = ParseDebugFlags("all")
	require.NoError(t, err)
	require.Equal(t, DebugAll, flags)

	_, err = ParseDebugFlags("fmt,bogus")
	require.Error(t, err)
}

func TestDumpHex(t *testing.T) {
	require.Equal(t, "01 02", dumpHex([]byte{1, 2}, 16))
	require.Equal(t, "01 02 ...", dumpHex([]byte{1, 2, 3}, 2))
}
