package flowctl

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/modem.go/pkg/comm/stream"
)

func TestDecode(t *testing.T) {
	testCases := []struct {
		name      string
		data      []byte
		codes     []uint16
		malformed uint64
	}{
		{name: "empty"},
		{name: "suspend resume", data: []byte{0xCA, 0x00, 0xCB, 0x00}, codes: []uint16{CmdSuspend, CmdResume}},
		{name: "little endian", data: []byte{0x34, 0x12}, codes: []uint16{0x1234}},
		{name: "odd trailing", data: []byte{0xCA, 0x00, 0xCB}, codes: []uint16{CmdSuspend}, malformed: 1},
		{name: "single byte", data: []byte{0xCA}, malformed: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var codes []uint16
			d := NewDecoder(HandleCommandFunc(func(code uint16) {
				codes = append(codes, code)
			}))
			require.Equal(t, len(tc.codes), d.Decode(tc.data))
			require.Equal(t, tc.codes, codes)
			require.Equal(t, tc.malformed, d.Malformed())
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	l := newTestLink(t, true)
	var resumed <-chan struct{}
	d := NewDecoder(HandleCommandFunc(func(code uint16) {
		l.ctl.HandleCommand(code)
		if code == CmdSuspend {
			resumed = l.ctl.Resumed()
			select {
			case <-resumed:
				t.Error("resume signal released while suspended")
			default:
			}
		}
	}))

	require.Equal(t, 2, d.Decode([]byte{0xCA, 0x00, 0xCB, 0x00}))
	require.NotNil(t, resumed)
	require.False(t, l.ctl.IsStopped())
	require.False(t, l.ctl.IsTxSuspended())
	require.Equal(t, uint64(1), l.ctl.Stats().Resumes)
	require.Equal(t, 1, l.pdp0.stops)
	require.Equal(t, 1, l.pdp0.wakes)
	require.Equal(t, 1, l.pdp1.stops)
	require.Equal(t, 1, l.pdp1.wakes)
	select {
	case <-resumed:
	default:
		t.Fatal("resume signal not released")
	}
}

func TestReceiver(t *testing.T) {
	var buf bytes.Buffer
	w := stream.New(&buf)
	require.NoError(t, w.WritePacket([]byte{0xCA, 0x00}))
	require.NoError(t, w.WritePacket([]byte{0xFF, 0xFF, 0xCB, 0x00}))

	l := newTestLink(t, true)
	r := &Receiver{Reader: stream.New(&buf), Decoder: NewDecoder(l.ctl)}
	require.NoError(t, r.Run(context.Background()))

	stats := l.ctl.Stats()
	require.Equal(t, uint64(3), stats.Commands)
	require.Equal(t, uint64(1), stats.Unknown)
	require.Equal(t, uint64(1), stats.Resumes)
	require.False(t, l.ctl.IsStopped())
}
