package flowctl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/modem.go/pkg/mif/iodev"
	"github.com/robotalks/modem.go/pkg/mif/sipc"
)

type fakeNetIf struct {
	stops, wakes int
}

func (f *fakeNetIf) StopQueue() { f.stops++ }
func (f *fakeNetIf) WakeQueue() { f.wakes++ }

type testLink struct {
	reg  *iodev.Registry
	ctl  *Controller
	pdp0 *fakeNetIf
	pdp1 *fakeNetIf
}

func newTestLink(t *testing.T, withDefault bool) *testLink {
	l := &testLink{reg: iodev.NewRegistry(), pdp0: &fakeNetIf{}, pdp1: &fakeNetIf{}}
	devs := []*iodev.IoDevice{
		{Name: "umts_ipc0", Channel: sipc.ChFmt0, Format: sipc.FormatFmt, IoType: iodev.IoTypeMisc},
		{Name: "rmnet1", Channel: sipc.ChPDP0 + 1, Format: sipc.FormatRaw, IoType: iodev.IoTypeNet, NetIf: l.pdp1},
	}
	if withDefault {
		devs = append(devs, &iodev.IoDevice{
			Name: "rmnet0", Channel: sipc.ChPDP0, Format: sipc.FormatRaw, IoType: iodev.IoTypeNet, NetIf: l.pdp0,
		})
	}
	for _, dev := range devs {
		require.NoError(t, l.reg.RegisterByChannel(dev))
	}
	l.ctl = New("shmem", l.reg)
	return l
}

func TestChannelIdempotency(t *testing.T) {
	l := newTestLink(t, true)
	ch := uint8(sipc.ChPDP0 + 1)

	require.True(t, l.ctl.StopChannel(ch))
	require.False(t, l.ctl.StopChannel(ch))
	require.True(t, l.ctl.IsChannelStopped(ch))
	require.Equal(t, []uint8{ch}, l.ctl.StoppedChannels())
	require.Equal(t, 1, l.pdp1.stops)

	require.True(t, l.ctl.ResumeChannel(ch))
	require.False(t, l.ctl.ResumeChannel(ch))
	require.False(t, l.ctl.IsChannelStopped(ch))
	require.Empty(t, l.ctl.StoppedChannels())
	require.Equal(t, 1, l.pdp1.wakes)
}

func TestChannelUnknown(t *testing.T) {
	l := newTestLink(t, true)
	require.False(t, l.ctl.StopChannel(99))
	require.False(t, l.ctl.IsChannelStopped(99))
	require.False(t, l.ctl.ResumeChannel(99))
}

func TestGlobalIdempotency(t *testing.T) {
	l := newTestLink(t, true)
	require.False(t, l.ctl.IsStopped())
	require.False(t, l.ctl.ResumeAll())

	require.True(t, l.ctl.StopAll())
	require.False(t, l.ctl.StopAll())
	require.True(t, l.ctl.IsStopped())
	require.Equal(t, 1, l.pdp0.stops)
	require.Equal(t, 1, l.pdp1.stops)

	require.True(t, l.ctl.ResumeAll())
	require.False(t, l.ctl.ResumeAll())
	require.False(t, l.ctl.IsStopped())
	require.Equal(t, 1, l.pdp0.wakes)
	require.Equal(t, 1, l.pdp1.wakes)
	require.Equal(t, uint64(1), l.ctl.Stats().Resumes)
}

func TestSweepNeedsDefaultChannel(t *testing.T) {
	l := newTestLink(t, false)
	require.True(t, l.ctl.StopAll())
	require.True(t, l.ctl.IsStopped())
	require.Zero(t, l.pdp1.stops)
	require.True(t, l.ctl.ResumeAll())
	require.Zero(t, l.pdp1.wakes)
}

func TestHandleCommand(t *testing.T) {
	testCases := []struct {
		name      string
		codes     []uint16
		stopped   bool
		suspended bool
		unknown   uint64
		resumes   uint64
	}{
		{name: "suspend", codes: []uint16{CmdSuspend}, stopped: true, suspended: true},
		{name: "suspend twice", codes: []uint16{CmdSuspend, CmdSuspend}, stopped: true, suspended: true},
		{name: "round trip", codes: []uint16{CmdSuspend, CmdResume}, resumes: 1},
		{name: "resume only", codes: []uint16{CmdResume}},
		{name: "unknown", codes: []uint16{0x1234}, unknown: 1},
		{name: "unknown between", codes: []uint16{CmdSuspend, 0x00CC, CmdResume}, unknown: 1, resumes: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := newTestLink(t, true)
			for _, code := range tc.codes {
				l.ctl.HandleCommand(code)
			}
			require.Equal(t, tc.stopped, l.ctl.IsStopped())
			require.Equal(t, tc.suspended, l.ctl.IsTxSuspended())
			stats := l.ctl.Stats()
			require.Equal(t, uint64(len(tc.codes)), stats.Commands)
			require.Equal(t, tc.unknown, stats.Unknown)
			require.Equal(t, tc.resumes, stats.Resumes)
		})
	}
}

func TestWaitResumed(t *testing.T) {
	l := newTestLink(t, true)
	require.True(t, l.ctl.WaitResumed(context.Background()))

	l.ctl.HandleCommand(CmdSuspend)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.False(t, l.ctl.WaitResumed(ctx))

	done := make(chan bool, 1)
	go func() {
		done <- l.ctl.WaitResumed(context.Background())
	}()
	l.ctl.HandleCommand(CmdResume)
	select {
	case resumed := <-done:
		require.True(t, resumed)
	case <-time.After(time.Second):
		t.Fatal("waiter not released")
	}
}
