package sipc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelClasses(t *testing.T) {
	testCases := []struct {
		name string
		ch   uint8
		fn   func(uint8) bool
	}{
		{"pdp first", ChPDP0, IsPSChannel},
		{"pdp last", ChPDP14, IsPSChannel},
		{"csvt", ChCSVTAudio, IsCSDChannel},
		{"cplog", ChCPLog2, IsLogChannel},
		{"boot", ChBoot0, IsBootChannel},
		{"dump", ChDump0, IsDumpChannel},
		{"fmt", ChFmt0 + 1, IsFmtChannel},
		{"rfs", ChRFS0, IsRFSChannel},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.True(t, tc.fn(tc.ch))
		})
	}
	require.False(t, IsPSChannel(ChPDP14+1))
	require.False(t, IsFmtChannel(ChRFS0))
}

func TestFormatNames(t *testing.T) {
	for f := FormatFmt; f <= FormatDebug; f++ {
		parsed, ok := ParseFormat(f.String())
		require.True(t, ok)
		require.Equal(t, f, parsed)
	}
	_, ok := ParseFormat("nope")
	require.False(t, ok)
	require.Equal(t, "format(99)", Format(99).String())
}

func TestLinkMask(t *testing.T) {
	m := MaskOf(LinkUSB, LinkShmem)
	require.True(t, m.Has(LinkUSB))
	require.True(t, m.Has(LinkShmem))
	require.False(t, m.Has(LinkHSIC))

	lt, ok := ParseLinkType("hsic")
	require.True(t, ok)
	require.Equal(t, LinkHSIC, lt)
	_, ok = ParseLinkType("undefined")
	require.False(t, ok)
}
