package sh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		data []byte
		fail bool
	}{
		{name: "spaced", args: []string{"ca", "00", "cb", "00"}, data: []byte{0xca, 0, 0xcb, 0}},
		{name: "packed", args: []string{"0xca00"}, data: []byte{0xca, 0}},
		{name: "prefixed args", args: []string{"0xca", "0x00", "cb00"}, data: []byte{0xca, 0, 0xcb, 0}},
		{name: "colons", args: []string{"de:ad"}, data: []byte{0xde, 0xad}},
		{name: "empty", data: []byte{}},
		{name: "odd", args: []string{"abc"}, fail: true},
		{name: "bad digit", args: []string{"zz"}, fail: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := ParseHex(tc.args...)
			if tc.fail {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.data, data)
		})
	}
}

func TestParseChannel(t *testing.T) {
	ch, err := ParseChannel("10")
	require.NoError(t, err)
	require.Equal(t, uint8(10), ch)
	ch, err = ParseChannel("0xeb")
	require.NoError(t, err)
	require.Equal(t, uint8(235), ch)
	_, err = ParseChannel("256")
	require.Error(t, err)
}
