package flowctl

import "github.com/robotalks/modem.go/pkg/mif/sipc"

// ChannelMask is a set of channel ids.
type ChannelMask [sipc.MaxChannels / 64]uint64

// Test checks whether ch is in the set.
func (m *ChannelMask) Test(ch uint8) bool {
	return m[ch>>6]&(1<<(ch&63)) != 0
}

// Set adds ch to the set.
func (m *ChannelMask) Set(ch uint8) {
	m[ch>>6] |= 1 << (ch & 63)
}

// Clear removes ch from the set.
func (m *ChannelMask) Clear(ch uint8) {
	m[ch>>6] &^= 1 << (ch & 63)
}

// Channels lists the channels in the set in ascending order.
func (m *ChannelMask) Channels() []uint8 {
	var chs []uint8
	for ch := 0; ch < sipc.MaxChannels; ch++ {
		if m.Test(uint8(ch)) {
			chs = append(chs, uint8(ch))
		}
	}
	return chs
}
