package logstore

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type chunkCollector struct {
	chunks [][]byte
}

func (c *chunkCollector) WritePacket(chunk []byte) error {
	c.chunks = append(c.chunks, chunk)
	return nil
}

func (c *chunkCollector) slots(t *testing.T) []Record {
	all := bytes.Join(c.chunks, nil)
	require.Zero(t, len(all)%SlotSize)
	recs := make([]Record, 0, len(all)/SlotSize)
	for off := 0; off < len(all); off += SlotSize {
		rec, err := DecodeSlot(all[off : off+SlotSize])
		if err == ErrEmptySlot {
			recs = append(recs, nil)
			continue
		}
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	return recs
}

func newTestStore(t *testing.T, capacity int) *Store {
	s, err := New(capacity)
	require.NoError(t, err)
	var tick uint64
	s.Clock = func() uint64 {
		tick++
		return tick
	}
	return s
}

func texts(recs []Record) []string {
	out := make([]string, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			out = append(out, "")
			continue
		}
		out = append(out, rec.(*CommonText).Text)
	}
	return out
}

func TestNewRejectsBadCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, MaxStorageSize/SlotSize + 1} {
		_, err := New(capacity)
		require.True(t, errors.Is(err, ErrResourceExhausted), "capacity %d", capacity)
	}
}

func TestWraparound(t *testing.T) {
	const capacity = 8
	s := newTestStore(t, capacity)
	for i := 0; i < capacity+3; i++ {
		s.Logf("rec %d", i)
	}
	require.Equal(t, 3, s.Cursor())

	var sink chunkCollector
	require.NoError(t, s.DrainTo(&sink))
	require.Len(t, sink.chunks, 1)
	require.Equal(t, []string{
		"rec 8", "rec 9", "rec 10", "rec 3",
		"rec 4", "rec 5", "rec 6", "rec 7",
	}, texts(sink.slots(t)))

	require.Equal(t, []string{
		"rec 3", "rec 4", "rec 5", "rec 6",
		"rec 7", "rec 8", "rec 9", "rec 10",
	}, texts(s.Records()))
}

func TestDrainChunks(t *testing.T) {
	const slotsPerChunk = ChunkSize / SlotSize
	s := newTestStore(t, slotsPerChunk*2+1)
	s.Logf("first")

	var sink chunkCollector
	require.NoError(t, s.DrainTo(&sink))
	require.Len(t, sink.chunks, 3)
	require.Len(t, sink.chunks[0], ChunkSize)
	require.Len(t, sink.chunks[2], SlotSize)

	recs := sink.slots(t)
	require.Equal(t, "first", recs[0].(*CommonText).Text)
	require.Nil(t, recs[1])
}

func TestDrainSinkError(t *testing.T) {
	s := newTestStore(t, 4)
	fail := errors.New("no buffer")
	err := s.DrainTo(WritePacketFunc(func([]byte) error { return fail }))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no buffer")
}

func TestTruncation(t *testing.T) {
	long := bytes.Repeat([]byte{0xa5}, 200)
	testCases := []struct {
		name   string
		rec    Record
		expect int
	}{
		{"ipc", &IPCMessage{Dir: KindIPCAP2CP, Data: long}, MaxIPCLogSize},
		{"irq", &IRQEvent{Map: IRQMap{Magic: 0xaa}, Data: long}, MaxIRQLogSize},
		{"com", &CommonText{Text: strings.Repeat("x", 200)}, MaxComLogSize},
		{"time", &TimeMarker{Epoch: time.Unix(100, 5), Data: long}, MaxTimeLogSize},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore(t, 2)
			s.Append(tc.rec)
			require.Equal(t, Stats{Appends: 1, Truncations: 1}, s.Stats())
			recs := s.Records()
			require.Len(t, recs, 1)
			switch rec := recs[0].(type) {
			case *IPCMessage:
				require.Equal(t, long[:tc.expect], rec.Data)
			case *IRQEvent:
				require.Equal(t, uint16(0xaa), rec.Map.Magic)
				require.Equal(t, long[:tc.expect], rec.Data)
			case *CommonText:
				require.Equal(t, strings.Repeat("x", tc.expect), rec.Text)
			case *TimeMarker:
				require.Equal(t, time.Unix(100, 5), rec.Epoch)
				require.Equal(t, long[:tc.expect], rec.Data)
			default:
				t.Fatalf("unexpected record %T", rec)
			}
		})
	}
}

func TestShortRecordClearsSlot(t *testing.T) {
	s := newTestStore(t, 1)
	s.LogIPC(KindIPCCP2AP, bytes.Repeat([]byte{0xff}, MaxIPCLogSize))
	s.LogIRQ(IRQMap{CP2AP: 7}, []byte{1, 2})
	recs := s.Records()
	require.Len(t, recs, 1)
	ev := recs[0].(*IRQEvent)
	require.Equal(t, IRQMap{CP2AP: 7}, ev.Map)
	require.Equal(t, []byte{1, 2}, ev.Data)
	require.Equal(t, uint64(2), ev.Timestamp())
}

func TestRejectsUnknownKind(t *testing.T) {
	testCases := []struct {
		name string
		dir  Kind
	}{
		{"none", KindNone},
		{"out of range", Kind(42)},
		{"irq direction", KindIRQ},
		{"common direction", KindCommon},
		{"time direction", KindTime},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore(t, 4)
			s.Logf("before")
			s.Append(&IPCMessage{Dir: tc.dir, Data: bytes.Repeat([]byte{1}, MaxIPCLogSize)})
			s.Logf("after")
			require.Equal(t, Stats{Appends: 2, Rejected: 1}, s.Stats())
			require.Equal(t, 2, s.Cursor())
			require.Equal(t, []string{"before", "after"}, texts(s.Records()))

			var sink chunkCollector
			require.NoError(t, s.DrainTo(&sink))
			recs, err := DecodeImage(bytes.Join(sink.chunks, nil), s.Cursor())
			require.NoError(t, err)
			require.Equal(t, []string{"before", "after"}, texts(recs))
		})
	}
}

func TestDecodeSlotErrors(t *testing.T) {
	_, err := DecodeSlot(make([]byte, SlotSize-1))
	require.Equal(t, ErrBadSlot, err)
	_, err = DecodeSlot(make([]byte, SlotSize))
	require.Equal(t, ErrEmptySlot, err)

	slot := make([]byte, SlotSize)
	slot[0] = 99
	_, err = DecodeSlot(slot)
	require.Equal(t, &ErrUnknownKind{Kind: 99}, err)

	slot[0], slot[1] = byte(KindIRQ), MaxIRQLogSize+1
	_, err = DecodeSlot(slot)
	require.Equal(t, ErrBadSlot, err)
}

func TestConcurrentAppenders(t *testing.T) {
	const (
		capacity  = 64
		appenders = 8
		perWriter = 100
	)
	s, err := New(capacity)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < appenders; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.Logf("w%d-%03d", w, i)
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, (appenders*perWriter)%capacity, s.Cursor())
	require.Equal(t, uint64(appenders*perWriter), s.Stats().Appends)

	var sink chunkCollector
	require.NoError(t, s.DrainTo(&sink))
	recs := sink.slots(t)
	require.Len(t, recs, capacity)
	for n, rec := range recs {
		require.NotNil(t, rec, "slot %d", n)
		var w, i int
		_, err := fmt.Sscanf(rec.(*CommonText).Text, "w%d-%03d", &w, &i)
		require.NoError(t, err, "slot %d corrupted", n)
		require.True(t, w >= 0 && w < appenders && i >= 0 && i < perWriter)
	}
}

func TestDecodeImage(t *testing.T) {
	s := newTestStore(t, 4)
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		s.Logf("%s", text)
	}
	var sink chunkCollector
	require.NoError(t, s.DrainTo(&sink))
	image := bytes.Join(sink.chunks, nil)

	recs, err := DecodeImage(image, s.Cursor())
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c", "d", "e"}, texts(recs))
	require.Equal(t, texts(s.Records()), texts(recs))

	_, err = DecodeImage(image[:SlotSize+1], 0)
	require.True(t, errors.Is(err, ErrBadSlot))
	_, err = DecodeImage(image, 4)
	require.Error(t, err)

	partial := newTestStore(t, 4)
	partial.Logf("only")
	sink = chunkCollector{}
	require.NoError(t, partial.DrainTo(&sink))
	recs, err = DecodeImage(bytes.Join(sink.chunks, nil), partial.Cursor())
	require.NoError(t, err)
	require.Equal(t, []string{"only"}, texts(recs))
}
