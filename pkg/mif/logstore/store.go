package logstore

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Storage geometry defaults.
const (
	// DefaultCapacity is the number of slots of a default store (512 KiB).
	DefaultCapacity = 8192
	// ChunkSize is the size of the chunks handed to a Sink on drain.
	ChunkSize = 4096
	// MaxStorageSize bounds the backing storage of a store.
	MaxStorageSize = 64 << 20
)

// ErrResourceExhausted indicates the backing storage can't be allocated.
var ErrResourceExhausted = errors.New("log storage exhausted")

// Sink consumes chunks drained from a store.
type Sink interface {
	WritePacket([]byte) error
}

// WritePacketFunc is func form of Sink.
type WritePacketFunc func([]byte) error

// WritePacket implements Sink.
func (f WritePacketFunc) WritePacket(chunk []byte) error {
	return f(chunk)
}

// Stats reports counters of a store.
type Stats struct {
	Appends     uint64
	Truncations uint64
	Rejected    uint64
}

type slot struct {
	lock sync.Mutex
	buf  [SlotSize]byte
}

// Store is the circular log store.
type Store struct {
	// Clock returns monotonic nanoseconds used to stamp records.
	// It must be set before the store is shared.
	Clock func() uint64

	lock   sync.Mutex
	cursor int
	slots  []slot

	appends     uint64
	truncations uint64
	rejected    uint64
}

// New allocates a store with capacity slots.
func New(capacity int) (*Store, error) {
	if capacity <= 0 || capacity > MaxStorageSize/SlotSize {
		return nil, fmt.Errorf("%w: %d slots", ErrResourceExhausted, capacity)
	}
	start := time.Now()
	s := &Store{
		Clock: func() uint64 { return uint64(time.Since(start)) },
		slots: make([]slot, capacity),
	}
	glog.V(1).Infof("log store: %d slots (%d bytes)", capacity, capacity*SlotSize)
	return s, nil
}

// Capacity returns the number of slots.
func (s *Store) Capacity() int {
	return len(s.slots)
}

// Cursor returns the index of the next slot to overwrite.
func (s *Store) Cursor() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.cursor
}

// Stats returns a snapshot of the counters.
func (s *Store) Stats() Stats {
	return Stats{
		Appends:     atomic.LoadUint64(&s.appends),
		Truncations: atomic.LoadUint64(&s.truncations),
		Rejected:    atomic.LoadUint64(&s.rejected),
	}
}

// Append writes rec into the slot at the cursor and advances the cursor.
// Only the slot claim is serialized with other appenders; the copy runs
// under the claimed slot's own lock.
func (s *Store) Append(rec Record) {
	if !validKind(rec) {
		atomic.AddUint64(&s.rejected, 1)
		glog.Warningf("log store: record kind %v rejected", rec.Kind())
		return
	}

	s.lock.Lock()
	sl := &s.slots[s.cursor]
	if s.cursor++; s.cursor >= len(s.slots) {
		s.cursor = 0
	}
	s.lock.Unlock()

	ts := s.Clock()
	sl.lock.Lock()
	truncated := encodeSlot(sl.buf[:], rec, ts)
	sl.lock.Unlock()

	atomic.AddUint64(&s.appends, 1)
	if truncated {
		atomic.AddUint64(&s.truncations, 1)
		if glog.V(3) {
			glog.Infof("log store: %v payload truncated", rec.Kind())
		}
	}
}

// validKind checks the kind is known and matches the variant's body layout.
func validKind(rec Record) bool {
	k := rec.Kind()
	if k == KindNone || k > KindTime {
		return false
	}
	if _, ok := rec.(*IPCMessage); ok {
		return k.IsIPC()
	}
	return !k.IsIPC()
}

// LogIPC appends an IPC message for the given direction.
func (s *Store) LogIPC(dir Kind, data []byte) {
	s.Append(&IPCMessage{Dir: dir, Data: data})
}

// LogIRQ appends an interrupt snapshot.
func (s *Store) LogIRQ(m IRQMap, data []byte) {
	s.Append(&IRQEvent{Map: m, Data: data})
}

// Logf appends a formatted text message.
func (s *Store) Logf(format string, args ...interface{}) {
	s.Append(&CommonText{Text: fmt.Sprintf(format, args...)})
}

// LogTime appends a wall-clock marker.
func (s *Store) LogTime(epoch time.Time, data []byte) {
	s.Append(&TimeMarker{Epoch: epoch, Data: data})
}

// DrainTo hands the whole storage, from slot zero in slot order, to sink
// in ChunkSize chunks. Appends are not stopped: slots rewritten while the
// drain runs may show either the old or the new record.
func (s *Store) DrainTo(sink Sink) error {
	const slotsPerChunk = ChunkSize / SlotSize
	for first := 0; first < len(s.slots); first += slotsPerChunk {
		last := first + slotsPerChunk
		if last > len(s.slots) {
			last = len(s.slots)
		}
		chunk := make([]byte, 0, (last-first)*SlotSize)
		for i := first; i < last; i++ {
			sl := &s.slots[i]
			sl.lock.Lock()
			chunk = append(chunk, sl.buf[:]...)
			sl.lock.Unlock()
		}
		if err := sink.WritePacket(chunk); err != nil {
			return fmt.Errorf("drain at slot %d: %v", first, err)
		}
	}
	return nil
}

// Records decodes all written slots, oldest first.
func (s *Store) Records() []Record {
	start := s.Cursor()
	recs := make([]Record, 0, len(s.slots))
	var buf [SlotSize]byte
	for i := 0; i < len(s.slots); i++ {
		sl := &s.slots[(start+i)%len(s.slots)]
		sl.lock.Lock()
		buf = sl.buf
		sl.lock.Unlock()
		rec, err := DecodeSlot(buf[:])
		if err != nil {
			if err != ErrEmptySlot {
				glog.Warningf("log store: slot %d: %v", (start+i)%len(s.slots), err)
			}
			continue
		}
		recs = append(recs, rec)
	}
	return recs
}

// DecodeImage decodes the written slots of a drained storage image, oldest
// first, starting at cursor.
func DecodeImage(image []byte, cursor int) ([]Record, error) {
	if len(image)%SlotSize != 0 {
		return nil, fmt.Errorf("%w: image size %d", ErrBadSlot, len(image))
	}
	n := len(image) / SlotSize
	if n == 0 {
		return nil, nil
	}
	if cursor < 0 || cursor >= n {
		return nil, fmt.Errorf("cursor %d out of range [0, %d)", cursor, n)
	}
	recs := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		idx := (cursor + i) % n
		rec, err := DecodeSlot(image[idx*SlotSize : (idx+1)*SlotSize])
		if err == ErrEmptySlot {
			continue
		}
		if err != nil {
			return recs, fmt.Errorf("slot %d: %w", idx, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
