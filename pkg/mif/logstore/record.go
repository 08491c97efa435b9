package logstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Kind identifies the variant stored in a slot.
type Kind uint8

// Record kinds. KindNone marks a slot never written.
const (
	KindNone Kind = iota
	KindIPCRL2AP
	KindIPCAP2CP
	KindIPCCP2AP
	KindIPCAP2RL
	KindIRQ
	KindCommon
	KindTime
)

var kindNames = [...]string{
	KindNone:     "none",
	KindIPCRL2AP: "RL2AP",
	KindIPCAP2CP: "AP2CP",
	KindIPCCP2AP: "CP2AP",
	KindIPCAP2RL: "AP2RL",
	KindIRQ:      "IRQ",
	KindCommon:   "COM",
	KindTime:     "TIME",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsIPC checks whether the kind is one of the IPC directions.
func (k Kind) IsIPC() bool {
	return k >= KindIPCRL2AP && k <= KindIPCAP2RL
}

// Slot geometry.
const (
	SlotSize   = 64
	headerSize = 16
	bodySize   = SlotSize - headerSize
	irqMapSize = 22
	epochSize  = 12

	MaxIPCLogSize  = bodySize
	MaxIRQLogSize  = bodySize - irqMapSize
	MaxComLogSize  = bodySize
	MaxTimeLogSize = bodySize - epochSize
)

var (
	// ErrBadSlot indicates the bytes are not a slot.
	ErrBadSlot = errors.New("invalid slot size")
	// ErrEmptySlot indicates the slot was never written.
	ErrEmptySlot = errors.New("empty slot")
)

// ErrUnknownKind indicates a slot carries an unknown kind.
type ErrUnknownKind struct {
	Kind Kind
}

// Error implements error.
func (e *ErrUnknownKind) Error() string {
	return fmt.Sprintf("unknown record kind: %d", e.Kind)
}

// Record is one diagnostic log entry.
// The timestamp is assigned by the store on Append and is only
// meaningful on records returned by DecodeSlot.
type Record interface {
	Kind() Kind
	Timestamp() uint64

	// encodeBody writes the variant body and returns the stored payload
	// length and whether the payload was cut.
	encodeBody(body []byte) (n int, truncated bool)
}

// IPCMessage logs raw IPC bytes crossing a layer boundary.
type IPCMessage struct {
	Dir  Kind
	Time uint64
	Data []byte
}

// Kind implements Record.
func (m *IPCMessage) Kind() Kind { return m.Dir }

// Timestamp implements Record.
func (m *IPCMessage) Timestamp() uint64 { return m.Time }

func (m *IPCMessage) encodeBody(body []byte) (int, bool) {
	n := copy(body[:MaxIPCLogSize], m.Data)
	return n, n < len(m.Data)
}

// IRQMap is the snapshot of shared-memory queue pointers taken in an
// interrupt handler.
type IRQMap struct {
	Magic    uint16
	Access   uint16
	FmtTxIn  uint16
	FmtTxOut uint16
	FmtRxIn  uint16
	FmtRxOut uint16
	RawTxIn  uint16
	RawTxOut uint16
	RawRxIn  uint16
	RawRxOut uint16
	CP2AP    uint16
}

func (m *IRQMap) fields() [11]*uint16 {
	return [11]*uint16{
		&m.Magic, &m.Access,
		&m.FmtTxIn, &m.FmtTxOut, &m.FmtRxIn, &m.FmtRxOut,
		&m.RawTxIn, &m.RawTxOut, &m.RawRxIn, &m.RawRxOut,
		&m.CP2AP,
	}
}

// IRQEvent logs an interrupt together with queue pointers.
type IRQEvent struct {
	Time uint64
	Map  IRQMap
	Data []byte
}

// Kind implements Record.
func (e *IRQEvent) Kind() Kind { return KindIRQ }

// Timestamp implements Record.
func (e *IRQEvent) Timestamp() uint64 { return e.Time }

func (e *IRQEvent) encodeBody(body []byte) (int, bool) {
	for i, f := range e.Map.fields() {
		binary.LittleEndian.PutUint16(body[i*2:], *f)
	}
	n := copy(body[irqMapSize:], e.Data)
	return n, n < len(e.Data)
}

// CommonText logs a formatted message.
type CommonText struct {
	Time uint64
	Text string
}

// Kind implements Record.
func (c *CommonText) Kind() Kind { return KindCommon }

// Timestamp implements Record.
func (c *CommonText) Timestamp() uint64 { return c.Time }

func (c *CommonText) encodeBody(body []byte) (int, bool) {
	n := copy(body[:MaxComLogSize], c.Text)
	return n, n < len(c.Text)
}

// TimeMarker logs wall-clock time, used to correlate monotonic stamps.
type TimeMarker struct {
	Time  uint64
	Epoch time.Time
	Data  []byte
}

// Kind implements Record.
func (t *TimeMarker) Kind() Kind { return KindTime }

// Timestamp implements Record.
func (t *TimeMarker) Timestamp() uint64 { return t.Time }

func (t *TimeMarker) encodeBody(body []byte) (int, bool) {
	binary.LittleEndian.PutUint64(body[0:], uint64(t.Epoch.Unix()))
	binary.LittleEndian.PutUint32(body[8:], uint32(t.Epoch.Nanosecond()))
	n := copy(body[epochSize:], t.Data)
	return n, n < len(t.Data)
}

// encodeSlot fills a whole slot. The slot is cleared first so a shorter
// record never leaves bytes of the one it replaces.
func encodeSlot(slot []byte, rec Record, ts uint64) (truncated bool) {
	for i := range slot {
		slot[i] = 0
	}
	n, truncated := rec.encodeBody(slot[headerSize:SlotSize])
	slot[0] = byte(rec.Kind())
	slot[1] = byte(n)
	binary.LittleEndian.PutUint64(slot[8:], ts)
	return truncated
}

// DecodeSlot decodes one slot back into a Record.
func DecodeSlot(slot []byte) (Record, error) {
	if len(slot) != SlotSize {
		return nil, ErrBadSlot
	}
	kind, n := Kind(slot[0]), int(slot[1])
	ts := binary.LittleEndian.Uint64(slot[8:])
	body := slot[headerSize:]
	switch {
	case kind == KindNone:
		return nil, ErrEmptySlot
	case kind.IsIPC():
		if n > MaxIPCLogSize {
			return nil, ErrBadSlot
		}
		return &IPCMessage{Dir: kind, Time: ts, Data: clone(body[:n])}, nil
	case kind == KindIRQ:
		if n > MaxIRQLogSize {
			return nil, ErrBadSlot
		}
		ev := &IRQEvent{Time: ts, Data: clone(body[irqMapSize : irqMapSize+n])}
		for i, f := range ev.Map.fields() {
			*f = binary.LittleEndian.Uint16(body[i*2:])
		}
		return ev, nil
	case kind == KindCommon:
		if n > MaxComLogSize {
			return nil, ErrBadSlot
		}
		return &CommonText{Time: ts, Text: string(body[:n])}, nil
	case kind == KindTime:
		if n > MaxTimeLogSize {
			return nil, ErrBadSlot
		}
		sec := int64(binary.LittleEndian.Uint64(body[0:]))
		nsec := int64(binary.LittleEndian.Uint32(body[8:]))
		return &TimeMarker{
			Time:  ts,
			Epoch: time.Unix(sec, nsec),
			Data:  clone(body[epochSize : epochSize+n]),
		}, nil
	}
	return nil, &ErrUnknownKind{Kind: kind}
}

func clone(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
