// Package v1 defines the messages exported by modem interface nodes.
package v1

import (
	"github.com/golang/protobuf/proto"
)

// DumpChunk carries one chunk of a drained IPC log store.
type DumpChunk struct {
	Session  string `protobuf:"bytes,1,opt,name=session,proto3" json:"session,omitempty"`
	Machine  string `protobuf:"bytes,2,opt,name=machine,proto3" json:"machine,omitempty"`
	Seq      uint64 `protobuf:"varint,3,opt,name=seq,proto3" json:"seq,omitempty"`
	Offset   uint64 `protobuf:"varint,4,opt,name=offset,proto3" json:"offset,omitempty"`
	SlotSize uint32 `protobuf:"varint,5,opt,name=slot_size,json=slotSize,proto3" json:"slot_size,omitempty"`
	Data     []byte `protobuf:"bytes,6,opt,name=data,proto3" json:"data,omitempty"`
	Node     string `protobuf:"bytes,7,opt,name=node,proto3" json:"node,omitempty"`
	Last     bool   `protobuf:"varint,8,opt,name=last,proto3" json:"last,omitempty"`
	Capacity uint32 `protobuf:"varint,9,opt,name=capacity,proto3" json:"capacity,omitempty"`
	Cursor   uint32 `protobuf:"varint,10,opt,name=cursor,proto3" json:"cursor,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *DumpChunk) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DumpChunk) Reset() { *m = DumpChunk{} }

// String implements proto.Message.
func (m *DumpChunk) String() string { return proto.CompactTextString(m) }
