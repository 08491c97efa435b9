// Package dump exports the IPC log store of a node for postmortem analysis.
//
// A dump is a session of DumpChunk messages, each carrying ChunkSize bytes of
// the drained storage. The receiving side reassembles them with Assembler.
package dump

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	"github.com/google/uuid"

	"github.com/robotalks/modem.go/pkg/comm"
	"github.com/robotalks/modem.go/pkg/mif/logstore"
	pb "github.com/robotalks/modem.go/pkg/proto/mif/v1"
)

// Harvester drains a log store into dump sessions.
type Harvester struct {
	Store   *logstore.Store
	Node    string
	Machine string
}

// NewHarvester creates a Harvester.
func NewHarvester(store *logstore.Store, node, machine string) *Harvester {
	return &Harvester{Store: store, Node: node, Machine: machine}
}

// Harvest writes one dump session to w and returns the session id.
func (h *Harvester) Harvest(w comm.PacketWriter) (string, error) {
	session := uuid.New().String()
	cursor := h.Store.Cursor()
	total := uint64(h.Store.Capacity() * logstore.SlotSize)
	var offset, seq uint64
	err := h.Store.DrainTo(logstore.WritePacketFunc(func(data []byte) error {
		chunk := &pb.DumpChunk{
			Session:  session,
			Machine:  h.Machine,
			Node:     h.Node,
			Seq:      seq,
			Offset:   offset,
			SlotSize: logstore.SlotSize,
			Capacity: uint32(h.Store.Capacity()),
			Cursor:   uint32(cursor),
			Data:     data,
		}
		offset += uint64(len(data))
		seq++
		chunk.Last = offset >= total
		pkt, err := proto.Marshal(chunk)
		if err != nil {
			return fmt.Errorf("encode chunk %d: %v", chunk.Seq, err)
		}
		return w.WritePacket(pkt)
	}))
	if err != nil {
		glog.Errorf("dump %s aborted: %v", session, err)
		return session, err
	}
	glog.Infof("dump %s: %d chunks, %d bytes", session, seq, offset)
	return session, nil
}

// Decode parses a packet into a DumpChunk.
func Decode(pkt []byte) (*pb.DumpChunk, error) {
	chunk := &pb.DumpChunk{}
	if err := proto.Unmarshal(pkt, chunk); err != nil {
		return nil, fmt.Errorf("decode dump chunk: %v", err)
	}
	if chunk.SlotSize != logstore.SlotSize {
		return nil, fmt.Errorf("dump chunk: unsupported slot size %d", chunk.SlotSize)
	}
	return chunk, nil
}
