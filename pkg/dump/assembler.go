package dump

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/modem.go/pkg/mif/logstore"
	pb "github.com/robotalks/modem.go/pkg/proto/mif/v1"
)

// Dump is a fully received storage image.
type Dump struct {
	Session string
	Node    string
	Machine string
	Cursor  int
	Image   []byte
}

// Records decodes the image, oldest first.
func (d *Dump) Records() ([]logstore.Record, error) {
	return logstore.DecodeImage(d.Image, d.Cursor)
}

type partial struct {
	dump     Dump
	received uint64
	next     uint64
}

// Assembler collects chunks of concurrent sessions.
type Assembler struct {
	lock     sync.Mutex
	sessions map[string]*partial
}

// NewAssembler creates an Assembler.
func NewAssembler() *Assembler {
	return &Assembler{sessions: make(map[string]*partial)}
}

// Add accepts a chunk and returns the completed dump after the last chunk.
// Chunks of a session must arrive in order; a gap drops the session.
func (a *Assembler) Add(chunk *pb.DumpChunk) (*Dump, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	p := a.sessions[chunk.Session]
	if p == nil {
		if chunk.Seq != 0 {
			return nil, fmt.Errorf("dump %s: chunk %d without start", chunk.Session, chunk.Seq)
		}
		size := uint64(chunk.Capacity) * uint64(chunk.SlotSize)
		if size == 0 || size > logstore.MaxStorageSize {
			return nil, fmt.Errorf("dump %s: invalid capacity %d", chunk.Session, chunk.Capacity)
		}
		p = &partial{dump: Dump{
			Session: chunk.Session,
			Node:    chunk.Node,
			Machine: chunk.Machine,
			Cursor:  int(chunk.Cursor),
			Image:   make([]byte, size),
		}}
		a.sessions[chunk.Session] = p
	}
	if chunk.Seq != p.next || chunk.Offset+uint64(len(chunk.Data)) > uint64(len(p.dump.Image)) {
		delete(a.sessions, chunk.Session)
		return nil, fmt.Errorf("dump %s: unexpected chunk %d at %d", chunk.Session, chunk.Seq, chunk.Offset)
	}
	copy(p.dump.Image[chunk.Offset:], chunk.Data)
	p.received += uint64(len(chunk.Data))
	p.next++
	if !chunk.Last {
		return nil, nil
	}
	delete(a.sessions, chunk.Session)
	if p.received != uint64(len(p.dump.Image)) {
		return nil, fmt.Errorf("dump %s: incomplete, %d of %d bytes", chunk.Session, p.received, len(p.dump.Image))
	}
	glog.V(1).Infof("dump %s from %s complete", chunk.Session, chunk.Node)
	return &p.dump, nil
}

// Pending returns the number of incomplete sessions.
func (a *Assembler) Pending() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return len(a.sessions)
}
