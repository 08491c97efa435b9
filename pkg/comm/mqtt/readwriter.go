package mqtt

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/golang/glog"
)

// Topic suffixes under a node name.
const (
	TopicDump = "dump"
	TopicCtrl = "ctrl"
	TopicMeta = "meta"
)

// ReadWriter implements PacketReadWriter on a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	dropped  uint64
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{Queue: q, packetCh: make(chan []byte, 16)}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForNode uses the topics of a modem node:
// SubTopic = node/ctrl
// PubTopic = node/dump
func (p *ReadWriter) ForNode(node string) *ReadWriter {
	return p.WithTopics(node+"/"+TopicCtrl, node+"/"+TopicDump)
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	pkt, ok := <-p.packetCh
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

// WritePacket implements PacketWriter. QoS 1 so dump chunks are not
// silently dropped.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.PubWith(p.PubTopic, pkt, 1, false)
	token.Wait()
	return token.Error()
}

// Run implements Runnable. Packets are delivered to ReadPacket until ctx
// is done.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	defer close(p.packetCh)
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

// Dropped returns the number of packets dropped because the reader
// fell behind.
func (p *ReadWriter) Dropped() uint64 {
	return atomic.LoadUint64(&p.dropped)
}

func (p *ReadWriter) handleMsg(topic string, payload []byte) {
	select {
	case p.packetCh <- payload:
	default:
		atomic.AddUint64(&p.dropped, 1)
		glog.Warningf("%s: reader behind, packet dropped", topic)
	}
}
