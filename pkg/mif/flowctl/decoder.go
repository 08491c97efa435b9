package flowctl

import (
	"context"
	"encoding/binary"
	"io"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/modem.go/pkg/comm"
	fx "github.com/robotalks/modem.go/pkg/framework"
)

// CommandHandler consumes decoded control codes.
type CommandHandler interface {
	HandleCommand(code uint16)
}

// HandleCommandFunc is func form of CommandHandler.
type HandleCommandFunc func(uint16)

// HandleCommand implements CommandHandler.
func (f HandleCommandFunc) HandleCommand(code uint16) {
	f(code)
}

// Decoder splits control payloads into codes.
type Decoder struct {
	Handler CommandHandler

	malformed uint64
}

// NewDecoder creates a Decoder dispatching to h.
func NewDecoder(h CommandHandler) *Decoder {
	return &Decoder{Handler: h}
}

// Decode dispatches every complete code of data in order and returns the
// number dispatched. An odd trailing byte is dropped.
func (d *Decoder) Decode(data []byte) int {
	glog.V(2).Infof("flow control cmd: size=%d", len(data))
	n := len(data) / 2
	for i := 0; i < n; i++ {
		d.Handler.HandleCommand(binary.LittleEndian.Uint16(data[i*2:]))
	}
	if len(data)%2 != 0 {
		atomic.AddUint64(&d.malformed, 1)
		glog.Warningf("flow control cmd: trailing byte %02X ignored", data[len(data)-1])
	}
	return n
}

// Malformed returns the number of payloads with a trailing odd byte.
func (d *Decoder) Malformed() uint64 {
	return atomic.LoadUint64(&d.malformed)
}

// Receiver feeds packets from a control link into a Decoder.
type Receiver struct {
	Reader  comm.PacketReader
	Decoder *Decoder
}

// Run implements Runnable. It returns nil when the reader reaches EOF.
func (r *Receiver) Run(ctx context.Context) error {
	return fx.RunWithContextCancel(ctx, r.close, func() error {
		for {
			pkt, err := r.Reader.ReadPacket()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			r.Decoder.Decode(pkt)
		}
	})
}

func (r *Receiver) close() {
	if closer, ok := r.Reader.(io.Closer); ok {
		closer.Close()
	}
}
