// Package comm defines packet transports used to carry control codes from
// the modem link and to export diagnostic dumps.
package comm

import fx "github.com/robotalks/modem.go/pkg/framework"

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// MultiWriter writes every packet to all Writers.
// A failing writer doesn't stop the others.
type MultiWriter struct {
	Writers []PacketWriter
}

// WritePacket implements PacketWriter.
func (w *MultiWriter) WritePacket(pkt []byte) error {
	var errs fx.AggregatedError
	for _, wr := range w.Writers {
		errs.Add(wr.WritePacket(pkt))
	}
	return errs.Aggregate()
}

// Add adds more writers.
func (w *MultiWriter) Add(writers ...PacketWriter) {
	w.Writers = append(w.Writers, writers...)
}
