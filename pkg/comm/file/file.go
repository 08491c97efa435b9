// Package file writes packets into size-rotated files.
package file

import (
	"github.com/golang/glog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/robotalks/modem.go/pkg/comm/stream"
)

// Config sets file name and rotation limits.
type Config struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

// Writer implements PacketWriter using the stream framing, so files can be
// read back with stream.ReadPacketFrom.
type Writer struct {
	out *lumberjack.Logger
}

// NewWriter creates a Writer.
func NewWriter(conf Config) *Writer {
	maxSize := conf.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 16
	}
	glog.V(1).Infof("dump file %s (max %dMB x %d)", conf.Path, maxSize, conf.MaxBackups)
	return &Writer{out: &lumberjack.Logger{
		Filename:   conf.Path,
		MaxSize:    maxSize,
		MaxBackups: conf.MaxBackups,
		Compress:   conf.Compress,
	}}
}

// WritePacket implements PacketWriter.
func (w *Writer) WritePacket(pkt []byte) error {
	return stream.WritePacketTo(w.out, pkt)
}

// Rotate starts a new file, e.g. before a new dump session.
func (w *Writer) Rotate() error {
	return w.out.Rotate()
}

// Close implements io.Closer.
func (w *Writer) Close() error {
	return w.out.Close()
}
