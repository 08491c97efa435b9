package dump

import (
	"fmt"
	"time"

	"github.com/robotalks/modem.go/pkg/mif/logstore"
)

// FormatRecord prints a record in one line.
func FormatRecord(rec logstore.Record) string {
	ts := time.Duration(rec.Timestamp())
	switch r := rec.(type) {
	case *logstore.IPCMessage:
		return fmt.Sprintf("%12v %-5v % x", ts, r.Dir, r.Data)
	case *logstore.IRQEvent:
		return fmt.Sprintf("%12v IRQ   %+v % x", ts, r.Map, r.Data)
	case *logstore.CommonText:
		return fmt.Sprintf("%12v COM   %s", ts, r.Text)
	case *logstore.TimeMarker:
		return fmt.Sprintf("%12v TIME  %s % x", ts, r.Epoch.Format(time.RFC3339Nano), r.Data)
	}
	return fmt.Sprintf("%12v %v", ts, rec.Kind())
}
