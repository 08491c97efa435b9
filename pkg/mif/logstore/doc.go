// Package logstore provides the fixed-capacity circular store for IPC
// diagnostic records.
//
// Every record occupies exactly one SlotSize slot regardless of its
// variant. Payloads larger than a variant's capacity are truncated to their
// prefix. Once the store is full the oldest slot is overwritten.
//
// Slot layout (little-endian):
//
//	[0]      kind
//	[1]      payload length
//	[2:8]    reserved
//	[8:16]   monotonic timestamp (ns)
//	[16:64]  body, per kind:
//	         IPC:    data
//	         IRQ:    IRQMap (11 x u16), data
//	         COM:    text
//	         TIME:   epoch seconds (i64), nanoseconds (i32), data
package logstore
