// Package flowctl implements CP-initiated flow control of outgoing
// traffic on a link device.
//
// The modem sends 16-bit little-endian control codes on the link:
//
//	0x00CA  SUSPEND  stop the tx queues of all channels
//	0x00CB  RESUME   wake the tx queues of all channels
//
// Any other code is logged and ignored.
package flowctl
