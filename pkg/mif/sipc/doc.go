// Package sipc defines the channel, format and link identifiers shared by
// the modem interface stack.
package sipc

// Channel ids are small integers carried in every SIPC frame header and
// select one logical stream multiplexed over a link. Formats group
// channels by the application subsystem they serve (IPC message, packet
// data, remote file system, boot, dump ...).
