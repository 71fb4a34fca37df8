// Package wire defines the binary report formats of the Memfault Diagnostic
// Service (MDS) protocol.
//
// A device exposes six addressable reports. Four feature reports carry the
// device configuration, one control report toggles streaming, and one input
// report carries the chunk stream:
//
//	0x01 SUPPORTED_FEATURES  read   uint32, little-endian
//	0x02 DEVICE_IDENTIFIER   read   string, max 64 bytes incl. terminator
//	0x03 DATA_URI            read   string, max 128 bytes incl. terminator
//	0x04 AUTHORIZATION       read   string, max 128 bytes incl. terminator
//	0x05 STREAM_CONTROL      write  1 byte, 0x00 disabled / 0x01 enabled
//	0x06 STREAM_DATA         input  byte 0 bits 0-4 sequence, bytes 1..63 chunk data
//
// # Stream Packets
//
// Byte 0 of a stream packet holds a 5-bit sequence counter in its low bits.
// The top three bits are reserved and ignored. The counter wraps from 31 to
// 0. Up to 63 bytes of chunk data follow; excess bytes are truncated rather
// than rejected.
//
// # Allocation
//
// Stream packet parsing works on a fixed-size value type and does not
// allocate. Parse functions fail only on insufficient length, never on
// content, and never write beyond caller-supplied capacity.
package wire
