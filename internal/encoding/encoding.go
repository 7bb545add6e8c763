// Package encoding provides the on-disk format of the operation log.
//
// The log file is a plain sequence of records without any file header:
//
//   - Every record starts with an 8 byte header made up of the payload length and the CRC-32 checksum of the payload,
//     both encoded as little-endian uint32.
//   - The payload follows the header directly. It is the CBOR encoding of a single Operation.
//
// A record is either complete and checksum-valid, or it and everything after it is ignored when reading.
package encoding

import "encoding/binary"

// Endian is the endianness the operation log uses for serializing/deserializing integers to file.
var Endian = binary.LittleEndian
