// Package wal provides the append-only operation log of a crash-consistent key-value store.
//
//   - The log is a single file of records. Every record is an 8 byte header followed by the payload. The header holds
//     the payload length and the CRC-32 (IEEE) checksum of the payload, both as little-endian 32-bit integers. There
//     is no file header.
//   - The payload is a single Set or Delete operation.
//   - Writer appends one operation per call. With the default sync policy the record is on stable storage when
//     Append returns.
//   - Reader returns every record up to the first one which is incomplete or fails its checksum. Such a record is
//     what a crash during an append leaves behind, so it and everything after it is ignored.
package wal
