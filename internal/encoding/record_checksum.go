package encoding

import (
	"errors"
	"hash/crc32"
)

var ErrRecordChecksumMismatch = errors.New("log record checksum mismatch")

var crc32ChecksumTable = crc32.MakeTable(crc32.IEEE)

// Checksum returns the CRC-32 (IEEE) checksum over data.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, crc32ChecksumTable)
}

// VerifyChecksum compares the checksum stored in the header with the checksum of the payload.
// Returns ErrRecordChecksumMismatch when they differ.
func VerifyChecksum(header RecordHeader, payload []byte) error {
	if header.Checksum != Checksum(payload) {
		return ErrRecordChecksumMismatch
	}
	return nil
}
