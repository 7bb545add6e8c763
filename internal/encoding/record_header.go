package encoding

import (
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	ErrRecordHeaderIncomplete = errors.New("incomplete log record header")
	ErrRecordPayloadTooLarge  = errors.New("log record payload exceeds the maximum size")
)

// RecordHeader describes the header which is located in front of every record payload.
type RecordHeader struct {
	// The number of payload bytes following the header. Encoded as four bytes.
	Length uint32

	// The CRC-32 checksum over the payload bytes. Encoded as four bytes.
	Checksum uint32
}

// RecordHeaderSize provides the size in bytes of the record header.
const RecordHeaderSize = 4 + 4

// MaxRecordPayloadSize is the biggest payload a single record can hold, limited by the width of the length field.
const MaxRecordPayloadSize = math.MaxUint32

// NewRecordHeader returns the header describing the given payload.
func NewRecordHeader(payload []byte) (RecordHeader, error) {
	if uint64(len(payload)) > MaxRecordPayloadSize {
		return RecordHeader{}, fmt.Errorf("%w: %d bytes", ErrRecordPayloadTooLarge, len(payload))
	}
	return RecordHeader{
		Length:   uint32(len(payload)), //nolint:gosec // checked above
		Checksum: Checksum(payload),
	}, nil
}

// WriteRecordHeader writes the record header to the writer.
// The buffer is required to avoid allocations and should be big enough to hold the full header temporarily.
func WriteRecordHeader(writer io.Writer, buffer []byte, header RecordHeader) error {
	Endian.PutUint32(buffer[0:4], header.Length)
	Endian.PutUint32(buffer[4:8], header.Checksum)
	if _, err := writer.Write(buffer[:RecordHeaderSize]); err != nil {
		return fmt.Errorf("writing log record header: %w", err)
	}
	return nil
}

// ParseRecordHeader decodes the record header from the start of data. It returns ErrRecordHeaderIncomplete when
// data holds less than RecordHeaderSize bytes.
func ParseRecordHeader(data []byte) (RecordHeader, error) {
	if len(data) < RecordHeaderSize {
		return RecordHeader{}, ErrRecordHeaderIncomplete
	}
	return RecordHeader{
		Length:   Endian.Uint32(data[0:4]),
		Checksum: Endian.Uint32(data[4:8]),
	}, nil
}
