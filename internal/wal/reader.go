package wal

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/backbone81/durable-kv/internal/encoding"
	"github.com/backbone81/durable-kv/internal/fs"
	"github.com/backbone81/durable-kv/internal/utils"
)

// StopReason describes why the reader stopped returning records.
type StopReason int

const (
	// StopReasonNone means the reader has not stopped yet.
	StopReasonNone StopReason = iota

	// StopReasonEndOfLog means the log ended exactly at a record boundary.
	StopReasonEndOfLog

	// StopReasonTruncated means the log ended inside a record header or payload. This is what an append interrupted
	// by a crash leaves behind.
	StopReasonTruncated

	// StopReasonChecksumMismatch means the payload of a record does not match the checksum in its header.
	StopReasonChecksumMismatch

	// StopReasonDecodeFailure means a checksum-valid payload could not be decoded. Err() reports the details.
	StopReasonDecodeFailure

	// StopReasonEmptyRecord means a record header announced an empty payload. The writer never produces those, but a
	// zero-filled tail left behind by a crash looks exactly like that, including a matching checksum.
	StopReasonEmptyRecord
)

// String returns a string representation of the stop reason.
func (s StopReason) String() string {
	switch s {
	case StopReasonNone:
		return "none"
	case StopReasonEndOfLog:
		return "end-of-log"
	case StopReasonTruncated:
		return "truncated"
	case StopReasonChecksumMismatch:
		return "checksum-mismatch"
	case StopReasonDecodeFailure:
		return "decode-failure"
	case StopReasonEmptyRecord:
		return "empty-record"
	default:
		return "unknown"
	}
}

// Reader provides functionality for reading the log. The whole log is held in memory and scanned from the start.
//
// Instances of Reader are NOT safe for concurrent use. Either use it on a single Go routine or provide your own
// external synchronization.
type Reader struct {
	noCopy utils.NoCopy

	// The path of the log file, empty for in-memory logs.
	filePath string

	// The full content of the log.
	data []byte

	// The offset of the next record from the start of the log. Everything before it was validated.
	offset int

	// The value the reader returns. Only contains useful data after Next() returned true.
	value ReaderValue

	// The reason the reader stopped. StopReasonNone while there might be more records.
	stopReason StopReason

	// The error for the last operation. Only set for records which passed the checksum but could not be decoded.
	err error
}

// ReaderValue is the value returned by the Reader.
type ReaderValue struct {
	// The offset of the record from the start of the log file.
	Offset int64

	// The length of the record including its header.
	Size int

	// The operation stored in the record.
	Operation encoding.Operation
}

// ReaderOption describes the function signature which all reader options need to implement.
type ReaderOption func(c *readerConfig)

type readerConfig struct {
	fileSystem fs.FileSystem
}

// WithReaderFileSystem overwrites the file system the log file is read from.
func WithReaderFileSystem(fileSystem fs.FileSystem) ReaderOption {
	return func(c *readerConfig) {
		if fileSystem != nil {
			c.fileSystem = fileSystem
		}
	}
}

// OpenReader reads the whole log file into memory and returns a reader positioned at the first record. The file is
// closed before OpenReader returns.
func OpenReader(filePath string, options ...ReaderOption) (*Reader, error) {
	config := readerConfig{
		fileSystem: fs.Default,
	}
	for _, option := range options {
		option(&config)
	}

	data, err := readFile(config.fileSystem, filePath)
	if err != nil {
		return nil, fmt.Errorf("the WAL file %q: %w", filePath, err)
	}
	newReader := NewReader(data)
	newReader.filePath = filePath
	return newReader, nil
}

func readFile(fileSystem fs.FileSystem, filePath string) (result []byte, err error) {
	file, err := fileSystem.OpenFile(filePath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("closing file: %w", closeErr))
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// NewReader creates a Reader for log content which is already in memory.
func NewReader(data []byte) *Reader {
	return &Reader{
		data: data,
	}
}

// FilePath returns the path of the log file, or an empty string for in-memory logs.
func (r *Reader) FilePath() string {
	return r.filePath
}

// Next reports if a record has been successfully read. When it returns true, Value() contains the record. When it
// returns false, StopReason() tells why. Err() is nil unless a checksum-valid record could not be decoded.
func (r *Reader) Next() bool {
	if r.stopReason != StopReasonNone {
		return false
	}

	remaining := r.data[r.offset:]
	header, err := encoding.ParseRecordHeader(remaining)
	if err != nil {
		if len(remaining) == 0 {
			r.stop(StopReasonEndOfLog)
		} else {
			r.stop(StopReasonTruncated)
		}
		return false
	}

	if header.Length == 0 {
		r.stop(StopReasonEmptyRecord)
		return false
	}

	// The length is compared as uint64 to not overflow on 32-bit platforms with lengths close to MaxUint32.
	recordSize := uint64(encoding.RecordHeaderSize) + uint64(header.Length)
	if uint64(len(remaining)) < recordSize {
		r.stop(StopReasonTruncated)
		return false
	}

	payload := remaining[encoding.RecordHeaderSize:recordSize]
	if err := encoding.VerifyChecksum(header, payload); err != nil {
		r.stop(StopReasonChecksumMismatch)
		return false
	}

	operation, err := encoding.DecodeOperation(payload)
	if err != nil {
		r.err = fmt.Errorf("the WAL record at offset %d: %w", r.offset, err)
		r.stop(StopReasonDecodeFailure)
		return false
	}

	r.value = ReaderValue{
		Offset:    int64(r.offset),
		Size:      int(recordSize), //nolint:gosec // bounded by len(remaining)
		Operation: operation,
	}
	r.offset += int(recordSize) //nolint:gosec // bounded by len(remaining)

	ReadRecordTotal.Inc()
	ReadRecordBytes.Add(float64(recordSize))
	return true
}

func (r *Reader) stop(stopReason StopReason) {
	r.stopReason = stopReason
	r.value = ReaderValue{}
	ReadStopTotal.WithLabelValues(stopReason.String()).Inc()
}

// Value returns the last record read from the log. The value is only valid after Next() returned true.
func (r *Reader) Value() ReaderValue {
	return r.value
}

// Err returns the error for the last call to Next(). It is nil when the reader stopped at the end of the log, at a
// truncated record or at a checksum mismatch. It wraps encoding.ErrDecoding when a checksum-valid record could not be
// decoded.
func (r *Reader) Err() error {
	return r.err
}

// StopReason returns why the reader stopped, or StopReasonNone while it has not stopped yet.
func (r *Reader) StopReason() StopReason {
	return r.stopReason
}

// ValidLength returns the number of bytes from the start of the log which were validated so far. Once the reader
// stopped, everything after this offset is not trusted.
func (r *Reader) ValidLength() int64 {
	return int64(r.offset)
}

// Size returns the total size of the log in bytes.
func (r *Reader) Size() int64 {
	return int64(len(r.data))
}

// ReadEntries reads all remaining records and returns their operations in append order. It returns an empty slice
// for an empty log. A checksum-valid record which cannot be decoded fails the whole call.
func (r *Reader) ReadEntries() ([]encoding.Operation, error) {
	entries := make([]encoding.Operation, 0, 16)
	for r.Next() {
		entries = append(entries, r.Value().Operation)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadAll opens the log file and returns all operations which can be recovered from it.
func ReadAll(filePath string, options ...ReaderOption) ([]encoding.Operation, error) {
	reader, err := OpenReader(filePath, options...)
	if err != nil {
		return nil, err
	}
	return reader.ReadEntries()
}
