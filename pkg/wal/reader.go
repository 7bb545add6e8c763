package wal

import intwal "github.com/backbone81/durable-kv/internal/wal"

// Reader provides functionality to read the log from the start.
//
// Instances of Reader are NOT safe for concurrent use. Either use it on a single Go routine or provide your own
// external synchronization.
type Reader = intwal.Reader

// ReaderValue is the value returned by the Reader.
type ReaderValue = intwal.ReaderValue

// OpenReader reads the whole log file into memory and returns a reader positioned at the first record.
var OpenReader = intwal.OpenReader

// NewReader creates a Reader for log content which is already in memory.
var NewReader = intwal.NewReader

// ReadAll returns all operations which can be recovered from the log file.
var ReadAll = intwal.ReadAll

// StopReason describes why the reader stopped returning records.
type StopReason = intwal.StopReason

const (
	StopReasonNone             = intwal.StopReasonNone
	StopReasonEndOfLog         = intwal.StopReasonEndOfLog
	StopReasonTruncated        = intwal.StopReasonTruncated
	StopReasonChecksumMismatch = intwal.StopReasonChecksumMismatch
	StopReasonDecodeFailure    = intwal.StopReasonDecodeFailure
	StopReasonEmptyRecord      = intwal.StopReasonEmptyRecord
)
