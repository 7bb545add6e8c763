package wal

import intencoding "github.com/backbone81/durable-kv/internal/encoding"

// Operation is a single mutation recorded in the log.
type Operation = intencoding.Operation

// OperationKind describes which mutation an operation applies.
type OperationKind = intencoding.OperationKind

const (
	OperationKindSet    = intencoding.OperationKindSet
	OperationKindDelete = intencoding.OperationKindDelete
)

// Set returns an operation which inserts or overwrites the value of key.
var Set = intencoding.Set

// Delete returns an operation which removes key.
var Delete = intencoding.Delete

var (
	// ErrEncoding is returned when an operation can not be serialized.
	ErrEncoding = intencoding.ErrEncoding

	// ErrDecoding is returned when a record passed its checksum but does not hold a valid operation.
	ErrDecoding = intencoding.ErrDecoding
)
