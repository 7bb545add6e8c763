package wal

import intwal "github.com/backbone81/durable-kv/internal/wal"

// Writer appends operations to the log file.
//
// Instances of Writer are NOT safe to use concurrently. Only a single writer may append to a log file at any time.
type Writer = intwal.Writer

// Open opens the log file for appending and creates it if required. Existing content is never truncated.
var Open = intwal.Open

// ErrWriterBroken is returned by every append after a failed append could not be rolled back.
var ErrWriterBroken = intwal.ErrWriterBroken

// DiscardTail cuts the log file down to the given size. Use it with Reader.ValidLength before appending to a log
// which ended with a torn record.
var DiscardTail = intwal.DiscardTail

// WithSyncPolicy overwrites the default sync policy.
// Can be used with Open.
var WithSyncPolicy = intwal.WithSyncPolicy

// WithObserver sets the observer which receives an event for every step of the writer.
// Can be used with Open.
var WithObserver = intwal.WithObserver
