package utils

import (
	"bytes"
)

// WriterFileRecorder provides a stub for a log file which records what is written to it in memory. It allows us to
// use the log writer to prepare a buffer which can then be handed to the log reader.
type WriterFileRecorder struct {
	bytes.Buffer

	// Syncs counts the calls to Sync.
	Syncs int

	// Closed reports if Close was called.
	Closed bool
}

func (s *WriterFileRecorder) Close() error {
	s.Closed = true
	return nil
}

func (s *WriterFileRecorder) Sync() error {
	s.Syncs++
	return nil
}

func (s *WriterFileRecorder) Name() string {
	return "in-memory-recorder"
}

// Truncate discards everything after the first size bytes. It shadows bytes.Buffer.Truncate to match the signature
// of os.File.
func (s *WriterFileRecorder) Truncate(size int64) error {
	s.Buffer.Truncate(int(size))
	return nil
}
