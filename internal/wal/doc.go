// Package wal provides the append-only operation log used to recover the state of the key-value store after a crash.
//
//   - The log is a single file. Records are appended one after the other and are never modified or removed. The
//     record framing is described in the encoding package.
//   - Writer appends one operation per call and, with the default immediate sync policy, flushes the file to stable
//     storage before returning. Every successful Append survives an immediately following crash.
//   - Reader scans the log from the start and stops at the first incomplete or checksum-invalid record. Everything
//     before that point is returned, everything after it is ignored. Only a checksum-valid record which cannot be
//     decoded is reported as an error, as it points to a format mismatch instead of a torn write.
//   - A header announcing an empty payload ends the log instead of failing as a decode error, even though its zero
//     checksum matches. The writer never produces empty payloads, and a zero-filled tail left behind by a crash looks
//     exactly like that.
//   - Writer and Reader are meant to be used in separate phases: read everything after a restart, then append.
//     Neither of them is safe for concurrent use, and only a single writer may append to a log file.
package wal
