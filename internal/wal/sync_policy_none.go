package wal

// SyncPolicyNone is never flushing the content of the log file to disk. This might improve performance but records
// can be lost on a crash. Meant for benchmarks and throw-away logs.
type SyncPolicyNone struct{}

// SyncPolicyNone implements SyncPolicy.
var _ SyncPolicy = (*SyncPolicyNone)(nil)

func (s *SyncPolicyNone) RecordAppended(file WriterFile) error {
	return nil
}

func (s *SyncPolicyNone) Durable() bool {
	return false
}
