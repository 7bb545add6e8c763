package wal

// SyncPolicyImmediate is flushing the content of the log file to disk after every record. An append which returned
// successfully survives a crash, at the cost of one fsync per append.
type SyncPolicyImmediate struct{}

// SyncPolicyImmediate implements SyncPolicy.
var _ SyncPolicy = (*SyncPolicyImmediate)(nil)

func (s *SyncPolicyImmediate) RecordAppended(file WriterFile) error {
	return file.Sync()
}

func (s *SyncPolicyImmediate) Durable() bool {
	return true
}
