package wal

import "errors"

var ErrSyncPolicyUnsupported = errors.New("unsupported WAL sync policy")

// SyncPolicyType describes the type of sync policy to apply when appending to the log file.
type SyncPolicyType int

const (
	SyncPolicyTypeNone SyncPolicyType = iota
	SyncPolicyTypeImmediate
)

// String returns a string representation of the sync policy type.
func (s SyncPolicyType) String() string {
	switch s {
	case SyncPolicyTypeNone:
		return "none"
	case SyncPolicyTypeImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// ParseSyncPolicyType returns the sync policy type matching the string representation.
func ParseSyncPolicyType(value string) (SyncPolicyType, error) {
	for _, syncPolicyType := range SyncPolicyTypes {
		if syncPolicyType.String() == value {
			return syncPolicyType, nil
		}
	}
	return 0, ErrSyncPolicyUnsupported
}

// SyncPolicyTypes provides a list of supported sync policies. Helpful for writing tests and benchmarks which iterate
// over all possibilities.
var SyncPolicyTypes = []SyncPolicyType{
	SyncPolicyTypeNone,
	SyncPolicyTypeImmediate,
}

// DefaultSyncPolicy is the sync policy type which gives every successful append full durability.
const DefaultSyncPolicy = SyncPolicyTypeImmediate

// SyncPolicy is the interface every sync policy needs to implement.
type SyncPolicy interface {
	// RecordAppended is called after a record was written to the file and before Append returns.
	RecordAppended(file WriterFile) error

	// Durable reports if a successful RecordAppended guarantees that the record reached stable storage.
	Durable() bool
}

// GetSyncPolicy returns an instance of the sync policy matching the sync policy type.
func GetSyncPolicy(syncPolicyType SyncPolicyType) (SyncPolicy, error) {
	switch syncPolicyType {
	case SyncPolicyTypeNone:
		return &SyncPolicyNone{}, nil
	case SyncPolicyTypeImmediate:
		return &SyncPolicyImmediate{}, nil
	default:
		return nil, ErrSyncPolicyUnsupported
	}
}
