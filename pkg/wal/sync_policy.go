package wal

import intwal "github.com/backbone81/durable-kv/internal/wal"

// SyncPolicyType describes the type of sync policy to apply when appending to the log file.
type SyncPolicyType = intwal.SyncPolicyType

const (
	SyncPolicyTypeNone      = intwal.SyncPolicyTypeNone
	SyncPolicyTypeImmediate = intwal.SyncPolicyTypeImmediate
)

// ParseSyncPolicyType returns the sync policy type matching the string representation.
var ParseSyncPolicyType = intwal.ParseSyncPolicyType
