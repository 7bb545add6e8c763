// Package state rebuilds the key-value state from the operation log and keeps it up to date.
package state

import intstate "github.com/backbone81/durable-kv/internal/state"

// State maps keys to their current values.
type State = intstate.State

// Fold applies the operations in order to an empty state.
var Fold = intstate.Fold

// Recover reads the log file and folds all recoverable operations into a state. A missing log file is an empty log.
var Recover = intstate.Recover

// Store is a key-value store which records every change in the log before applying it.
//
// Instances of Store are NOT safe for concurrent use.
type Store = intstate.Store

// Recovery describes what happened while the store read its log.
type Recovery = intstate.Recovery

// StoreOption describes the function signature which all store options need to implement.
type StoreOption = intstate.StoreOption

// OpenStore recovers the state from the log file and opens the log for appending.
var OpenStore = intstate.OpenStore

// WithSyncPolicy overwrites the sync policy of the log writer.
// Can be used with OpenStore.
var WithSyncPolicy = intstate.WithSyncPolicy

// WithObserver sets the observer which receives the events of the log writer and of snapshots.
// Can be used with OpenStore.
var WithObserver = intstate.WithObserver

// WithDirectorySync enables or disables flushing the directory after a snapshot was published.
// Can be used with OpenStore.
var WithDirectorySync = intstate.WithDirectorySync

// EncodeSnapshot serializes the state into a compressed snapshot.
var EncodeSnapshot = intstate.EncodeSnapshot

// DecodeSnapshot deserializes a snapshot written by EncodeSnapshot.
var DecodeSnapshot = intstate.DecodeSnapshot

// LoadSnapshot reads and decodes the snapshot at a path.
var LoadSnapshot = intstate.LoadSnapshot
