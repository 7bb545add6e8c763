package state

import (
	"errors"
	"fmt"
	"os"

	"github.com/backbone81/durable-kv/internal/atomicfile"
	"github.com/backbone81/durable-kv/internal/encoding"
	"github.com/backbone81/durable-kv/internal/fs"
	"github.com/backbone81/durable-kv/internal/observe"
	"github.com/backbone81/durable-kv/internal/utils"
	"github.com/backbone81/durable-kv/internal/wal"
)

// Recovery describes what happened while the store read its log.
type Recovery struct {
	// Records is the number of operations which were recovered.
	Records int

	// ValidLength is the size of the log after recovery.
	ValidLength int64

	// DiscardedBytes is the number of bytes after the last valid record which were cut off.
	DiscardedBytes int64

	// StopReason tells why reading the log stopped.
	StopReason wal.StopReason
}

// Store is a key-value store which records every change in the log before applying it to the in-memory state.
//
// Instances of Store are NOT safe for concurrent use. Only a single store may work on a log file at any time.
type Store struct {
	noCopy utils.NoCopy

	writer     *wal.Writer
	state      State
	recovery   Recovery
	fileSystem fs.FileSystem

	publishOptions []atomicfile.Option
}

// StoreOption describes the function signature which all store options need to implement.
type StoreOption func(c *storeConfig)

type storeConfig struct {
	fileSystem     fs.FileSystem
	observer       observe.Observer
	syncPolicyType wal.SyncPolicyType
	directorySync  bool
}

// WithFileSystem overwrites the file system the log and snapshots are stored on.
func WithFileSystem(fileSystem fs.FileSystem) StoreOption {
	return func(c *storeConfig) {
		if fileSystem != nil {
			c.fileSystem = fileSystem
		}
	}
}

// WithObserver sets the observer which receives the events of the log writer and of snapshots.
func WithObserver(observer observe.Observer) StoreOption {
	return func(c *storeConfig) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithSyncPolicy overwrites the sync policy of the log writer.
func WithSyncPolicy(syncPolicyType wal.SyncPolicyType) StoreOption {
	return func(c *storeConfig) {
		c.syncPolicyType = syncPolicyType
	}
}

// WithDirectorySync enables or disables flushing the directory after a snapshot was published.
func WithDirectorySync(enabled bool) StoreOption {
	return func(c *storeConfig) {
		c.directorySync = enabled
	}
}

// OpenStore recovers the state from the log file and opens the log for appending. A torn or corrupted tail of the
// log is cut off, so new records are appended right after the last valid one. A log which contains a record that
// passes its checksum but can not be decoded is left untouched and fails the open.
//
// To avoid resources leaking, the returned Store needs to be closed by calling Close().
func OpenStore(logPath string, options ...StoreOption) (*Store, error) {
	config := storeConfig{
		fileSystem:     fs.Default,
		observer:       observe.Discard,
		syncPolicyType: wal.DefaultSyncPolicy,
		directorySync:  true,
	}
	for _, option := range options {
		option(&config)
	}
	writerOptions := []wal.WriterOption{
		wal.WithFileSystem(config.fileSystem),
		wal.WithObserver(config.observer),
		wal.WithSyncPolicy(config.syncPolicyType),
	}

	operations, recovery, err := recoverLog(logPath, config.fileSystem)
	if err != nil {
		return nil, err
	}
	if recovery.DiscardedBytes > 0 {
		if err := wal.DiscardTail(logPath, recovery.ValidLength, writerOptions...); err != nil {
			return nil, err
		}
	}

	writer, err := wal.Open(logPath, writerOptions...)
	if err != nil {
		return nil, err
	}
	return &Store{
		writer:     writer,
		state:      Fold(operations),
		recovery:   recovery,
		fileSystem: config.fileSystem,
		publishOptions: []atomicfile.Option{
			atomicfile.WithFileSystem(config.fileSystem),
			atomicfile.WithObserver(config.observer),
			atomicfile.WithDirectorySync(config.directorySync),
		},
	}, nil
}

func recoverLog(logPath string, fileSystem fs.FileSystem) ([]encoding.Operation, Recovery, error) {
	reader, err := wal.OpenReader(logPath, wal.WithReaderFileSystem(fileSystem))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Recovery{StopReason: wal.StopReasonEndOfLog}, nil
		}
		return nil, Recovery{}, err
	}

	operations, err := reader.ReadEntries()
	if err != nil {
		return nil, Recovery{}, fmt.Errorf("recovering %q: %w", logPath, err)
	}
	return operations, Recovery{
		Records:        len(operations),
		ValidLength:    reader.ValidLength(),
		DiscardedBytes: reader.Size() - reader.ValidLength(),
		StopReason:     reader.StopReason(),
	}, nil
}

// Recovery returns what happened while the store read its log.
func (s *Store) Recovery() Recovery {
	return s.recovery
}

// Set records the new value of key in the log and applies it afterwards. The state is not changed when Set fails.
func (s *Store) Set(key string, value []byte) error {
	return s.apply(encoding.Set(key, value))
}

// Delete records the removal of key in the log and applies it afterwards. Deleting a missing key is recorded as
// well. The state is not changed when Delete fails.
func (s *Store) Delete(key string) error {
	return s.apply(encoding.Delete(key))
}

func (s *Store) apply(operation encoding.Operation) error {
	if err := s.writer.Append(operation); err != nil {
		return err
	}
	s.state.Apply(operation)
	return nil
}

// Get returns the value of key and whether it exists. The returned slice must not be modified.
func (s *Store) Get(key string) ([]byte, bool) {
	value, ok := s.state[key]
	return value, ok
}

// Len returns the number of keys.
func (s *Store) Len() int {
	return len(s.state)
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	return s.state.Keys()
}

// State returns a copy of the current state.
func (s *Store) State() State {
	return s.state.Clone()
}

// Snapshot atomically publishes the encoded current state at path.
func (s *Store) Snapshot(path string) error {
	data, err := EncodeSnapshot(s.state)
	if err != nil {
		return err
	}
	return atomicfile.Publish(path, data, s.publishOptions...)
}

// LoadSnapshot reads and decodes the snapshot at path from the file system the store works on. The state of the store
// is not changed.
func (s *Store) LoadSnapshot(path string) (State, error) {
	return loadSnapshot(s.fileSystem, path)
}

// Close closes the log file.
func (s *Store) Close() error {
	return s.writer.Close()
}
