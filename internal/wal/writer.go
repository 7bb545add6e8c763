package wal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/backbone81/durable-kv/internal/encoding"
	"github.com/backbone81/durable-kv/internal/fs"
	"github.com/backbone81/durable-kv/internal/observe"
	"github.com/backbone81/durable-kv/internal/utils"
)

// ErrWriterBroken is returned by every append after a failed append could not be rolled back. The log file might end
// with a torn record in that situation, and appending after it would hide the new records from recovery.
var ErrWriterBroken = errors.New("WAL writer is broken")

// WriterFile is an interface which needs to be implemented by the file to write to.
type WriterFile interface {
	io.WriteCloser
	Sync() error
	Truncate(size int64) error
	Name() string
}

// Writer appends operations to the log file.
//
// Instances of Writer are NOT safe to use concurrently. Only a single writer may append to a log file at any time.
type Writer struct {
	noCopy utils.NoCopy

	// The file the writer is appending to.
	file WriterFile

	// The size of the log file in bytes. Every successful append moves it forward. A failed append rolls the file back
	// to this size.
	offset int64

	// The file system the log file is opened on. Only used by Open.
	fileSystem fs.FileSystem

	// The policy describing how data is flushed to disk.
	syncPolicy SyncPolicy

	observer observe.Observer

	// This buffer is used to combine header and payload into a single file write.
	writeBuffer *bytes.Buffer

	// This is a temporary buffer for converting integers into slices of bytes. This helps us with reducing the amount
	// of memory allocations.
	scratchBuffer [encoding.RecordHeaderSize]byte

	// The sticky error set when a failed append could not be rolled back.
	err error
}

// WriterOption describes the function signature which all writer options need to implement.
type WriterOption func(w *Writer)

// WithSyncPolicy overwrites the default sync policy. Unsupported sync policy types are ignored.
func WithSyncPolicy(syncPolicyType SyncPolicyType) WriterOption {
	return func(w *Writer) {
		if syncPolicy, err := GetSyncPolicy(syncPolicyType); err == nil {
			w.syncPolicy = syncPolicy
		}
	}
}

// WithObserver sets the observer which receives an event for every step of the writer.
func WithObserver(observer observe.Observer) WriterOption {
	return func(w *Writer) {
		if observer != nil {
			w.observer = observer
		}
	}
}

// WithFileSystem overwrites the file system the log file is opened on.
// Can be used with Open.
func WithFileSystem(fileSystem fs.FileSystem) WriterOption {
	return func(w *Writer) {
		if fileSystem != nil {
			w.fileSystem = fileSystem
		}
	}
}

func newWriter(options ...WriterOption) *Writer {
	newWriter := Writer{
		fileSystem:  fs.Default,
		syncPolicy:  &SyncPolicyImmediate{},
		observer:    observe.Discard,
		writeBuffer: bytes.NewBuffer(make([]byte, 0, 4*1024)),
	}
	for _, option := range options {
		option(&newWriter)
	}
	return &newWriter
}

// Open opens the log file for appending. The file is created if it does not exist. Existing content is never
// truncated, so records of earlier runs stay available for recovery.
//
// To avoid resources leaking, the returned Writer needs to be closed by calling Close().
func Open(filePath string, options ...WriterOption) (*Writer, error) {
	newWriter := newWriter(options...)
	start := time.Now()

	size, err := newWriter.openFile(filePath)
	newWriter.observer(observe.Event{
		Component: "wal",
		Step:      observe.StepOpen,
		Path:      filePath,
		Offset:    size,
		Duration:  time.Since(start),
		Err:       err,
	})
	if err != nil {
		return nil, fmt.Errorf("the WAL file %q: %w", filePath, err)
	}
	return newWriter, nil
}

func (w *Writer) openFile(filePath string) (int64, error) {
	_, statErr := w.fileSystem.Stat(filePath)
	created := errors.Is(statErr, os.ErrNotExist)

	file, err := w.fileSystem.OpenFile(filePath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o664)
	if err != nil {
		return 0, fmt.Errorf("opening file: %w", err)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return 0, errors.Join(fmt.Errorf("reading file size: %w", err), file.Close())
	}

	// A freshly created log file is only durable when its directory entry is. Otherwise, a crash could lose the whole
	// file even though every append was flushed.
	if created && w.syncPolicy.Durable() {
		if err := fs.SyncDirectory(w.fileSystem, filepath.Dir(filePath)); err != nil {
			return 0, errors.Join(fmt.Errorf("syncing the directory: %w", err), file.Close())
		}
	}

	w.file = file
	w.offset = fileInfo.Size()
	return w.offset, nil
}

// NewWriter creates a Writer from a file which is already open for appending. offset must be the current size of
// the file.
func NewWriter(file WriterFile, offset int64, options ...WriterOption) *Writer {
	newWriter := newWriter(options...)
	newWriter.file = file
	newWriter.offset = offset
	return newWriter
}

// FilePath returns the file path of the file this writer is writing to.
func (w *Writer) FilePath() string {
	return w.file.Name()
}

// Offset returns the size of the log file in bytes, which is where the next record will start.
func (w *Writer) Offset() int64 {
	return w.offset
}

// Append serializes the operation and appends it as a new record to the log file. With a durable sync policy the
// record has reached stable storage when Append returns without error.
//
// An operation which cannot be serialized returns an error wrapping encoding.ErrEncoding and leaves the file
// untouched. When writing or syncing fails, the file is truncated back to the size it had before the call. The
// durability of the record is undetermined in that case, and retrying is up to the caller.
func (w *Writer) Append(operation encoding.Operation) error {
	if w.err != nil {
		return w.err
	}
	start := time.Now()

	if err := w.appendRecord(operation); err != nil {
		AppendFailureTotal.Inc()
		w.observer(observe.Event{
			Component: "wal",
			Step:      observe.StepAppend,
			Path:      w.file.Name(),
			Offset:    w.offset,
			Duration:  time.Since(start),
			Err:       err,
		})
		return err
	}

	duration := time.Since(start)
	recordSize := w.writeBuffer.Len()
	w.observer(observe.Event{
		Component: "wal",
		Step:      observe.StepAppend,
		Path:      w.file.Name(),
		Offset:    w.offset,
		Bytes:     recordSize,
		Duration:  duration,
	})
	w.offset += int64(recordSize)

	AppendTotal.Inc()
	AppendBytes.Add(float64(recordSize))
	AppendDuration.Observe(duration.Seconds())
	return nil
}

func (w *Writer) appendRecord(operation encoding.Operation) error {
	payload, err := encoding.EncodeOperation(operation)
	if err != nil {
		return err
	}
	header, err := encoding.NewRecordHeader(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", encoding.ErrEncoding, err)
	}

	// Header and payload go out with a single write. A crash can still tear the record, but never leaves a header
	// without any payload behind on file systems which write small buffers in one piece.
	w.writeBuffer.Reset()
	if err := encoding.WriteRecordHeader(w.writeBuffer, w.scratchBuffer[:], header); err != nil {
		return err
	}
	w.writeBuffer.Write(payload)

	writeStart := time.Now()
	_, err = w.file.Write(w.writeBuffer.Bytes())
	w.observer(observe.Event{
		Component: "wal",
		Step:      observe.StepWrite,
		Path:      w.file.Name(),
		Offset:    w.offset,
		Bytes:     w.writeBuffer.Len(),
		Duration:  time.Since(writeStart),
		Err:       err,
	})
	if err != nil {
		return w.rollback(fmt.Errorf("writing record to WAL file: %w", err))
	}

	syncStart := time.Now()
	err = w.syncPolicy.RecordAppended(w.file)
	w.observer(observe.Event{
		Component: "wal",
		Step:      observe.StepSync,
		Path:      w.file.Name(),
		Offset:    w.offset,
		Duration:  time.Since(syncStart),
		Err:       err,
	})
	if err != nil {
		return w.rollback(fmt.Errorf("syncing the WAL file: %w", err))
	}
	return nil
}

// rollback truncates the file to the size it had before the failed append. If that fails as well, the writer is
// unusable from then on.
func (w *Writer) rollback(cause error) error {
	start := time.Now()
	err := w.file.Truncate(w.offset)
	w.observer(observe.Event{
		Component: "wal",
		Step:      observe.StepTruncate,
		Path:      w.file.Name(),
		Offset:    w.offset,
		Duration:  time.Since(start),
		Err:       err,
	})
	if err != nil {
		w.err = errors.Join(
			ErrWriterBroken,
			cause,
			fmt.Errorf("rolling back the WAL file to offset %d: %w", w.offset, err),
		)
		return w.err
	}
	return cause
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	start := time.Now()
	err := w.file.Close()
	w.observer(observe.Event{
		Component: "wal",
		Step:      observe.StepClose,
		Path:      w.file.Name(),
		Offset:    w.offset,
		Duration:  time.Since(start),
		Err:       err,
	})
	if err != nil {
		return fmt.Errorf("closing the WAL file: %w", err)
	}
	return nil
}

// DiscardTail cuts the log file down to size bytes and flushes it. Recovery uses it to drop a torn or corrupted tail
// before appending again, as records appended after it would never be read back.
func DiscardTail(filePath string, size int64, options ...WriterOption) (err error) {
	newWriter := newWriter(options...)
	start := time.Now()
	defer func() {
		newWriter.observer(observe.Event{
			Component: "wal",
			Step:      observe.StepTruncate,
			Path:      filePath,
			Offset:    size,
			Duration:  time.Since(start),
			Err:       err,
		})
	}()

	file, err := newWriter.fileSystem.OpenFile(filePath, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("the WAL file %q: opening file: %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("the WAL file %q: closing file: %w", filePath, closeErr))
		}
	}()

	if err := file.Truncate(size); err != nil {
		return fmt.Errorf("the WAL file %q: truncating to %d bytes: %w", filePath, size, err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("the WAL file %q: syncing: %w", filePath, err)
	}
	return nil
}
