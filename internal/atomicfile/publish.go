package atomicfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/backbone81/durable-kv/internal/fs"
	"github.com/backbone81/durable-kv/internal/observe"
)

// ErrInvalidTarget is returned when the target path can not name a file.
var ErrInvalidTarget = errors.New("invalid target path")

// TemporaryFilePrefix is the prefix of the temporary files created next to the target.
const TemporaryFilePrefix = ".tmp."

// Step describes the step of a publish which failed.
type Step string

const (
	StepValidate        Step = "validate"
	StepCreateDirectory Step = "create-directory"
	StepTemporaryName   Step = "temporary-name"
	StepCreate          Step = "create"
	StepWrite           Step = "write"
	StepSync            Step = "sync"
	StepClose           Step = "close"
	StepRename          Step = "rename"
	StepDirectorySync   Step = "directory-sync"
)

// PublishError is returned for every failed publish. It tells which step failed and wraps the underlying error, so
// errors.Is can be used to look for ErrInvalidTarget or os.ErrPermission.
type PublishError struct {
	Step Step

	// Path is the target path of the publish.
	Path string

	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing %q failed at step %s: %v", e.Path, e.Step, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Option describes the function signature which all publish options need to implement.
type Option func(p *publisher)

// WithFileSystem overwrites the file system the target is written to.
func WithFileSystem(fileSystem fs.FileSystem) Option {
	return func(p *publisher) {
		if fileSystem != nil {
			p.fileSystem = fileSystem
		}
	}
}

// WithObserver sets the observer which receives an event for every step of the publish.
func WithObserver(observer observe.Observer) Option {
	return func(p *publisher) {
		if observer != nil {
			p.observer = observer
		}
	}
}

// WithFileMode overwrites the permissions of the published file. The umask of the process still applies.
func WithFileMode(fileMode os.FileMode) Option {
	return func(p *publisher) {
		p.fileMode = fileMode
	}
}

// WithDirectorySync enables or disables flushing the directory after the rename. Without it the new content is
// visible immediately, but a crash might bring back the old content.
func WithDirectorySync(enabled bool) Option {
	return func(p *publisher) {
		p.directorySync = enabled
	}
}

type publisher struct {
	fileSystem    fs.FileSystem
	observer      observe.Observer
	fileMode      os.FileMode
	directorySync bool
}

func newPublisher(options ...Option) *publisher {
	newPublisher := publisher{
		fileSystem:    fs.Default,
		observer:      observe.Discard,
		fileMode:      0o664,
		directorySync: true,
	}
	for _, option := range options {
		option(&newPublisher)
	}
	return &newPublisher
}

// Publish replaces the content of the file at targetPath with data. Missing parent directories are created. When
// Publish returns without error, the new content is durable. When it fails before the rename, the target is left
// untouched.
//
// Every error is a *PublishError.
func Publish(targetPath string, data []byte, options ...Option) error {
	p := newPublisher(options...)
	start := time.Now()
	p.event(observe.StepStart, targetPath, len(data), 0, nil)

	err := p.publish(targetPath, data)

	duration := time.Since(start)
	p.event(observe.StepDone, targetPath, len(data), duration, err)
	if err != nil {
		var publishErr *PublishError
		if errors.As(err, &publishErr) {
			PublishFailureTotal.WithLabelValues(string(publishErr.Step)).Inc()
		}
		return err
	}
	PublishTotal.Inc()
	PublishBytes.Add(float64(len(data)))
	PublishDuration.Observe(duration.Seconds())
	return nil
}

func (p *publisher) publish(targetPath string, data []byte) error {
	directory, err := splitTarget(targetPath)
	if err != nil {
		return &PublishError{Step: StepValidate, Path: targetPath, Err: err}
	}

	if err := p.fileSystem.MkdirAll(directory, 0o775); err != nil {
		return &PublishError{Step: StepCreateDirectory, Path: targetPath, Err: err}
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return &PublishError{Step: StepTemporaryName, Path: targetPath, Err: err}
	}
	temporaryPath := filepath.Join(directory, TemporaryFilePrefix+id.String())
	p.event(observe.StepTemporaryName, temporaryPath, 0, 0, nil)

	if step, err := p.writeTemporaryFile(temporaryPath, data); err != nil {
		// The temporary file is useless now. Failing to remove it is not worth reporting, RemoveTemporaryFiles
		// cleans up later.
		_ = p.fileSystem.Remove(temporaryPath)
		return &PublishError{Step: step, Path: targetPath, Err: err}
	}

	start := time.Now()
	err = p.fileSystem.Rename(temporaryPath, targetPath)
	p.event(observe.StepRename, targetPath, 0, time.Since(start), err)
	if err != nil {
		_ = p.fileSystem.Remove(temporaryPath)
		return &PublishError{Step: StepRename, Path: targetPath, Err: err}
	}

	if !p.directorySync {
		return nil
	}
	start = time.Now()
	err = fs.SyncDirectory(p.fileSystem, directory)
	p.event(observe.StepDirectorySync, directory, 0, time.Since(start), err)
	if err != nil {
		// The new content is visible already, but might not survive a crash.
		return &PublishError{Step: StepDirectorySync, Path: targetPath, Err: err}
	}
	return nil
}

// writeTemporaryFile creates the temporary file, writes data and flushes it to stable storage. It returns the step
// which failed together with the error.
func (p *publisher) writeTemporaryFile(temporaryPath string, data []byte) (Step, error) {
	file, err := p.fileSystem.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, p.fileMode)
	if err != nil {
		return StepCreate, err
	}

	start := time.Now()
	n, err := file.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	p.event(observe.StepWrite, temporaryPath, n, time.Since(start), err)
	if err != nil {
		return StepWrite, errors.Join(err, file.Close())
	}

	start = time.Now()
	err = file.Sync()
	p.event(observe.StepSync, temporaryPath, 0, time.Since(start), err)
	if err != nil {
		return StepSync, errors.Join(err, file.Close())
	}

	if err := file.Close(); err != nil {
		return StepClose, err
	}
	return "", nil
}

func (p *publisher) event(step observe.Step, path string, bytes int, duration time.Duration, err error) {
	p.observer(observe.Event{
		Component: "atomicfile",
		Step:      step,
		Path:      path,
		Bytes:     bytes,
		Duration:  duration,
		Err:       err,
	})
}

// splitTarget validates the target path and returns the directory it is located in. A bare file name is located in
// the current directory.
func splitTarget(targetPath string) (string, error) {
	if targetPath == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidTarget)
	}
	if os.IsPathSeparator(targetPath[len(targetPath)-1]) {
		return "", fmt.Errorf("%w: %q names a directory", ErrInvalidTarget, targetPath)
	}
	base := filepath.Base(targetPath)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q has no file name", ErrInvalidTarget, targetPath)
	}
	return filepath.Dir(targetPath), nil
}
