// Package atomicfile replaces the content of a file so that readers observe either the old or the new content, but
// never a mix of both, even when the process crashes half way.
package atomicfile

import intatomicfile "github.com/backbone81/durable-kv/internal/atomicfile"

// Publish replaces the content of the file at the target path. Every error is a *PublishError.
var Publish = intatomicfile.Publish

// PublishError tells which step of a publish failed.
type PublishError = intatomicfile.PublishError

// ErrInvalidTarget is returned when the target path can not name a file.
var ErrInvalidTarget = intatomicfile.ErrInvalidTarget

// RemoveTemporaryFiles deletes the temporary files which interrupted publishes left behind in a directory.
var RemoveTemporaryFiles = intatomicfile.RemoveTemporaryFiles

// WithObserver sets the observer which receives an event for every step of the publish.
var WithObserver = intatomicfile.WithObserver

// WithFileMode overwrites the permissions of the published file.
var WithFileMode = intatomicfile.WithFileMode

// WithDirectorySync enables or disables flushing the directory after the rename.
var WithDirectorySync = intatomicfile.WithDirectorySync
