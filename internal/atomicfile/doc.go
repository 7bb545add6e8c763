// Package atomicfile replaces the content of a file so that readers observe either the old or the new content, but
// never a mix of both, even when the process crashes half way.
//
// Publish writes the new content to a temporary file next to the target, flushes it to stable storage, renames it
// onto the target and finally flushes the directory so the rename itself survives a crash. The temporary file lives
// in the same directory as the target, as a rename is only atomic within a single file system.
//
// A crash before the rename leaves a temporary file named ".tmp.<uuid>" behind. RemoveTemporaryFiles cleans those
// up. It must not run while a publish into the same directory is in progress.
package atomicfile
