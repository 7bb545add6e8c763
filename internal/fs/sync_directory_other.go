//go:build !windows

package fs

import (
	"os"
)

// SyncDirectory flushes the metadata of the directory to stable storage. This makes renames and newly created
// entries inside the directory survive a crash.
func SyncDirectory(fsys FileSystem, directory string) error {
	dir, err := fsys.OpenFile(directory, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	syncErr := dir.Sync()
	closeErr := dir.Close()
	if syncErr != nil {
		return syncErr
	}
	return closeErr
}
