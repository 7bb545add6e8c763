//go:build windows

package fs

// SyncDirectory does nothing on windows, as directories can not be opened for syncing there. NTFS journals the
// metadata of renames and newly created files on its own.
func SyncDirectory(fsys FileSystem, directory string) error {
	return nil
}
