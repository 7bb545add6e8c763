package fs

import (
	iofs "io/fs"
	"os"

	"github.com/spf13/afero"
)

// AferoFS adapts an afero file system, most commonly afero.NewMemMapFs(), to FileSystem.
//
// Files of afero's in-memory file system keep their write position after a truncation, even when opened with
// os.O_APPEND. Writes after a truncation therefore leave a gap of zero bytes. Use LocalFS or FaultyFS to exercise
// rollbacks.
type AferoFS struct {
	Fs afero.Fs
}

// AferoFS implements FileSystem.
var _ FileSystem = AferoFS{}

// NewMemoryFS returns a file system which keeps everything in memory.
func NewMemoryFS() AferoFS {
	return AferoFS{Fs: afero.NewMemMapFs()}
}

func (a AferoFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := a.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (a AferoFS) Remove(name string) error              { return a.Fs.Remove(name) }
func (a AferoFS) Rename(oldpath, newpath string) error  { return a.Fs.Rename(oldpath, newpath) }
func (a AferoFS) Stat(name string) (os.FileInfo, error) { return a.Fs.Stat(name) }
func (a AferoFS) MkdirAll(path string, perm os.FileMode) error {
	return a.Fs.MkdirAll(path, perm)
}

func (a AferoFS) ReadDir(name string) ([]os.DirEntry, error) {
	fileInfos, err := afero.ReadDir(a.Fs, name)
	if err != nil {
		return nil, err
	}
	entries := make([]os.DirEntry, 0, len(fileInfos))
	for _, fileInfo := range fileInfos {
		entries = append(entries, iofs.FileInfoToDirEntry(fileInfo))
	}
	return entries, nil
}
