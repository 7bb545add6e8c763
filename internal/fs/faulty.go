package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInjectedFault is the error returned by FaultyFS when a fault rule does not provide its own error.
var ErrInjectedFault = errors.New("injected fault")

// Fault defines the failure behavior for files matching a rule.
type Fault struct {
	// FailWrites makes writes fail after FailAfterBytes bytes have been written to a single file. Writes crossing
	// the limit are torn: the bytes up to the limit reach the file, the rest does not.
	FailWrites     bool
	FailAfterBytes int64

	FailOnOpen     bool
	FailOnSync     bool
	FailOnClose    bool
	FailOnTruncate bool

	// FailOnRename fails renames where the source or the destination matches the rule. The file system is left
	// unchanged, which is exactly what a crash right before the rename looks like.
	FailOnRename bool

	FailOnMkdir bool

	Err error
}

// FaultyFS is a FileSystem wrapper that can inject errors. Rules match when the pattern is contained in the base
// name of the path. When several rules match, the longest pattern wins.
type FaultyFS struct {
	FS FileSystem

	mutex sync.Mutex
	rules map[string]Fault
}

// FaultyFS implements FileSystem.
var _ FileSystem = (*FaultyFS)(nil)

// NewFaultyFS creates a new FaultyFS wrapping the provided file system (or Default if nil).
func NewFaultyFS(fsys FileSystem) *FaultyFS {
	if fsys == nil {
		fsys = Default
	}
	return &FaultyFS{
		FS:    fsys,
		rules: make(map[string]Fault),
	}
}

// AddRule adds a fault injection rule for files whose base name contains pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.rules[pattern] = fault
}

// ClearRules removes all fault injection rules.
func (f *FaultyFS) ClearRules() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.rules = make(map[string]Fault)
}

func (f *FaultyFS) faultFor(name string) Fault {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	base := filepath.Base(name)
	var result Fault
	matched := -1
	for pattern, rule := range f.rules {
		if strings.Contains(base, pattern) && len(pattern) > matched {
			result = rule
			matched = len(pattern)
		}
	}
	if result.Err == nil {
		result.Err = ErrInjectedFault
	}
	return result
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	fault := f.faultFor(name)
	if fault.FailOnOpen {
		return nil, fault.Err
	}
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fault: fault}, nil
}

func (f *FaultyFS) Remove(name string) error {
	return f.FS.Remove(name)
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if fault := f.faultFor(oldpath); fault.FailOnRename {
		return fault.Err
	}
	if fault := f.faultFor(newpath); fault.FailOnRename {
		return fault.Err
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}

func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	if fault := f.faultFor(path); fault.FailOnMkdir {
		return fault.Err
	}
	return f.FS.MkdirAll(path, perm)
}

func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) {
	return f.FS.ReadDir(name)
}

type faultyFile struct {
	File
	fault   Fault
	written int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if ff.fault.FailWrites && ff.written+int64(len(p)) > ff.fault.FailAfterBytes {
		allowed := max(ff.fault.FailAfterBytes-ff.written, 0)
		n, err := ff.File.Write(p[:allowed])
		ff.written += int64(n)
		if err != nil {
			return n, err
		}
		return n, ff.fault.Err
	}
	n, err := ff.File.Write(p)
	ff.written += int64(n)
	return n, err
}

func (ff *faultyFile) Sync() error {
	if ff.fault.FailOnSync {
		return ff.fault.Err
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	closeErr := ff.File.Close()
	if ff.fault.FailOnClose {
		return ff.fault.Err
	}
	return closeErr
}

func (ff *faultyFile) Truncate(size int64) error {
	if ff.fault.FailOnTruncate {
		return ff.fault.Err
	}
	return ff.File.Truncate(size)
}
