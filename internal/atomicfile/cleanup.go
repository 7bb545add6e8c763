package atomicfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/backbone81/durable-kv/internal/observe"
)

// RemoveTemporaryFiles deletes the temporary files which interrupted publishes left behind in directory. It returns
// the number of files removed. A missing directory has nothing to clean up.
//
// RemoveTemporaryFiles must not run concurrently with a publish into the same directory.
func RemoveTemporaryFiles(directory string, options ...Option) (int, error) {
	p := newPublisher(options...)

	entries, err := p.fileSystem.ReadDir(directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("listing directory %q: %w", directory, err)
	}

	var removed int
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), TemporaryFilePrefix) {
			continue
		}
		temporaryPath := filepath.Join(directory, entry.Name())
		err := p.fileSystem.Remove(temporaryPath)
		p.observer(observe.Event{
			Component: "atomicfile",
			Step:      observe.StepRemove,
			Path:      temporaryPath,
			Err:       err,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("removing temporary file %q: %w", temporaryPath, err))
			continue
		}
		removed++
	}
	TemporaryFilesRemovedTotal.Add(float64(removed))
	return removed, errors.Join(errs...)
}
