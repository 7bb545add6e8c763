package state

import (
	"errors"
	"os"

	"github.com/backbone81/durable-kv/internal/wal"
)

// Recover reads the log file and folds all recoverable operations into a state. A missing log file is an empty log.
func Recover(logPath string, options ...wal.ReaderOption) (State, error) {
	operations, err := wal.ReadAll(logPath, options...)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}
		return nil, err
	}
	return Fold(operations), nil
}
